//go:build !windows

package ghri

import "os"

// isPrivilegedProcess reports whether the effective user is root.
func isPrivilegedProcess() bool {
	return os.Geteuid() == 0
}
