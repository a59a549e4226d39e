// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/bodaay/ghri/pkg/ghri"
)

// statusGlyph is exercised here in its non-TTY form: test binaries run with
// stdout redirected to a pipe, so isTerminal() is false and the plain-ASCII
// branch is what's actually reachable in this environment.
func TestStatusGlyphNonTTY(t *testing.T) {
	tests := []struct {
		status ghri.LinkStatus
		want   string
	}{
		{ghri.LinkValid, "OK"},
		{ghri.LinkNotExists, "BROKEN"},
		{ghri.LinkWrongTarget, "BROKEN"},
		{ghri.LinkNotSymlink, "BROKEN"},
		{ghri.LinkUnresolvable, "?"},
	}
	for _, tt := range tests {
		if got := statusGlyph(tt.status); got != tt.want {
			t.Errorf("statusGlyph(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
