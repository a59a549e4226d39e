package ghri

import (
	"errors"
	"fmt"
)

// Kind classifies an Error into the taxonomy of §7: it drives whether a
// failure is retried, how it is reported, and what exit code the command
// layer chooses.
type Kind int

const (
	// KindParse covers a malformed repo spec or version suffix.
	KindParse Kind = iota
	// KindNotInstalled covers operations on an unknown package.
	KindNotInstalled
	// KindNetworkTransient covers a transport error or 5xx that was retried
	// and still failed.
	KindNetworkTransient
	// KindNetworkPermanent covers 401/403/404/429/other 4xx responses.
	KindNetworkPermanent
	// KindArchive covers extraction failure: corrupted, empty, unreadable.
	KindArchive
	// KindFilesystem covers permission, disk full, missing parent.
	KindFilesystem
	// KindPrecondition covers e.g. removing current without --force.
	KindPrecondition
	// KindInterrupt is always terminal.
	KindInterrupt
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindNotInstalled:
		return "not-installed"
	case KindNetworkTransient:
		return "network-transient"
	case KindNetworkPermanent:
		return "network-permanent"
	case KindArchive:
		return "archive"
	case KindFilesystem:
		return "filesystem"
	case KindPrecondition:
		return "precondition"
	case KindInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind and the offending path or URL,
// so the command layer can report a short human-readable cause without
// dumping the full provider response (the response body is not kept).
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrapErr builds an *Error, the one place every component should funnel a
// leaf failure through so the taxonomy stays consistent.
func wrapErr(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, defaulting to KindFilesystem for unclassified errors since most
// uncaught failures in this codebase are filesystem-shaped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFilesystem
}
