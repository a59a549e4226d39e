package ghri

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// ProgressSink reports the byte count of a stream as it is read. Download
// wraps its response body in one so the command layer can show a progress
// bar without the HTTP Port knowing anything about terminals.
type ProgressSink interface {
	// Wrap returns a reader that forwards reads to r while reporting
	// progress, and a Finish func to call once the stream is fully read.
	Wrap(r io.Reader, total int64) (wrapped io.Reader, finish func())
}

// noopProgress reports nothing; used by default and whenever output is not
// a terminal (scripts, --quiet).
type noopProgress struct{}

func (noopProgress) Wrap(r io.Reader, _ int64) (io.Reader, func()) {
	return r, func() {}
}

// NoopProgress is the sink used when no progress reporting is wanted.
var NoopProgress ProgressSink = noopProgress{}

// barProgress renders a pb/v3 progress bar, wrapping a download body with
// `pb.Full.Start64(contentLength)` then `bar.NewProxyReader(body)`.
type barProgress struct {
	prefix string
}

// NewBarProgress returns a ProgressSink that renders a terminal progress
// bar labelled with prefix (the command layer passes "downloading").
func NewBarProgress(prefix string) ProgressSink {
	return barProgress{prefix: prefix}
}

func (b barProgress) Wrap(r io.Reader, total int64) (io.Reader, func()) {
	bar := pb.Full.Start64(total)
	bar.Set("prefix", b.prefix+" ")
	return bar.NewProxyReader(r), func() { bar.Finish() }
}
