package pkg

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// TeeWriter duplicates every write to all of its writers. A failing writer does
// not stop the others; their errors are combined.
type TeeWriter struct {
	writers []io.Writer
}

func NewTeeWriter(writers ...io.Writer) *TeeWriter {
	return &TeeWriter{
		writers: append([]io.Writer(nil), writers...),
	}
}

// Write reports len(p) when at least one writer took the whole of p.
func (tw *TeeWriter) Write(p []byte) (int, error) {
	var err error
	delivered := false
	for i, w := range tw.writers {
		n, werr := w.Write(p)
		if werr == nil && n < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, fmt.Errorf("writer %d: %w", i, werr))
			continue
		}
		delivered = true
	}

	if !delivered {
		return 0, err
	}
	return len(p), err
}
