// Package report renders simulated cron matches as text.
package report

import (
	"bufio"
	"fmt"
	"io"
	"iter"

	"cronls/internal/cron"
)

// Writer prints one line per match:
//
//	2024-01-02 09:00:00 :: alice   :: 0 9 * * * backup
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write renders a single event.
func (r *Writer) Write(e cron.MatchEvent) error {
	_, err := fmt.Fprintf(r.w, "%s :: %-7s :: %s\n", e.Time.Format(cron.TimeLayout), e.User, e.Raw)
	return err
}

// WriteAll renders every event of seq and flushes. It returns the number
// of lines written.
func (r *Writer) WriteAll(seq iter.Seq[cron.MatchEvent]) (int, error) {
	var n int
	for e := range seq {
		if err := r.Write(e); err != nil {
			return n, err
		}
		n++
	}
	return n, r.Flush()
}

// Flush writes buffered lines to the underlying writer.
func (r *Writer) Flush() error {
	return r.w.Flush()
}
