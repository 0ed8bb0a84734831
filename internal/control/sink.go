package control

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// Record is one completed unit of output. An empty Name emits the bare Value.
type Record struct {
	Name  string
	Value string
}

// Sink receives records in processing order.
type Sink interface {
	Emit(r Record) error
}

// LineSink writes one record per line and flushes after each, so partial
// output survives an aborted run.
type LineSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewLineSink creates a sink writing to w.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: bufio.NewWriter(w)}
}

func (s *LineSink) Emit(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if r.Name == "" {
		_, err = fmt.Fprintln(s.w, r.Value)
	} else {
		_, err = fmt.Fprintf(s.w, "%s %s\n", r.Name, r.Value)
	}
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return s.w.Flush()
}
