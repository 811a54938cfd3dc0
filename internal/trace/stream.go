package trace

import (
	"io"
	"sync"
)

// StreamTracer formats each event as it arrives and writes it out.
type StreamTracer struct {
	gate
	mu     sync.Mutex
	w      io.Writer
	format Format
}

// NewStreamTracer writes events at or above level to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	t := &StreamTracer{w: w, format: format}
	t.level = level
	return t
}

// Emit writes ev. Write errors are dropped; tracing never fails the traced
// operation.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.admit(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := t.stamp(ev)
	_, _ = t.w.Write(FormatEvent(&stored, t.format)) //nolint:errcheck
}

// Flush flushes w when it buffers.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes w unless it is stdout or stderr.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok && !isStdStream(t.w) {
		return c.Close()
	}
	return nil
}
