package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

// EnvelopeWriter is the sink a turn streams into. Close writes the
// end-of-stream sentinel.
type EnvelopeWriter interface {
	WriteEnvelope(env Envelope) error
	Close() error
}

type WriterOption func(*Writer)

func WithFlusher(f http.Flusher) WriterOption {
	return func(w *Writer) {
		if f != nil {
			w.flusher = f
		}
	}
}

// WithEnvelopeHook calls fn after each envelope is written and flushed.
func WithEnvelopeHook(fn func(Envelope)) WriterOption {
	return func(w *Writer) {
		w.onWrite = fn
	}
}

// Writer frames envelopes as "data: <json>\n\n" and flushes after every
// frame. The sentinel frame is written exactly once, by the first Close.
type Writer struct {
	mu        sync.Mutex
	w         io.Writer
	flusher   http.Flusher
	onWrite   func(Envelope)
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

var _ EnvelopeWriter = (*Writer)(nil)

func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	sw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

func (w *Writer) WriteEnvelope(env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope type=%s: %w", env.Type, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("%w: stream already closed", contractx.ErrTransport)
	}
	if err := w.writeFrame(payload); err != nil {
		return err
	}
	if w.onWrite != nil {
		w.onWrite(env)
	}
	return nil
}

func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.closed = true
		w.closeErr = w.writeFrame([]byte(Sentinel))
	})
	return w.closeErr
}

func (w *Writer) writeFrame(payload []byte) error {
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, '\n', '\n')

	if _, err := w.w.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrTransport, err)
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
