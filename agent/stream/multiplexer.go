package stream

import (
	"context"
	"strings"

	runnerx "github.com/tanpawarit/recruiter-chat/agent/runner"
)

// Outcome summarizes what a multiplexed run put on the wire.
type Outcome struct {
	Text      string
	Envelopes int
}

// Multiplex pulls run events one at a time and writes each as an envelope
// before pulling the next. It returns when the event channel closes, when
// ctx is done, on a Failure event (returning its error), or on a write
// error (wrapping contract.ErrTransport). It never writes the error
// envelope or the sentinel; that is left to the caller.
func Multiplex(ctx context.Context, events <-chan runnerx.Event, w EnvelopeWriter) (Outcome, error) {
	enc := &encoder{w: w}
	for {
		select {
		case <-ctx.Done():
			return enc.outcome(), ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return enc.outcome(), nil
			}
			if err := ev.Accept(enc); err != nil {
				return enc.outcome(), err
			}
		}
	}
}

type encoder struct {
	w     EnvelopeWriter
	text  strings.Builder
	count int
}

var _ runnerx.EventVisitor = (*encoder)(nil)

func (e *encoder) write(env Envelope) error {
	if err := e.w.WriteEnvelope(env); err != nil {
		return err
	}
	e.count++
	return nil
}

func (e *encoder) VisitTextDelta(ev runnerx.TextDelta) error {
	e.text.WriteString(ev.Text)
	return e.write(TextDeltaEnvelope(ev.Text))
}

func (e *encoder) VisitHandoff(ev runnerx.HandoffOccurred) error {
	return e.write(HandoffEnvelope(ev.Agent))
}

func (e *encoder) VisitToolInvoked(runnerx.ToolInvoked) error {
	return e.write(ToolCallEnvelope())
}

func (e *encoder) VisitToolCompleted(runnerx.ToolCompleted) error {
	return e.write(ToolOutputEnvelope())
}

func (e *encoder) VisitMessageFinalized(runnerx.MessageFinalized) error {
	return e.write(MessageCompleteEnvelope())
}

func (e *encoder) VisitFailure(ev runnerx.Failure) error {
	return ev.Err
}

func (e *encoder) outcome() Outcome {
	return Outcome{Text: e.text.String(), Envelopes: e.count}
}
