package runner

// Event is one observable step of a run. The set is closed: only types in
// this package implement it, and consumers handle every variant through
// EventVisitor.
type Event interface {
	Accept(v EventVisitor) error
	isEvent()
}

// EventVisitor has one method per event variant. Adding a variant adds a
// method here, so every consumer must handle it before it compiles.
type EventVisitor interface {
	VisitTextDelta(TextDelta) error
	VisitHandoff(HandoffOccurred) error
	VisitToolInvoked(ToolInvoked) error
	VisitToolCompleted(ToolCompleted) error
	VisitMessageFinalized(MessageFinalized) error
	VisitFailure(Failure) error
}

// TextDelta is an incremental chunk of assistant output.
type TextDelta struct {
	Text string
}

// HandoffOccurred reports that control moved to another agent.
type HandoffOccurred struct {
	Agent string
}

// ToolInvoked reports that a tool call started. Ref is the tool call id.
type ToolInvoked struct {
	Ref string
}

type ToolCompleted struct {
	Ref string
}

// MessageFinalized reports a complete assistant message. Ref is the name of
// the agent that produced it.
type MessageFinalized struct {
	Ref string
}

// Failure ends a run. It is always the last event on the channel.
type Failure struct {
	Err error
}

func (e TextDelta) Accept(v EventVisitor) error        { return v.VisitTextDelta(e) }
func (e HandoffOccurred) Accept(v EventVisitor) error  { return v.VisitHandoff(e) }
func (e ToolInvoked) Accept(v EventVisitor) error      { return v.VisitToolInvoked(e) }
func (e ToolCompleted) Accept(v EventVisitor) error    { return v.VisitToolCompleted(e) }
func (e MessageFinalized) Accept(v EventVisitor) error { return v.VisitMessageFinalized(e) }
func (e Failure) Accept(v EventVisitor) error          { return v.VisitFailure(e) }

func (TextDelta) isEvent()        {}
func (HandoffOccurred) isEvent()  {}
func (ToolInvoked) isEvent()      {}
func (ToolCompleted) isEvent()    {}
func (MessageFinalized) isEvent() {}
func (Failure) isEvent()          {}
