package contract

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrModelInvoke   = errors.New("model invoke failed")
	ErrToolExecute   = errors.New("tool execution failed")
	ErrPromptMissing = errors.New("required prompt is missing")
	ErrMaxTurns      = errors.New("max turns exceeded")
	ErrTurnTimeout   = errors.New("turn timed out")
	ErrTransport     = errors.New("transport write failed")
	ErrUnknownAgent  = errors.New("unknown agent")
)
