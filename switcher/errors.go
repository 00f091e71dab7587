package switcher

import (
	"errors"
	"fmt"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// ErrAlreadyStarted is returned when Run or Stream is called on a scheduler
// that has already run. Each run needs a fresh Scheduler.
var ErrAlreadyStarted = errors.New("switcher: scheduler already started")

// RunError reports a run that stopped before reaching a terminal state.
// The tokens emitted before the failure are valid partial output.
type RunError struct {
	// Emitted is the number of TokenEvents delivered before the failure.
	// It is also the position that failed.
	Emitted int

	// Role and Model identify the call that failed (empty for cancellation
	// detected between tokens)
	Role  modelswitch.Role
	Model string

	// Generated is the partial output text
	Generated string

	// Err is the cause: a model client error, a context error, or the
	// error returned by the caller's emit function
	Err error
}

func (e *RunError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("generation failed at position %d (%s model %s): %v", e.Emitted, e.Role, e.Model, e.Err)
	}
	return fmt.Sprintf("generation stopped at position %d: %v", e.Emitted, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// PartialOutput extracts the partial text and token count from an error
// returned by Run. ok is false for errors that are not a *RunError.
func PartialOutput(err error) (text string, emitted int, ok bool) {
	var runErr *RunError
	if !errors.As(err, &runErr) {
		return "", 0, false
	}
	return runErr.Generated, runErr.Emitted, true
}
