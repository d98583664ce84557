package pipeline

import "fmt"

// Phase names the pipeline stage an error originated in.
type Phase string

const (
	PhaseExtract   Phase = "extraction"
	PhaseTransform Phase = "transformation"
	PhaseLoad      Phase = "loading"
)

// PhaseError tags a failure with the pipeline phase it came from, so no raw
// collaborator error ever escapes unlabeled.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func phaseErr(phase Phase, err error) *PhaseError {
	return &PhaseError{Phase: phase, Err: err}
}
