package social

import "errors"

var (
	ErrStorage        = errors.New("social storage failure")
	ErrInvalidTarget  = errors.New("invalid target")
	ErrTargetNotFound = errors.New("target not found")
	ErrUnknownActor   = errors.New("actor has no local user record")
)

// ValidationError carries a message meant for the person who submitted the
// form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
