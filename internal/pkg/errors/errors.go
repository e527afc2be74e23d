package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrTooMany           = errors.New("too many requests")
	ErrInternal          = errors.New("internal")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSearchFailure     = errors.New("search failure")
	ErrGenerationTimeout = errors.New("generation timeout")
	ErrGenerationFailed  = errors.New("generation failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSessionNotFound)
}

func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrGenerationTimeout) || errors.Is(err, ErrGenerationFailed)
}
