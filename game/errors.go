package game

import "errors"

var (
	ErrSessionFinished = errors.New("session already finished")
	ErrSessionBusy     = errors.New("session has a request in flight")
	ErrRoundLimit      = errors.New("round limit reached")
	ErrInvalidDecision = errors.New("invalid decision")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
