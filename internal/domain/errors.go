package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFinished      = errors.New("match already finished")
	ErrAlreadyStarted    = errors.New("match already started")
	ErrNotHost           = errors.New("only the host can start the match")
	ErrAutoStartOnly     = errors.New("random rooms start automatically")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrNoOpenRound       = errors.New("no round is open")
	ErrWrongQuestion     = errors.New("answer does not match the open question")
	ErrAlreadyAnswered   = errors.New("already answered this round")
	ErrChoiceOutOfRange  = errors.New("choice index out of range")
	ErrAnswerTooEarly    = errors.New("answers are not open yet")
	ErrDeadlinePassed    = errors.New("answer deadline has passed")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrStampNotAllowed   = errors.New("stamp is not unlocked for this player")
)
