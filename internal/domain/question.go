package domain

import "time"

// Question is an opaque record supplied by the question source.
type Question struct {
	QID        string        `json:"qid"`
	Stem       string        `json:"stem"`
	Choices    []string      `json:"choices"`
	CorrectIdx int           `json:"correctIdx"`
	Hint       string        `json:"hint,omitempty"`
	TimeLimit  time.Duration `json:"timeLimit,omitempty"` // 0 means the room default applies
}
