package domain

import "time"

// Round is one question's open-answer-reveal cycle. Exactly one round is open
// at a time per room; it is discarded after reveal.
type Round struct {
	Index    int       `json:"index"`
	Question Question  `json:"question"`
	OpenedAt time.Time `json:"openedAt"`
	Deadline time.Time `json:"deadline"`

	// AnswerOpenAt guards against taps left over from the previous round:
	// submissions before this instant are rejected.
	AnswerOpenAt time.Time `json:"answerOpenAt"`

	Answers      map[int64]*Answer `json:"answers"`
	FirstCorrect int64             `json:"firstCorrect"` // 0 until someone answers correctly
	Revealed     bool              `json:"revealed"`
}

// NewRound opens a round at now. The deadline is set exactly once and never
// extended; limit must already account for any per-question override.
func NewRound(index int, q Question, now time.Time, limit, openDelay time.Duration) *Round {
	return &Round{
		Index:        index,
		Question:     q,
		OpenedAt:     now,
		Deadline:     now.Add(limit),
		AnswerOpenAt: now.Add(openDelay),
		Answers:      make(map[int64]*Answer),
	}
}

// Judge validates and records a submission. It returns the recorded answer
// and whether this was the first correct answer of the round. Rejections
// leave the round untouched.
func (r *Round) Judge(playerID int64, qid string, choiceIdx int, at time.Time) (*Answer, bool, error) {
	if r.Revealed {
		return nil, false, ErrNoOpenRound
	}
	if qid != r.Question.QID {
		return nil, false, ErrWrongQuestion
	}
	if at.Before(r.AnswerOpenAt) {
		return nil, false, ErrAnswerTooEarly
	}
	if at.After(r.Deadline) {
		return nil, false, ErrDeadlinePassed
	}
	if _, dup := r.Answers[playerID]; dup {
		return nil, false, ErrAlreadyAnswered
	}
	if choiceIdx < 0 || choiceIdx >= len(r.Question.Choices) {
		return nil, false, ErrChoiceOutOfRange
	}

	ans := &Answer{
		PlayerID:    playerID,
		RoundIndex:  r.Index,
		ChoiceIdx:   choiceIdx,
		Correct:     choiceIdx == r.Question.CorrectIdx,
		SubmittedAt: at,
	}
	r.Answers[playerID] = ans

	first := false
	if ans.Correct && r.FirstCorrect == 0 {
		r.FirstCorrect = playerID
		first = true
	}

	return ans, first, nil
}

// HasAnswered reports whether the player already has an answer this round.
func (r *Round) HasAnswered(playerID int64) bool {
	_, ok := r.Answers[playerID]
	return ok
}
