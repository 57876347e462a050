package domain

import "time"

// Answer records a player's single submission for one round. Immutable once
// created; a second submission for the same round is rejected, not overwritten.
type Answer struct {
	PlayerID    int64     `json:"playerId"`
	RoundIndex  int       `json:"roundIndex"`
	ChoiceIdx   int       `json:"choiceIdx"`
	Correct     bool      `json:"correct"`
	SubmittedAt time.Time `json:"submittedAt"`
}
