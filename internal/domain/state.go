package domain

// State represents the current state of a room's match.
type State string

const (
	StateLobby        State = "LOBBY"         // Waiting for players to join
	StateCountdown    State = "COUNTDOWN"     // Prestart countdown running
	StateQuestionOpen State = "QUESTION_OPEN" // A question is open for answers
	StateReveal       State = "REVEAL"        // Correct answer published
	StateFinished     State = "FINISHED"      // Terminal for this match instance
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition from the current state to the target is valid.
func (s State) CanTransitionTo(target State) bool {
	validTransitions := map[State][]State{
		StateLobby:        {StateCountdown},
		StateCountdown:    {StateQuestionOpen, StateFinished},
		StateQuestionOpen: {StateReveal},
		StateReveal:       {StateQuestionOpen, StateFinished},
	}

	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == target {
			return true
		}
	}
	return false
}
