package domain

// Mode describes how a room was created and who may start it.
type Mode string

const (
	// ModeFriend rooms are opened by invite; the host starts the match.
	ModeFriend Mode = "friend"
	// ModeRandom rooms are assigned by matchmaking and start automatically.
	ModeRandom Mode = "random"
	// ModeChallenge rooms behave like friend rooms with a difficulty overlay.
	ModeChallenge Mode = "challenge"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// HostStarted reports whether the match is started by an explicit host action.
func (m Mode) HostStarted() bool {
	return m != ModeRandom
}
