package domain

import "time"

// Player represents a player in a room. Identity is authenticated upstream;
// the engine trusts the id/name pair bound by the hello message.
type Player struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	IsGuest  bool      `json:"isGuest"`
	IsBot    bool      `json:"isBot"`
	JoinedAt time.Time `json:"joinedAt"`

	// joinSeq orders players by arrival; ranking ties keep this order.
	joinSeq int
}

// NewPlayer creates a new player with the given identity.
func NewPlayer(id int64, name string, isGuest bool) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		IsGuest:  isGuest,
		JoinedAt: time.Now(),
	}
}

// NewBot creates a CPU fill player. Bot ids are negative so they can never
// collide with authenticated user ids.
func NewBot(id int64, name string) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		IsBot:    true,
		JoinedAt: time.Now(),
	}
}

// MemberInfo is the public view of a player used in broadcasts.
type MemberInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
