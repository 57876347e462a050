package domain

import (
	"sort"
	"time"
)

// Room is the pure state of one match instance. It is exclusively owned and
// mutated by the room control loop in the app package; nothing here is safe
// for concurrent use on its own.
type Room struct {
	Code         string
	Mode         Mode
	HostID       int64 // 0 while no host is assigned
	Players      map[int64]*Player
	State        State
	RoundNo      int
	RoundMax     int
	Scoreboard   *Scoreboard
	CurrentRound *Round
	CreatedAt    time.Time

	// ChallengeLevel is a presentation-only overlay for challenge rooms; the
	// engine relays it on room creation and otherwise ignores it.
	ChallengeLevel int

	joinSeq int
}

// NewRoom creates a room in the lobby state.
func NewRoom(code string, mode Mode, roundMax int) *Room {
	return &Room{
		Code:       code,
		Mode:       mode,
		Players:    make(map[int64]*Player),
		State:      StateLobby,
		RoundMax:   roundMax,
		Scoreboard: NewScoreboard(),
		CreatedAt:  time.Now(),
	}
}

// AddPlayer adds a player, or refreshes their entry on reconnect. It returns
// true when the player was already a member. The first human to join a room
// that has not started becomes the host.
func (r *Room) AddPlayer(p *Player) bool {
	if existing, ok := r.Players[p.ID]; ok {
		existing.Name = p.Name
		return true
	}

	r.joinSeq++
	p.joinSeq = r.joinSeq
	r.Players[p.ID] = p
	r.Scoreboard.Ensure(p.ID)

	if r.HostID == 0 && !p.IsBot && r.State == StateLobby {
		r.HostID = p.ID
	}
	return false
}

// RemovePlayer removes a player. The host role is reassigned only while the
// room is still in the lobby; once the match is running there is no host.
func (r *Room) RemovePlayer(playerID int64) (*Player, error) {
	p, ok := r.Players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	delete(r.Players, playerID)

	if r.HostID == playerID {
		r.HostID = 0
		if r.State == StateLobby {
			for _, h := range r.humansByJoinOrder() {
				r.HostID = h.ID
				break
			}
		}
	}
	return p, nil
}

// GetPlayer returns a player by id.
func (r *Room) GetPlayer(playerID int64) (*Player, error) {
	p, ok := r.Players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// Humans returns the connected human players in join order.
func (r *Room) Humans() []*Player {
	return r.humansByJoinOrder()
}

// HumanCount returns the number of connected human players.
func (r *Room) HumanCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsBot {
			n++
		}
	}
	return n
}

// Members returns the public member list with current scores, in join order.
func (r *Room) Members() []MemberInfo {
	ordered := r.playersByJoinOrder()
	members := make([]MemberInfo, 0, len(ordered))
	for _, p := range ordered {
		members = append(members, MemberInfo{ID: p.ID, Name: p.Name, Score: r.Scoreboard.Score(p.ID)})
	}
	return members
}

// CanStart checks whether the given player may trigger the match start.
func (r *Room) CanStart(playerID int64) error {
	if r.State == StateFinished {
		return ErrRoomFinished
	}
	if r.State != StateLobby {
		return ErrAlreadyStarted
	}
	if !r.Mode.HostStarted() {
		return ErrAutoStartOnly
	}
	if playerID != r.HostID {
		return ErrNotHost
	}
	return nil
}

// BeginCountdown moves the room into the prestart countdown. Starting is a
// one-time transition: from here on there is no host concept.
func (r *Room) BeginCountdown() error {
	if !r.State.CanTransitionTo(StateCountdown) {
		return ErrInvalidTransition
	}
	r.State = StateCountdown
	r.RoundNo = 0
	r.Scoreboard.Reset()
	return nil
}

// OpenRound opens the next round with the given question. limit must already
// account for any per-question time limit override.
func (r *Room) OpenRound(q Question, now time.Time, limit, openDelay time.Duration) (*Round, error) {
	if !r.State.CanTransitionTo(StateQuestionOpen) {
		return nil, ErrInvalidTransition
	}
	r.State = StateQuestionOpen
	r.RoundNo++
	r.CurrentRound = NewRound(r.RoundNo, q, now, limit, openDelay)
	return r.CurrentRound, nil
}

// Reveal closes the open round and publishes the correct answer.
func (r *Room) Reveal() error {
	if !r.State.CanTransitionTo(StateReveal) {
		return ErrInvalidTransition
	}
	if r.CurrentRound == nil {
		return ErrNoOpenRound
	}
	r.State = StateReveal
	r.CurrentRound.Revealed = true
	return nil
}

// Finish ends the match. The round is discarded; the room accepts no
// further start (a rematch requires a new room).
func (r *Room) Finish() error {
	if !r.State.CanTransitionTo(StateFinished) {
		return ErrInvalidTransition
	}
	r.State = StateFinished
	r.CurrentRound = nil
	return nil
}

// LastRound reports whether the open round is the final one.
func (r *Room) LastRound() bool {
	return r.RoundNo >= r.RoundMax
}

// AllAnswered reports whether every connected human player has an answer for
// the open round. Bots never gate the early reveal; a round with zero humans
// is treated as answered so it can be finalized immediately.
func (r *Room) AllAnswered() bool {
	if r.CurrentRound == nil {
		return false
	}
	for _, p := range r.Players {
		if p.IsBot {
			continue
		}
		if !r.CurrentRound.HasAnswered(p.ID) {
			return false
		}
	}
	return true
}

// Ranking returns the final standings for every current member.
func (r *Room) Ranking() []RankEntry {
	return r.Scoreboard.Rank(r.playersByJoinOrder())
}

func (r *Room) playersByJoinOrder() []*Player {
	ordered := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].joinSeq < ordered[j].joinSeq
	})
	return ordered
}

func (r *Room) humansByJoinOrder() []*Player {
	humans := make([]*Player, 0, len(r.Players))
	for _, p := range r.playersByJoinOrder() {
		if !p.IsBot {
			humans = append(humans, p)
		}
	}
	return humans
}
