package app

import (
	"time"

	"quizrally/internal/domain"
)

// event is anything processed by a room's control loop: inbound client
// actions and fired timers alike. Feeding timers through the same queue is
// what makes a deadline firing and a last-moment answer resolve in one
// deterministic order.
type event interface {
	isEvent()
}

// joinEvent binds a player (and their connection) to the room. A rejoin for
// an id that is already a member replaces the connection reference.
type joinEvent struct {
	player *domain.Player
	conn   ClientConn
}

// leaveEvent detaches a player; synthesized on socket close as well. conn
// identifies which connection the leave came from, so the close of a socket
// that was already replaced by a reconnect cannot evict the player. A nil
// conn matches any connection.
type leaveEvent struct {
	playerID int64
	conn     ClientConn
}

// startEvent is the host's request to begin the countdown.
type startEvent struct {
	playerID int64
}

// answerEvent is a submission for the open question. at is the arrival time;
// it is judged against the round deadline by the loop, in arrival order.
type answerEvent struct {
	playerID  int64
	qid       string
	choiceIdx int
	at        time.Time
}

// stampEvent is a cosmetic reaction relay request.
type stampEvent struct {
	playerID int64
	key      string
}

// buzzEvent is the reserved fastest-finger signal.
type buzzEvent struct {
	playerID int64
}

// chatEvent is a room chat line.
type chatEvent struct {
	playerID int64
	msg      string
}

// prestartTickEvent fires once per countdown second. seq guards against
// ticks left over from an abandoned countdown.
type prestartTickEvent struct {
	seq       int
	remaining int
}

// deadlineEvent fires when a round's answer window elapses. qid guards
// against timers from rounds that already resolved through the all-answered
// path.
type deadlineEvent struct {
	qid string
}

// revealDoneEvent fires after the reveal pause to advance the match.
type revealDoneEvent struct {
	roundNo int
}

// botAnswerEvent delivers a scheduled CPU answer through the regular
// answer path.
type botAnswerEvent struct {
	botID     int64
	qid       string
	choiceIdx int
}

func (joinEvent) isEvent()         {}
func (leaveEvent) isEvent()        {}
func (startEvent) isEvent()        {}
func (answerEvent) isEvent()       {}
func (stampEvent) isEvent()        {}
func (buzzEvent) isEvent()         {}
func (chatEvent) isEvent()         {}
func (prestartTickEvent) isEvent() {}
func (deadlineEvent) isEvent()     {}
func (revealDoneEvent) isEvent()   {}
func (botAnswerEvent) isEvent()    {}
