package domain

// Outbound wire messages. The protocol is flat JSON with a "type"
// discriminator; unknown types are ignored by both ends. Every connected
// player in a room observes these in the same order because they are emitted
// synchronously from the room control loop.

// Outbound message types
const (
	MsgSystem         = "system"
	MsgPrestart       = "prestart"
	MsgPrestartCancel = "prestart_cancel"
	MsgRoundBanner    = "round_banner"
	MsgGame           = "game"
	MsgQuestion       = "q"
	MsgAnswerResult   = "answer_result"
	MsgReveal         = "reveal"
	MsgStamp          = "stamp"
	MsgBuzz           = "buzz"
	MsgChat           = "chat"
	MsgError          = "error"
)

// Game message sub-events
const (
	GameEventStarted  = "started"
	GameEventFinished = "finished"
)

// SystemMsg announces membership changes.
type SystemMsg struct {
	Type     string       `json:"type"`
	Event    string       `json:"event"` // "join" or "leave"
	UserID   int64        `json:"user_id"`
	Name     string       `json:"name"`
	Members  []MemberInfo `json:"members"`
	HostID   int64        `json:"host_id"`
	IsRandom bool         `json:"is_random"`
}

// NewSystemMsg builds a system message for the given membership event.
func NewSystemMsg(event string, p *Player, r *Room) *SystemMsg {
	return &SystemMsg{
		Type:     MsgSystem,
		Event:    event,
		UserID:   p.ID,
		Name:     p.Name,
		Members:  r.Members(),
		HostID:   r.HostID,
		IsRandom: r.Mode == ModeRandom,
	}
}

// PrestartMsg is one tick of the server-driven countdown (5..1).
type PrestartMsg struct {
	Type    string `json:"type"`
	Seconds int    `json:"seconds"`
}

// NewPrestartMsg builds a countdown tick.
func NewPrestartMsg(seconds int) *PrestartMsg {
	return &PrestartMsg{Type: MsgPrestart, Seconds: seconds}
}

// PrestartCancelMsg aborts a running countdown.
type PrestartCancelMsg struct {
	Type string `json:"type"`
}

// NewPrestartCancelMsg builds a countdown abort notice.
func NewPrestartCancelMsg() *PrestartCancelMsg {
	return &PrestartCancelMsg{Type: MsgPrestartCancel}
}

// RoundBannerMsg precedes each question.
type RoundBannerMsg struct {
	Type    string `json:"type"`
	RoundNo int    `json:"round_no"`
}

// NewRoundBannerMsg builds a round banner.
func NewRoundBannerMsg(roundNo int) *RoundBannerMsg {
	return &RoundBannerMsg{Type: MsgRoundBanner, RoundNo: roundNo}
}

// GameStartedMsg announces the match start.
type GameStartedMsg struct {
	Type     string       `json:"type"`
	Event    string       `json:"event"`
	RoundMax int          `json:"round_max"`
	Members  []MemberInfo `json:"members"`
}

// NewGameStartedMsg builds the match start announcement.
func NewGameStartedMsg(r *Room) *GameStartedMsg {
	return &GameStartedMsg{
		Type:     MsgGame,
		Event:    GameEventStarted,
		RoundMax: r.RoundMax,
		Members:  r.Members(),
	}
}

// QuestionMsg publishes an open question. The correct index is never
// included; it only ever travels in RevealMsg.
type QuestionMsg struct {
	Type     string   `json:"type"`
	QID      string   `json:"qid"`
	RoundNo  int      `json:"round_no"`
	RoundMax int      `json:"round_max"`
	Stem     string   `json:"stem"`
	Choices  []string `json:"choices"`
	Hint     string   `json:"hint"`
}

// NewQuestionMsg builds the question broadcast for an open round.
func NewQuestionMsg(r *Room, round *Round) *QuestionMsg {
	return &QuestionMsg{
		Type:     MsgQuestion,
		QID:      round.Question.QID,
		RoundNo:  round.Index,
		RoundMax: r.RoundMax,
		Stem:     round.Question.Stem,
		Choices:  round.Question.Choices,
		Hint:     round.Question.Hint,
	}
}

// AnswerResultMsg reports an accepted answer. ChoiceIdx and Correct are set
// only on the copy sent to the submitter; the room-wide copy carries just the
// public scores. Correctness never reaches other players before reveal.
type AnswerResultMsg struct {
	Type      string       `json:"type"`
	UserID    int64        `json:"user_id"`
	Name      string       `json:"name"`
	QID       string       `json:"qid"`
	ChoiceIdx *int         `json:"choice_idx,omitempty"`
	Correct   *bool        `json:"correct,omitempty"`
	Scores    []MemberInfo `json:"scores"`
	Answered  int          `json:"answered"`
	Total     int          `json:"total"`
}

// Redacted returns the room-wide copy with the submitter's private fields
// withheld.
func (m *AnswerResultMsg) Redacted() *AnswerResultMsg {
	pub := *m
	pub.ChoiceIdx = nil
	pub.Correct = nil
	return &pub
}

// RevealMsg publishes the correct answer for a round.
type RevealMsg struct {
	Type       string `json:"type"`
	QID        string `json:"qid"`
	CorrectIdx int    `json:"correct_idx"`
}

// NewRevealMsg builds the reveal broadcast.
func NewRevealMsg(round *Round) *RevealMsg {
	return &RevealMsg{Type: MsgReveal, QID: round.Question.QID, CorrectIdx: round.Question.CorrectIdx}
}

// GameFinishedMsg carries the final ranking.
type GameFinishedMsg struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Ranking []RankEntry `json:"ranking"`
}

// NewGameFinishedMsg builds the final ranking broadcast.
func NewGameFinishedMsg(ranking []RankEntry) *GameFinishedMsg {
	return &GameFinishedMsg{Type: MsgGame, Event: GameEventFinished, Ranking: ranking}
}

// StampMsg relays a cosmetic reaction with sender identity attached.
type StampMsg struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Key    string `json:"key"`
}

// BuzzMsg relays a fastest-finger signal. Reserved extension point; it has
// no game-state effect in the current modes.
type BuzzMsg struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// ChatMsg relays a room chat line.
type ChatMsg struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Msg    string `json:"msg"`
}

// ErrorMsg reports a rejected action to the sender.
type ErrorMsg struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// NewErrorMsg builds an error message.
func NewErrorMsg(msg string) *ErrorMsg {
	return &ErrorMsg{Type: MsgError, Msg: msg}
}
