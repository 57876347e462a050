package ws

import "encoding/json"

// Inbound message types (client → engine). The envelope is flat JSON with a
// "type" discriminator; unknown types are ignored.
const (
	MsgHello  = "hello"
	MsgStart  = "start"
	MsgAnswer = "answer"
	MsgStamp  = "stamp"
	MsgBuzz   = "buzz"
	MsgChat   = "chat"
)

// probe extracts the discriminator before the full decode.
type probe struct {
	Type string `json:"type"`
}

// HelloMsg binds the connection to a player identity. Must be the first
// message on the socket; identity is authenticated upstream.
type HelloMsg struct {
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	IsGuest bool   `json:"is_guest"`
}

// AnswerMsg submits a choice for the open question.
type AnswerMsg struct {
	QID       string `json:"qid"`
	ChoiceIdx int    `json:"choice_idx"`
}

// StampMsg requests a cosmetic reaction relay.
type StampMsg struct {
	Key string `json:"key"`
}

// ChatMsg sends a room chat line.
type ChatMsg struct {
	Msg string `json:"msg"`
}

// messageType returns the discriminator of a raw frame.
func messageType(data []byte) (string, error) {
	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return "", err
	}
	return p.Type, nil
}
