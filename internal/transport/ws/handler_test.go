package ws

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizrally/internal/app"
	"quizrally/internal/config"
	"quizrally/internal/domain"
	"quizrally/internal/quiz"
)

const readTimeout = 2 * time.Second

type stubCatalog struct{}

func (stubCatalog) AllowedKeys(int64) map[string]bool {
	return map[string]bool{"marmot.png": true}
}

func newWSServer(t *testing.T) (*httptest.Server, *app.Hub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Game: config.GameConfig{
			RoundMax:         1,
			QuestionTime:     300 * time.Millisecond,
			PrestartSeconds:  1,
			PrestartTick:     5 * time.Millisecond,
			AnswerOpenDelay:  0,
			RevealPause:      5 * time.Millisecond,
			FirstCorrectPts:  2,
			CorrectPts:       1,
			AutoStartPlayers: 2,
			RoomCodeLength:   6,
		},
		Stamp: config.StampConfig{Cooldown: 0, MaxPerRound: 10},
		Match: config.MatchConfig{GroupSize: 4, GracePeriod: 10 * time.Second},
	}

	src := quiz.SourceFunc(func(roundIndex int) (domain.Question, error) {
		return domain.Question{QID: "Q1", Stem: "stem", Choices: []string{"a", "b", "c", "d"}, CorrectIdx: 1}, nil
	})
	hub := app.NewHub(cfg, src, stubCatalog{}, logger)
	t.Cleanup(hub.Close)
	queue := app.NewMatchQueue(hub, cfg.Match, logger)
	t.Cleanup(queue.Close)

	mux := http.NewServeMux()
	mux.Handle("GET /ws/quiz/{code}", NewHandler(hub, queue, logger))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/quiz/" + code
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil drains frames until one with the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	for {
		var frame map[string]interface{}
		require.NoError(t, conn.ReadJSON(&frame), "waiting for %q", wantType)
		if frame["type"] == wantType {
			return frame
		}
	}
}

func sendJSON(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func TestHandler_HelloJoinsRoom(t *testing.T) {
	srv, hub := newWSServer(t)
	conn := dial(t, srv, "abc123")

	sendJSON(t, conn, `{"type":"hello","user_id":1,"name":"alice"}`)

	join := readUntil(t, conn, "system")
	assert.Equal(t, "join", join["event"])
	assert.Equal(t, float64(1), join["user_id"])
	assert.Equal(t, "alice", join["name"])
	assert.Equal(t, float64(1), join["host_id"])

	// The path code is uppercased before the room lookup.
	_, err := hub.GetRoom("ABC123")
	assert.NoError(t, err)
}

func TestHandler_HelloDefaultName(t *testing.T) {
	srv, _ := newWSServer(t)
	conn := dial(t, srv, "DEF456")

	sendJSON(t, conn, `{"type":"hello","user_id":7}`)

	join := readUntil(t, conn, "system")
	assert.Equal(t, "User7", join["name"])
}

func TestHandler_FirstFrameMustBeHello(t *testing.T) {
	srv, _ := newWSServer(t)
	conn := dial(t, srv, "GHI789")

	sendJSON(t, conn, `{"type":"chat","msg":"hi"}`)

	// The connection is dropped after the rejected handshake; an error frame
	// may or may not make it out before the close.
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	for {
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		assert.Equal(t, "error", frame["type"])
	}
}

func TestHandler_MatchOverWebSocket(t *testing.T) {
	srv, _ := newWSServer(t)
	c1 := dial(t, srv, "JKL012")
	c2 := dial(t, srv, "JKL012")

	sendJSON(t, c1, `{"type":"hello","user_id":1,"name":"alice"}`)
	readUntil(t, c1, "system")
	sendJSON(t, c2, `{"type":"hello","user_id":2,"name":"bob"}`)
	readUntil(t, c2, "system")

	sendJSON(t, c1, `{"type":"start"}`)

	q := readUntil(t, c1, "q")
	assert.Equal(t, "Q1", q["qid"])
	readUntil(t, c2, "q")

	sendJSON(t, c1, `{"type":"answer","qid":"Q1","choice_idx":1}`)
	own := readUntil(t, c1, "answer_result")
	assert.Equal(t, true, own["correct"])

	peerView := readUntil(t, c2, "answer_result")
	_, leaked := peerView["correct"]
	assert.False(t, leaked, "correctness must not reach other players before reveal")

	sendJSON(t, c2, `{"type":"answer","qid":"Q1","choice_idx":0}`)
	reveal := readUntil(t, c2, "reveal")
	assert.Equal(t, float64(1), reveal["correct_idx"])

	finished := readUntil(t, c1, "game")
	assert.Equal(t, "finished", finished["event"])
	ranking := finished["ranking"].([]interface{})
	require.Len(t, ranking, 2)
	top := ranking[0].(map[string]interface{})
	assert.Equal(t, float64(1), top["user_id"])
	assert.Equal(t, float64(2), top["score"])
}

func TestHandler_StampRelayOverWebSocket(t *testing.T) {
	srv, _ := newWSServer(t)
	c1 := dial(t, srv, "MNO345")
	c2 := dial(t, srv, "MNO345")

	sendJSON(t, c1, `{"type":"hello","user_id":1,"name":"alice"}`)
	readUntil(t, c1, "system")
	sendJSON(t, c2, `{"type":"hello","user_id":2,"name":"bob"}`)
	readUntil(t, c2, "system")

	sendJSON(t, c1, `{"type":"stamp","key":"marmot.png"}`)

	relayed := readUntil(t, c2, "stamp")
	assert.Equal(t, "marmot.png", relayed["key"])
	assert.Equal(t, "alice", relayed["name"])
}

func TestHandler_ReconnectKeepsMembership(t *testing.T) {
	srv, _ := newWSServer(t)
	c1 := dial(t, srv, "STU901")
	sendJSON(t, c1, `{"type":"hello","user_id":1,"name":"alice"}`)
	readUntil(t, c1, "system")

	// Same identity on a second socket; the first is discarded server-side
	// and its close must not evict the player.
	c1b := dial(t, srv, "STU901")
	sendJSON(t, c1b, `{"type":"hello","user_id":1,"name":"alice"}`)
	readUntil(t, c1b, "system")

	sendJSON(t, c1b, `{"type":"chat","msg":"first"}`)
	time.Sleep(100 * time.Millisecond)
	sendJSON(t, c1b, `{"type":"chat","msg":"second"}`)

	chats := 0
	c1b.SetReadDeadline(time.Now().Add(readTimeout))
	for chats < 2 {
		var frame map[string]interface{}
		require.NoError(t, c1b.ReadJSON(&frame))
		if frame["type"] == "system" && frame["event"] == "leave" && frame["user_id"] == float64(1) {
			t.Fatal("reconnected player evicted by the stale socket close")
		}
		if frame["type"] == "chat" {
			chats++
		}
	}
}

func TestHandler_RejoinAfterRoomEmptied(t *testing.T) {
	srv, hub := newWSServer(t)
	c1 := dial(t, srv, "VWX234")
	sendJSON(t, c1, `{"type":"hello","user_id":1,"name":"alice"}`)
	readUntil(t, c1, "system")

	c1.Close()
	assert.Eventually(t, func() bool {
		return hub.RoomCount() == 0
	}, readTimeout, 10*time.Millisecond, "emptied room must leave the registry")

	// The same code works again for a fresh match.
	c2 := dial(t, srv, "VWX234")
	sendJSON(t, c2, `{"type":"hello","user_id":2,"name":"bob"}`)
	join := readUntil(t, c2, "system")
	assert.Equal(t, "join", join["event"])
	assert.Equal(t, float64(2), join["host_id"])
}

func TestHandler_DisconnectSynthesizesLeave(t *testing.T) {
	srv, _ := newWSServer(t)
	c1 := dial(t, srv, "PQR678")
	c2 := dial(t, srv, "PQR678")

	sendJSON(t, c1, `{"type":"hello","user_id":1,"name":"alice"}`)
	readUntil(t, c1, "system")
	sendJSON(t, c2, `{"type":"hello","user_id":2,"name":"bob"}`)
	readUntil(t, c2, "system")

	c2.Close()

	leave := readUntil(t, c1, "system")
	for leave["event"] != "leave" {
		leave = readUntil(t, c1, "system")
	}
	assert.Equal(t, float64(2), leave["user_id"])
}
