package app

import (
	"log/slog"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"quizrally/internal/config"
	"quizrally/internal/domain"
	"quizrally/internal/quiz"
	"quizrally/internal/stamp"
)

const (
	// Size of the room event inbox. Events beyond this are dropped rather
	// than blocking the submitter.
	inboxSize = 256

	maxChatLen = 200
)

// ClientConn is the room's view of one player's connection.
type ClientConn interface {
	Send(message interface{}) error
	Close() error
}

// RoomInfo is a read-only snapshot for code outside the control loop.
type RoomInfo struct {
	Code           string
	Mode           domain.Mode
	State          domain.State
	Players        int
	Humans         int
	RoundNo        int
	RoundMax       int
	ChallengeLevel int
	CreatedAt      time.Time
}

// Room runs one match instance. All state mutation happens on the control
// loop goroutine, which consumes the inbox one event at a time; no other
// goroutine reads or writes room state directly.
type Room struct {
	state    *domain.Room
	cfg      config.GameConfig
	stampCfg config.StampConfig
	rule     domain.ScoreRule

	questions quiz.Source
	stamps    stamp.Catalog
	logger    *slog.Logger

	inbox  chan event
	done   chan struct{}
	closed atomic.Bool
	info   atomic.Value // RoomInfo

	// onIdle tells the registry the room can be removed. Called at most once,
	// from the loop goroutine, after the loop has stopped processing.
	onIdle func(code string)

	// Everything below is loop-owned.
	clients     map[int64]ClientConn
	lastStampAt map[int64]time.Time
	stampCount  map[int64]int
	timerSeq    int
	rng         *rand.Rand
}

// NewRoom creates a room and starts its control loop.
func NewRoom(state *domain.Room, cfg config.GameConfig, stampCfg config.StampConfig,
	questions quiz.Source, stamps stamp.Catalog, logger *slog.Logger, onIdle func(code string)) *Room {

	r := &Room{
		state:     state,
		cfg:       cfg,
		stampCfg:  stampCfg,
		rule:      domain.ScoreRule{FirstCorrect: cfg.FirstCorrectPts, Correct: cfg.CorrectPts},
		questions: questions,
		stamps:    stamps,
		logger:    logger.With("roomCode", state.Code),
		inbox:     make(chan event, inboxSize),
		done:      make(chan struct{}),
		onIdle:    onIdle,
		clients:   make(map[int64]ClientConn),

		lastStampAt: make(map[int64]time.Time),
		stampCount:  make(map[int64]int),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	r.publishInfo()

	go r.run()

	return r
}

// Code returns the room code.
func (r *Room) Code() string {
	return r.state.Code
}

// Info returns the latest state snapshot.
func (r *Room) Info() RoomInfo {
	return r.info.Load().(RoomInfo)
}

// Join queues a join for the player. It reports whether the room accepted
// the event; a room whose loop has stopped refuses further joins, and the
// caller must resolve a fresh room through the registry.
func (r *Room) Join(player *domain.Player, conn ClientConn) bool {
	return r.post(joinEvent{player: player, conn: conn})
}

// Leave queues a leave for the player. conn identifies the connection the
// leave came from; a leave from a connection that has since been replaced by
// a reconnect is ignored. nil matches any connection.
func (r *Room) Leave(playerID int64, conn ClientConn) {
	r.post(leaveEvent{playerID: playerID, conn: conn})
}

// Start queues a host start request.
func (r *Room) Start(playerID int64) {
	r.post(startEvent{playerID: playerID})
}

// Answer queues an answer submission, stamped with its arrival time.
func (r *Room) Answer(playerID int64, qid string, choiceIdx int) {
	r.post(answerEvent{playerID: playerID, qid: qid, choiceIdx: choiceIdx, at: time.Now()})
}

// Stamp queues a stamp relay request.
func (r *Room) Stamp(playerID int64, key string) {
	r.post(stampEvent{playerID: playerID, key: key})
}

// Buzz queues a buzz relay request.
func (r *Room) Buzz(playerID int64) {
	r.post(buzzEvent{playerID: playerID})
}

// Chat queues a chat relay request.
func (r *Room) Chat(playerID int64, msg string) {
	r.post(chatEvent{playerID: playerID, msg: msg})
}

// Close stops the control loop and disconnects every client.
func (r *Room) Close() {
	if r.closed.CompareAndSwap(false, true) {
		close(r.done)
	}
}

func (r *Room) post(ev event) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- ev:
		return true
	case <-r.done:
		return false
	default:
		r.logger.Warn("room inbox full, event dropped", "event", eventName(ev))
		return false
	}
}

// schedule arranges for ev to enter the inbox after d. Timers never touch
// room state themselves.
func (r *Room) schedule(d time.Duration, ev event) {
	time.AfterFunc(d, func() {
		r.post(ev)
	})
}

// run is the control loop: the single serialization point for this room.
// A panic while handling an event tears down this room only.
func (r *Room) run() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("room loop panic, tearing down room", "panic", rec)
		}
		r.teardown()
	}()

	for {
		select {
		case <-r.done:
			return
		case ev := <-r.inbox:
			r.handle(ev)
			r.publishInfo()
			if len(r.clients) == 0 && r.state.State != domain.StateQuestionOpen {
				// Refuse further posts before the loop stops reading, so a
				// late Join fails fast instead of landing in a dead inbox.
				r.Close()
				return
			}
		}
	}
}

func (r *Room) teardown() {
	r.Close()
	for id, conn := range r.clients {
		conn.Close()
		delete(r.clients, id)
	}
	if r.onIdle != nil {
		r.onIdle(r.state.Code)
	}
}

func (r *Room) publishInfo() {
	r.info.Store(RoomInfo{
		Code:           r.state.Code,
		Mode:           r.state.Mode,
		State:          r.state.State,
		Players:        len(r.state.Players),
		Humans:         r.state.HumanCount(),
		RoundNo:        r.state.RoundNo,
		RoundMax:       r.state.RoundMax,
		ChallengeLevel: r.state.ChallengeLevel,
		CreatedAt:      r.state.CreatedAt,
	})
}

func (r *Room) handle(ev event) {
	switch e := ev.(type) {
	case joinEvent:
		r.handleJoin(e)
	case leaveEvent:
		r.handleLeave(e)
	case startEvent:
		r.handleStart(e.playerID)
	case answerEvent:
		r.handleAnswer(e.playerID, e.qid, e.choiceIdx, e.at)
	case stampEvent:
		r.handleStamp(e.playerID, e.key)
	case buzzEvent:
		r.handleBuzz(e.playerID)
	case chatEvent:
		r.handleChat(e.playerID, e.msg)
	case prestartTickEvent:
		r.handlePrestartTick(e)
	case deadlineEvent:
		r.handleDeadline(e.qid)
	case revealDoneEvent:
		r.handleRevealDone(e.roundNo)
	case botAnswerEvent:
		r.handleAnswer(e.botID, e.qid, e.choiceIdx, time.Now())
	default:
		r.logger.Debug("unknown room event dropped")
	}
}

// ---- membership ----

func (r *Room) handleJoin(e joinEvent) {
	rejoined := r.state.AddPlayer(e.player)

	if old, ok := r.clients[e.player.ID]; ok && old != e.conn {
		// Reconnect: the previous connection is discarded, score untouched.
		old.Close()
	}
	r.clients[e.player.ID] = e.conn

	r.broadcast(domain.NewSystemMsg("join", e.player, r.state))

	r.logger.Info("player joined",
		"userID", e.player.ID,
		"name", e.player.Name,
		"rejoined", rejoined,
	)

	r.maybeAutoStart()
}

func (r *Room) handleLeave(e leaveEvent) {
	if conn, ok := r.clients[e.playerID]; ok {
		if e.conn != nil && conn != e.conn {
			// The close of a socket that a reconnect already replaced; the
			// player stays.
			return
		}
		conn.Close()
		delete(r.clients, e.playerID)
	}

	p, err := r.state.RemovePlayer(e.playerID)
	if err != nil {
		return
	}

	r.broadcast(domain.NewSystemMsg("leave", p, r.state))
	r.logger.Info("player left", "userID", e.playerID)

	switch r.state.State {
	case domain.StateCountdown:
		// Leaving never cancels a running countdown, but a room that empties
		// out entirely has nothing left to start.
		if len(r.clients) == 0 {
			r.broadcast(domain.NewPrestartCancelMsg())
		}
	case domain.StateQuestionOpen:
		if len(r.clients) == 0 {
			// Mid-round empty room: finalize the open round immediately
			// instead of waiting out the deadline, then let the loop exit.
			r.reveal()
			r.finish()
			return
		}
		// The leaver may have been the last holdout of the completion check.
		if r.state.AllAnswered() && len(r.state.CurrentRound.Answers) > 0 {
			r.reveal()
		}
	}
}

// ---- match start ----

func (r *Room) handleStart(playerID int64) {
	if err := r.state.CanStart(playerID); err != nil {
		r.sendTo(playerID, domain.NewErrorMsg(err.Error()))
		return
	}
	r.beginCountdown()
}

// maybeAutoStart begins the countdown for matchmaking-assigned rooms once
// enough humans are present.
func (r *Room) maybeAutoStart() {
	if r.state.Mode != domain.ModeRandom || r.state.State != domain.StateLobby {
		return
	}
	if r.state.HumanCount() >= r.cfg.AutoStartPlayers {
		r.beginCountdown()
	}
}

func (r *Room) beginCountdown() {
	if err := r.state.BeginCountdown(); err != nil {
		r.logger.Warn("countdown rejected", "error", err)
		return
	}

	r.timerSeq++
	r.broadcast(domain.NewPrestartMsg(r.cfg.PrestartSeconds))
	r.schedule(r.cfg.PrestartTick, prestartTickEvent{seq: r.timerSeq, remaining: r.cfg.PrestartSeconds - 1})
	r.logger.Info("countdown started", "seconds", r.cfg.PrestartSeconds)
}

func (r *Room) handlePrestartTick(e prestartTickEvent) {
	if r.state.State != domain.StateCountdown || e.seq != r.timerSeq {
		return
	}

	if e.remaining >= 1 {
		r.broadcast(domain.NewPrestartMsg(e.remaining))
		r.schedule(r.cfg.PrestartTick, prestartTickEvent{seq: e.seq, remaining: e.remaining - 1})
		return
	}

	r.startMatch()
}

func (r *Room) startMatch() {
	if r.state.Mode == domain.ModeRandom {
		r.fillBots()
	}

	r.broadcast(domain.NewGameStartedMsg(r.state))
	r.logger.Info("match started", "players", len(r.state.Players), "roundMax", r.state.RoundMax)
	r.openNextRound()
}

// ---- rounds ----

func (r *Room) openNextRound() {
	q, err := r.questions.Question(r.state.RoundNo + 1)
	if err != nil {
		r.logger.Error("question source failed, finishing match", "error", err)
		r.finish()
		return
	}

	limit := r.cfg.QuestionTime
	if q.TimeLimit > 0 {
		limit = q.TimeLimit
	}

	round, err := r.state.OpenRound(q, time.Now(), limit, r.cfg.AnswerOpenDelay)
	if err != nil {
		r.logger.Error("failed to open round", "error", err)
		return
	}

	// Per-round stamp budget resets with each question.
	r.stampCount = make(map[int64]int)

	r.broadcast(domain.NewRoundBannerMsg(round.Index))
	r.broadcast(domain.NewQuestionMsg(r.state, round))
	r.schedule(limit, deadlineEvent{qid: q.QID})
	r.scheduleBotAnswers(round)

	r.logger.Info("round opened", "round", round.Index, "qid", q.QID, "limit", limit)
}

func (r *Room) handleDeadline(qid string) {
	round := r.state.CurrentRound
	if r.state.State != domain.StateQuestionOpen || round == nil || round.Question.QID != qid {
		// Stale timer: the round already resolved through the all-answered path.
		return
	}
	r.reveal()
}

func (r *Room) handleAnswer(playerID int64, qid string, choiceIdx int, at time.Time) {
	round := r.state.CurrentRound
	if r.state.State != domain.StateQuestionOpen || round == nil {
		return
	}

	player, err := r.state.GetPlayer(playerID)
	if err != nil {
		return
	}

	ans, first, err := round.Judge(playerID, qid, choiceIdx, at)
	if err != nil {
		// Duplicate, out-of-range, stale-qid and out-of-window submissions
		// never change authoritative state; the submitter is not notified.
		r.logger.Debug("answer rejected", "userID", playerID, "error", err)
		return
	}

	r.state.Scoreboard.Add(playerID, r.rule.Points(ans.Correct, first))

	result := &domain.AnswerResultMsg{
		Type:      domain.MsgAnswerResult,
		UserID:    playerID,
		Name:      player.Name,
		QID:       qid,
		ChoiceIdx: &ans.ChoiceIdx,
		Correct:   &ans.Correct,
		Scores:    r.state.Members(),
		Answered:  len(round.Answers),
		Total:     len(r.state.Players),
	}
	r.sendTo(playerID, result)
	r.broadcastExcept(playerID, result.Redacted())

	if r.state.AllAnswered() {
		r.reveal()
	}
}

// reveal closes the open round and schedules the advance to the next one.
// Entering reveal through this single path is what cancels the deadline
// timer: the stale qid check in handleDeadline makes the fired event a no-op.
func (r *Room) reveal() {
	round := r.state.CurrentRound
	if err := r.state.Reveal(); err != nil {
		r.logger.Warn("reveal rejected", "error", err)
		return
	}

	r.broadcast(domain.NewRevealMsg(round))
	r.schedule(r.cfg.RevealPause, revealDoneEvent{roundNo: round.Index})
	r.logger.Info("round revealed", "round", round.Index, "answers", len(round.Answers))
}

func (r *Room) handleRevealDone(roundNo int) {
	if r.state.State != domain.StateReveal || r.state.RoundNo != roundNo {
		return
	}
	if r.state.LastRound() {
		r.finish()
		return
	}
	r.openNextRound()
}

func (r *Room) finish() {
	if err := r.state.Finish(); err != nil {
		r.logger.Warn("finish rejected", "error", err)
		return
	}
	ranking := r.state.Ranking()
	r.broadcast(domain.NewGameFinishedMsg(ranking))
	r.logger.Info("match finished", "players", len(ranking))
}

// ---- relays ----

func (r *Room) handleStamp(playerID int64, key string) {
	player, err := r.state.GetPlayer(playerID)
	if err != nil {
		return
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return
	}

	if allowed := r.stamps.AllowedKeys(playerID); !allowed[key] {
		r.sendTo(playerID, domain.NewErrorMsg(domain.ErrStampNotAllowed.Error()))
		return
	}

	now := time.Now()
	if now.Sub(r.lastStampAt[playerID]) < r.stampCfg.Cooldown {
		return
	}
	if r.stampCount[playerID] >= r.stampCfg.MaxPerRound {
		return
	}
	r.lastStampAt[playerID] = now
	r.stampCount[playerID]++

	// Ephemeral: relayed and discarded, never stored.
	r.broadcast(&domain.StampMsg{
		Type:   domain.MsgStamp,
		UserID: playerID,
		Name:   player.Name,
		Key:    key,
	})
}

func (r *Room) handleBuzz(playerID int64) {
	player, err := r.state.GetPlayer(playerID)
	if err != nil {
		return
	}
	r.broadcast(&domain.BuzzMsg{Type: domain.MsgBuzz, UserID: playerID, Name: player.Name})
}

func (r *Room) handleChat(playerID int64, msg string) {
	player, err := r.state.GetPlayer(playerID)
	if err != nil {
		return
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if len(msg) > maxChatLen {
		msg = msg[:maxChatLen]
	}
	r.broadcast(&domain.ChatMsg{Type: domain.MsgChat, UserID: playerID, Name: player.Name, Msg: msg})
}

// ---- delivery ----

// broadcast sends to every connected member in join order. A peer that
// cannot accept the message is dropped rather than stalling the room.
func (r *Room) broadcast(msg interface{}) {
	r.broadcastExcept(0, msg)
}

func (r *Room) broadcastExcept(skipID int64, msg interface{}) {
	var dead []int64
	for _, p := range r.state.Humans() {
		if p.ID == skipID {
			continue
		}
		conn, ok := r.clients[p.ID]
		if !ok {
			continue
		}
		if err := conn.Send(msg); err != nil {
			r.logger.Warn("send failed, dropping peer", "userID", p.ID, "error", err)
			dead = append(dead, p.ID)
		}
	}

	for _, id := range dead {
		r.dropPeer(id)
	}
}

func (r *Room) sendTo(playerID int64, msg interface{}) {
	conn, ok := r.clients[playerID]
	if !ok {
		return
	}
	if err := conn.Send(msg); err != nil {
		r.logger.Warn("send failed, dropping peer", "userID", playerID, "error", err)
		r.dropPeer(playerID)
	}
}

// dropPeer evicts a peer that failed delivery and tells the remaining
// players, so their member list never goes silently stale.
func (r *Room) dropPeer(id int64) {
	if conn, ok := r.clients[id]; ok {
		conn.Close()
		delete(r.clients, id)
	}
	if p, err := r.state.RemovePlayer(id); err == nil {
		r.broadcast(domain.NewSystemMsg("leave", p, r.state))
	}
}

func eventName(ev event) string {
	switch ev.(type) {
	case joinEvent:
		return "join"
	case leaveEvent:
		return "leave"
	case startEvent:
		return "start"
	case answerEvent:
		return "answer"
	case stampEvent:
		return "stamp"
	case buzzEvent:
		return "buzz"
	case chatEvent:
		return "chat"
	case prestartTickEvent:
		return "prestart_tick"
	case deadlineEvent:
		return "deadline"
	case revealDoneEvent:
		return "reveal_done"
	case botAnswerEvent:
		return "bot_answer"
	default:
		return "unknown"
	}
}
