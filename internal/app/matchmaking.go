package app

import (
	"log/slog"
	"sync"
	"time"

	"quizrally/internal/config"
	"quizrally/internal/domain"
)

const matchSweepInterval = 500 * time.Millisecond

type waiter struct {
	userID int64
	name   string
	since  time.Time
}

// MatchQueue pairs random players and hands the engine a ready room code.
// Rooms are assigned full groups when possible; after the grace period
// whoever is waiting gets matched anyway (bots fill the gap at match start).
type MatchQueue struct {
	mu      sync.Mutex
	waiting []waiter
	matched map[int64]string // userID -> assigned room code

	hub    *Hub
	cfg    config.MatchConfig
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewMatchQueue creates a matchmaking queue and starts the matcher.
func NewMatchQueue(hub *Hub, cfg config.MatchConfig, logger *slog.Logger) *MatchQueue {
	q := &MatchQueue{
		matched: make(map[int64]string),
		hub:     hub,
		cfg:     cfg,
		logger:  logger,
		done:    make(chan struct{}),
	}

	go q.run()

	return q
}

// Join enqueues a user. Joining again while waiting is a no-op; a previous
// match assignment is cleared so the user gets a fresh room.
func (q *MatchQueue) Join(userID int64, name string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.matched, userID)
	for _, w := range q.waiting {
		if w.userID == userID {
			return
		}
	}
	q.waiting = append(q.waiting, waiter{userID: userID, name: name, since: time.Now()})
}

// Cancel removes a user from the queue.
func (q *MatchQueue) Cancel(userID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.waiting[:0]
	for _, w := range q.waiting {
		if w.userID != userID {
			kept = append(kept, w)
		}
	}
	q.waiting = kept
}

// Poll returns the assigned room code, if any.
func (q *MatchQueue) Poll(userID int64) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	code, ok := q.matched[userID]
	return code, ok
}

// ClearFor drops a user's match assignment so their next queue run is fresh.
func (q *MatchQueue) ClearFor(userID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.matched, userID)
}

// WaitingCount returns the number of queued users.
func (q *MatchQueue) WaitingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// Close stops the matcher.
func (q *MatchQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

func (q *MatchQueue) run() {
	ticker := time.NewTicker(matchSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.done:
			return
		case <-ticker.C:
			q.matchReady()
		}
	}
}

// matchReady forms groups: a full group as soon as enough users wait, or a
// partial group once the oldest waiter has been queued past the grace period.
func (q *MatchQueue) matchReady() {
	for {
		group := q.takeGroup()
		if len(group) == 0 {
			return
		}

		room, err := q.hub.CreateRoom(domain.ModeRandom, 0)
		if err != nil {
			q.logger.Error("matchmaking room creation failed", "error", err)
			q.requeue(group)
			return
		}

		q.mu.Lock()
		for _, w := range group {
			q.matched[w.userID] = room.Code()
		}
		q.mu.Unlock()

		q.logger.Info("match formed", "roomCode", room.Code(), "players", len(group))
	}
}

func (q *MatchQueue) takeGroup() []waiter {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiting) >= q.cfg.GroupSize {
		group := q.waiting[:q.cfg.GroupSize]
		q.waiting = append([]waiter(nil), q.waiting[q.cfg.GroupSize:]...)
		return group
	}

	if len(q.waiting) >= 1 && time.Since(q.waiting[0].since) >= q.cfg.GracePeriod {
		group := q.waiting
		q.waiting = nil
		return group
	}

	return nil
}

func (q *MatchQueue) requeue(group []waiter) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waiting = append(group, q.waiting...)
}
