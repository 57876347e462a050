package app

import (
	"fmt"
	"time"

	"quizrally/internal/domain"
)

// fillBots tops a random-mode room up to the configured size with CPU
// players. Bot ids are negative so they never collide with real users, and
// bots never count toward auto-start, host selection or the all-answered
// completion check. Loop-owned.
func (r *Room) fillBots() {
	need := r.cfg.BotFillTarget - r.state.HumanCount()
	for i := 0; i < need; i++ {
		id := -(r.rng.Int63n(900000) + 100000)
		if _, err := r.state.GetPlayer(id); err == nil {
			i--
			continue
		}
		bot := domain.NewBot(id, fmt.Sprintf("CPU-%04d", -id%10000))
		r.state.AddPlayer(bot)
	}
	if need > 0 {
		r.logger.Info("bots added", "count", need)
	}
}

// scheduleBotAnswers queues one delayed answer per bot for the open round.
// Answers travel through the regular inbox, so a bot answering and a human
// answering are serialized identically.
func (r *Room) scheduleBotAnswers(round *domain.Round) {
	q := round.Question
	for _, p := range r.state.Players {
		if !p.IsBot {
			continue
		}

		idx := q.CorrectIdx
		if r.rng.Intn(100) >= r.cfg.BotCorrectPercent {
			idx = r.rng.Intn(len(q.Choices))
			if idx == q.CorrectIdx {
				idx = (idx + 1) % len(q.Choices)
			}
		}

		spread := r.cfg.BotMaxDelay - r.cfg.BotMinDelay
		delay := r.cfg.BotMinDelay
		if spread > 0 {
			delay += time.Duration(r.rng.Int63n(int64(spread)))
		}

		r.schedule(delay, botAnswerEvent{botID: p.ID, qid: q.QID, choiceIdx: idx})
	}
}
