package domain

import "sort"

// ScoreRule is the scoring policy: a stepped speed bonus. The first correct
// answer of a round earns FirstCorrect points, later correct answers earn
// Correct, wrong answers earn Wrong. Wrong must never be negative so scores
// are monotonically non-decreasing within a match.
type ScoreRule struct {
	FirstCorrect int
	Correct      int
	Wrong        int
}

// DefaultScoreRule returns the default scoring policy.
func DefaultScoreRule() ScoreRule {
	return ScoreRule{FirstCorrect: 2, Correct: 1, Wrong: 0}
}

// Points returns the score delta for an answer.
func (sr ScoreRule) Points(correct, first bool) int {
	switch {
	case correct && first:
		return sr.FirstCorrect
	case correct:
		return sr.Correct
	default:
		return sr.Wrong
	}
}

// Scoreboard maps players to cumulative scores within a match.
type Scoreboard struct {
	scores map[int64]int
}

// NewScoreboard creates an empty scoreboard.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{scores: make(map[int64]int)}
}

// Ensure makes sure the player has an entry (late joiners start at zero).
func (sb *Scoreboard) Ensure(playerID int64) {
	if _, ok := sb.scores[playerID]; !ok {
		sb.scores[playerID] = 0
	}
}

// Reset zeroes every entry; called when a new match starts in the room.
func (sb *Scoreboard) Reset() {
	for id := range sb.scores {
		sb.scores[id] = 0
	}
}

// Add applies a non-negative score delta.
func (sb *Scoreboard) Add(playerID int64, points int) {
	if points < 0 {
		return
	}
	sb.scores[playerID] += points
}

// Score returns the player's cumulative score.
func (sb *Scoreboard) Score(playerID int64) int {
	return sb.scores[playerID]
}

// RankEntry is one line of the final ranking.
type RankEntry struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// Rank sorts the given players by score descending. Equal scores keep the
// players' relative join order (stable sort, never re-randomized).
func (sb *Scoreboard) Rank(players []*Player) []RankEntry {
	ordered := make([]*Player, len(players))
	copy(ordered, players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].joinSeq < ordered[j].joinSeq
	})
	sort.SliceStable(ordered, func(i, j int) bool {
		return sb.Score(ordered[i].ID) > sb.Score(ordered[j].ID)
	})

	ranking := make([]RankEntry, 0, len(ordered))
	for _, p := range ordered {
		ranking = append(ranking, RankEntry{UserID: p.ID, Name: p.Name, Score: sb.Score(p.ID)})
	}
	return ranking
}
