package quiz

import (
	"database/sql"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"quizrally/internal/domain"
	"quizrally/internal/store"
)

// userQuestionShare is the probability of drawing from the stored bank when
// it is non-empty; the rest comes from the built-in fallback set.
const userQuestionShare = 0.5

// Bank is the default question source: stored questions from sqlite mixed
// with a built-in fallback set so a fresh install can always run a match.
type Bank struct {
	db     *store.DB // may be nil; fallback-only then
	logger *slog.Logger
}

// NewBank creates a question bank. db may be nil.
func NewBank(db *store.DB, logger *slog.Logger) *Bank {
	return &Bank{db: db, logger: logger}
}

// Question implements Source. The round index is accepted for interface
// symmetry; sampling is uniform across the bank.
func (b *Bank) Question(roundIndex int) (domain.Question, error) {
	if b.db != nil && rand.Float64() < userQuestionShare {
		if q, err := b.storedQuestion(); err == nil {
			return q, nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			b.logger.Warn("question bank read failed, using fallback", "error", err)
		}
	}
	return fallbackQuestion(), nil
}

func (b *Bank) storedQuestion() (domain.Question, error) {
	row, err := b.db.RandomQuestion()
	if err != nil {
		return domain.Question{}, err
	}
	return domain.Question{
		QID:        newQID("U"),
		Stem:       row.Stem,
		Choices:    row.Choices[:],
		CorrectIdx: row.CorrectIdx,
		Hint:       row.Hint,
		TimeLimit:  time.Duration(row.TimeLimitSec) * time.Second,
	}, nil
}

// newQID returns a fresh question identifier. Each draw gets its own qid so
// stale answers from a previous round can never match the open question.
func newQID(prefix string) string {
	return prefix + uuid.NewString()[:8]
}

// fallbackQuestions keep the game playable when the stored bank is empty.
var fallbackQuestions = []domain.Question{
	{Stem: "Which planet is known as the Red Planet?", Choices: []string{"Mars", "Venus", "Jupiter", "Mercury"}, CorrectIdx: 0},
	{Stem: "What is the largest ocean on Earth?", Choices: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, CorrectIdx: 2},
	{Stem: "How many sides does a hexagon have?", Choices: []string{"5", "6", "7", "8"}, CorrectIdx: 1},
	{Stem: "Which gas do plants absorb from the atmosphere?", Choices: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, CorrectIdx: 2},
	{Stem: "What is the capital of Japan?", Choices: []string{"Osaka", "Kyoto", "Sapporo", "Tokyo"}, CorrectIdx: 3, Hint: "It hosted the 2020 Olympics."},
	{Stem: "Which metal is liquid at room temperature?", Choices: []string{"Mercury", "Aluminium", "Copper", "Zinc"}, CorrectIdx: 0},
	{Stem: "How many minutes are in a full day?", Choices: []string{"1240", "1440", "1640", "1840"}, CorrectIdx: 1},
	{Stem: "Which instrument has 88 keys?", Choices: []string{"Organ", "Accordion", "Piano", "Harpsichord"}, CorrectIdx: 2},
	{Stem: "What is the tallest mountain on Earth?", Choices: []string{"K2", "Kilimanjaro", "Denali", "Everest"}, CorrectIdx: 3},
	{Stem: "Which color results from mixing blue and yellow paint?", Choices: []string{"Green", "Purple", "Orange", "Brown"}, CorrectIdx: 0},
}

func fallbackQuestion() domain.Question {
	q := fallbackQuestions[rand.Intn(len(fallbackQuestions))]
	q.QID = newQID("F")
	q.Choices = append([]string(nil), q.Choices...)
	return q
}
