package quiz

import "quizrally/internal/domain"

// Source supplies question records to the engine, keyed by round index. The
// engine treats it as a pure call; implementations own their randomness and
// storage.
type Source interface {
	Question(roundIndex int) (domain.Question, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(roundIndex int) (domain.Question, error)

// Question implements Source.
func (f SourceFunc) Question(roundIndex int) (domain.Question, error) {
	return f(roundIndex)
}
