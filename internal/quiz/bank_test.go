package quiz

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBank_FallbackWithoutDatabase(t *testing.T) {
	bank := NewBank(nil, discardLogger())

	q, err := bank.Question(1)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q.QID, "F"), "fallback questions carry the F prefix")
	assert.NotEmpty(t, q.Stem)
	require.Len(t, q.Choices, 4)
	assert.GreaterOrEqual(t, q.CorrectIdx, 0)
	assert.Less(t, q.CorrectIdx, len(q.Choices))
}

func TestBank_FreshQIDPerDraw(t *testing.T) {
	bank := NewBank(nil, discardLogger())

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		q, err := bank.Question(i + 1)
		require.NoError(t, err)
		assert.False(t, seen[q.QID], "qid %q reused", q.QID)
		seen[q.QID] = true
	}
}

func TestBank_FallbackChoicesAreCopies(t *testing.T) {
	bank := NewBank(nil, discardLogger())

	q, err := bank.Question(1)
	require.NoError(t, err)

	q.Choices[0] = "mutated"

	// The shared fallback set must not observe caller mutation.
	for _, fb := range fallbackQuestions {
		assert.NotContains(t, fb.Choices, "mutated")
	}
}
