package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuestion() Question {
	return Question{
		QID:        "Q1",
		Stem:       "stem",
		Choices:    []string{"a", "b", "c", "d"},
		CorrectIdx: 0,
	}
}

func TestRound_JudgeAccepts(t *testing.T) {
	now := time.Now()
	r := NewRound(1, testQuestion(), now, 12*time.Second, 0)

	ans, first, err := r.Judge(1, "Q1", 0, now.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, ans.Correct)
	assert.True(t, first)

	ans2, first2, err := r.Judge(2, "Q1", 0, now.Add(2*time.Second))
	require.NoError(t, err)
	assert.True(t, ans2.Correct)
	assert.False(t, first2, "only the first correct answer gets the bonus")

	ans3, _, err := r.Judge(3, "Q1", 2, now.Add(3*time.Second))
	require.NoError(t, err)
	assert.False(t, ans3.Correct)
}

func TestRound_JudgeDuplicateRejected(t *testing.T) {
	now := time.Now()
	r := NewRound(1, testQuestion(), now, 12*time.Second, 0)

	_, _, err := r.Judge(1, "Q1", 3, now.Add(time.Second))
	require.NoError(t, err)

	// The second submission is rejected, not overwritten.
	_, _, err = r.Judge(1, "Q1", 0, now.Add(2*time.Second))
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, 3, r.Answers[1].ChoiceIdx)
	assert.False(t, r.Answers[1].Correct)
}

func TestRound_JudgeRejections(t *testing.T) {
	now := time.Now()
	r := NewRound(1, testQuestion(), now, 12*time.Second, 800*time.Millisecond)

	tests := []struct {
		name      string
		qid       string
		choiceIdx int
		at        time.Time
		wantErr   error
	}{
		{"wrong qid", "OTHER", 0, now.Add(time.Second), ErrWrongQuestion},
		{"too early", "Q1", 0, now.Add(100 * time.Millisecond), ErrAnswerTooEarly},
		{"past deadline", "Q1", 0, now.Add(13 * time.Second), ErrDeadlinePassed},
		{"choice too high", "Q1", 4, now.Add(time.Second), ErrChoiceOutOfRange},
		{"choice negative", "Q1", -1, now.Add(time.Second), ErrChoiceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.Judge(9, tt.qid, tt.choiceIdx, tt.at)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, r.Answers)
		})
	}
}

func TestRound_JudgeAfterReveal(t *testing.T) {
	now := time.Now()
	r := NewRound(1, testQuestion(), now, 12*time.Second, 0)
	r.Revealed = true

	_, _, err := r.Judge(1, "Q1", 0, now.Add(time.Second))
	assert.ErrorIs(t, err, ErrNoOpenRound)
}

func TestRound_DeadlineNeverExtended(t *testing.T) {
	now := time.Now()
	r := NewRound(3, testQuestion(), now, 12*time.Second, 0)

	assert.True(t, r.OpenedAt.Before(r.Deadline))
	assert.Equal(t, 12*time.Second, r.Deadline.Sub(r.OpenedAt))
}
