package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

func mustEntry(t *testing.T, id shared.ParticipantID, score shared.Score, enrolled time.Time) *Entry {
	t.Helper()
	entry, err := NewEntry(id, "Participant "+string(id), score, enrolled)
	require.NoError(t, err)
	return entry
}

func enrollDay(n int) time.Time {
	return time.Date(2026, 2, n, 10, 0, 0, 0, time.UTC)
}

func TestNewEntry_Validation(t *testing.T) {
	enrolled := enrollDay(1)

	_, err := NewEntry("", "Alice", 100, enrolled)
	assert.ErrorIs(t, err, ErrInvalidParticipantID)

	_, err = NewEntry("p-1", "Alice", -1, enrolled)
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = NewEntry("p-1", "Alice", 100, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidEnrollment)
}

func TestRanking_DenseDistinctRanks(t *testing.T) {
	ranking := NewRanking()
	require.NoError(t, ranking.Add(mustEntry(t, "p-1", 50, enrollDay(1))))
	require.NoError(t, ranking.Add(mustEntry(t, "p-2", 90, enrollDay(2))))
	require.NoError(t, ranking.Add(mustEntry(t, "p-3", 70, enrollDay(3))))

	ranking.Rank()

	entries := ranking.All()
	require.Len(t, entries, 3)
	assert.Equal(t, Rank(1), entries[0].Rank)
	assert.Equal(t, shared.ParticipantID("p-2"), entries[0].ParticipantID)
	assert.Equal(t, Rank(2), entries[1].Rank)
	assert.Equal(t, shared.ParticipantID("p-3"), entries[1].ParticipantID)
	assert.Equal(t, Rank(3), entries[2].Rank)
	assert.Equal(t, shared.ParticipantID("p-1"), entries[2].ParticipantID)
}

func TestRanking_TieBrokenByEnrollmentThenID(t *testing.T) {
	sameDay := enrollDay(5)

	ranking := NewRanking()
	require.NoError(t, ranking.Add(mustEntry(t, "p-late", 80, enrollDay(10))))
	require.NoError(t, ranking.Add(mustEntry(t, "p-b", 80, sameDay)))
	require.NoError(t, ranking.Add(mustEntry(t, "p-a", 80, sameDay)))

	ranking.Rank()

	// Равный счёт: раньше зарегистрировался - выше; при равной
	// регистрации решает ID. Общих рангов нет.
	entries := ranking.All()
	assert.Equal(t, shared.ParticipantID("p-a"), entries[0].ParticipantID)
	assert.Equal(t, shared.ParticipantID("p-b"), entries[1].ParticipantID)
	assert.Equal(t, shared.ParticipantID("p-late"), entries[2].ParticipantID)

	seen := map[Rank]bool{}
	for i, entry := range entries {
		assert.Equal(t, Rank(i+1), entry.Rank)
		assert.False(t, seen[entry.Rank])
		seen[entry.Rank] = true
	}
}

func TestRanking_DuplicateParticipant(t *testing.T) {
	ranking := NewRanking()
	require.NoError(t, ranking.Add(mustEntry(t, "p-1", 50, enrollDay(1))))

	err := ranking.Add(mustEntry(t, "p-1", 70, enrollDay(2)))
	assert.ErrorIs(t, err, ErrDuplicateParticipant)
}

func TestRanking_TopAndSlice(t *testing.T) {
	ranking := NewRanking()
	for i, score := range []shared.Score{10, 40, 30, 20} {
		require.NoError(t, ranking.Add(mustEntry(t, shared.ParticipantID(rune('a'+i)), score, enrollDay(1+i))))
	}
	ranking.Rank()

	top := ranking.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, shared.Score(40), top[0].TotalScore)
	assert.Equal(t, shared.Score(30), top[1].TotalScore)

	assert.Len(t, ranking.Top(100), 4)
	assert.Nil(t, ranking.Top(0))
	assert.Len(t, ranking.Slice(1, 3), 2)
	assert.Nil(t, ranking.Slice(3, 2))
}
