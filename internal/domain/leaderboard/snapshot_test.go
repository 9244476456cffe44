package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

func buildSnapshot(t *testing.T, id string, at time.Time, scores map[shared.ParticipantID]shared.Score) *Snapshot {
	t.Helper()
	ranking := NewRanking()
	day := 1
	for pid, score := range scores {
		require.NoError(t, ranking.Add(mustEntry(t, pid, score, enrollDay(day))))
		day++
	}
	ranking.Rank()
	return NewSnapshot(id, "comp-1", ranking, at)
}

func TestSnapshot_Aggregates(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, "snap-1", at, map[shared.ParticipantID]shared.Score{
		"p-1": 100,
		"p-2": 50,
	})

	assert.Equal(t, 2, snap.TotalParticipants)
	assert.Equal(t, 150, snap.TotalScore)
	assert.Equal(t, shared.Score(75), snap.AverageScore)
	assert.False(t, snap.IsEmpty())
}

func TestSnapshot_GetRank(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, "snap-1", at, map[shared.ParticipantID]shared.Score{
		"p-1": 100,
		"p-2": 50,
	})

	assert.Equal(t, Rank(1), snap.GetRank("p-1"))
	assert.Equal(t, Rank(2), snap.GetRank("p-2"))
	// Неизвестный участник - ранг 0.
	assert.Equal(t, Rank(0), snap.GetRank("p-unknown"))
}

func TestSnapshot_Page(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, "snap-1", at, map[shared.ParticipantID]shared.Score{
		"p-1": 50, "p-2": 40, "p-3": 30, "p-4": 20, "p-5": 10,
	})

	first := snap.Page(1, 2)
	require.Len(t, first, 2)
	assert.Equal(t, Rank(1), first[0].Rank)

	last := snap.Page(3, 2)
	require.Len(t, last, 1)
	assert.Equal(t, Rank(5), last[0].Rank)

	assert.Nil(t, snap.Page(4, 2))
	assert.Nil(t, snap.Page(0, 2))
}

func TestSnapshot_DiffAgainstPrevious(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	previous := buildSnapshot(t, "snap-1", at, map[shared.ParticipantID]shared.Score{
		"p-1": 100, // rank 1
		"p-2": 80,  // rank 2
		"p-3": 60,  // rank 3
	})

	current := buildSnapshot(t, "snap-2", at.Add(time.Hour), map[shared.ParticipantID]shared.Score{
		"p-2": 120, // rank 1, поднялся
		"p-1": 100, // rank 2, опустился
		"p-3": 60,  // rank 3, без изменений
		"p-4": 10,  // новый участник
	})

	movements := current.Diff(previous)

	require.Len(t, movements, 2)
	byID := map[shared.ParticipantID]RankMovement{}
	for _, m := range movements {
		byID[m.ParticipantID] = m
	}

	assert.Equal(t, RankChange(1), byID["p-2"].Change())
	assert.Equal(t, RankChange(-1), byID["p-1"].Change())

	assert.Equal(t, RankChange(1), current.GetByID("p-2").RankChange)
	assert.Equal(t, RankChange(-1), current.GetByID("p-1").RankChange)
	assert.Equal(t, RankChange(0), current.GetByID("p-3").RankChange)
	// Новый участник не считается изменением позиции.
	assert.Equal(t, RankChange(0), current.GetByID("p-4").RankChange)
}

func TestSnapshot_DiffWithoutPrevious(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, "snap-1", at, map[shared.ParticipantID]shared.Score{
		"p-1": 100,
	})

	movements := snap.Diff(nil)
	assert.Empty(t, movements)
	assert.Equal(t, RankChange(0), snap.GetByID("p-1").RankChange)
}

func TestSnapshot_RebuildIndex(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, "snap-1", at, map[shared.ParticipantID]shared.Score{
		"p-1": 100,
	})

	// Эмуляция загрузки из хранилища: индекс потерян.
	snap.byID = nil
	assert.Nil(t, snap.GetByID("p-1"))

	snap.RebuildIndex()
	require.NotNil(t, snap.GetByID("p-1"))
	assert.Equal(t, Rank(1), snap.GetRank("p-1"))
}
