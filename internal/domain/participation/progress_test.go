package participation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

func day(n int) time.Time {
	return time.Date(2026, 3, n, 12, 0, 0, 0, time.UTC)
}

func TestComputeProgress_PartialCompletion(t *testing.T) {
	agg := NewAggregator()

	requirements := []Requirement{
		{ID: "req-1", Title: "Warmup", Required: true, MaxScore: 100},
		{ID: "req-2", Title: "Parser", Required: true, MaxScore: 100},
		{ID: "req-3", Title: "Server", Required: true, MaxScore: 100},
		{ID: "req-4", Title: "Bonus", Required: false, MaxScore: 100},
	}
	submissions := []Submission{
		{ID: "s1", RequirementID: "req-1", Status: SubmissionApproved, Score: 100, SubmittedAt: day(1)},
	}

	progress, err := agg.ComputeProgress(requirements, submissions)
	require.NoError(t, err)
	require.Len(t, progress, 4)

	assert.True(t, progress[0].Completed)
	assert.Equal(t, shared.Percent(100), progress[0].Progress)
	assert.False(t, progress[1].Completed)

	assert.Equal(t, 1, CompletedCount(progress))
	assert.InDelta(t, 25.0, OverallCompletion(progress).Float64(), 0.001)
}

func TestComputeProgress_NoRequirements(t *testing.T) {
	agg := NewAggregator()

	progress, err := agg.ComputeProgress(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, progress)

	// Пустой набор требований - 0%, а не NaN.
	pct := OverallCompletion(progress)
	assert.Equal(t, 0.0, pct.Float64())
}

func TestComputeProgress_DuplicateRequirementID(t *testing.T) {
	agg := NewAggregator()

	requirements := []Requirement{
		{ID: "req-1", Title: "A", MaxScore: 10},
		{ID: "req-1", Title: "B", MaxScore: 20},
	}

	_, err := agg.ComputeProgress(requirements, nil)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "duplicate requirement ID")
}

func TestComputeProgress_ScoreExceedsMax(t *testing.T) {
	agg := NewAggregator()

	requirements := []Requirement{
		{ID: "req-1", Title: "A", MaxScore: 50},
	}
	submissions := []Submission{
		{ID: "s1", RequirementID: "req-1", Status: SubmissionApproved, Score: 60, SubmittedAt: day(1)},
	}

	_, err := agg.ComputeProgress(requirements, submissions)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestComputeProgress_LatestApprovedWins(t *testing.T) {
	agg := NewAggregator()

	requirements := []Requirement{
		{ID: "req-1", Title: "A", MaxScore: 100, CompletionThreshold: 80},
	}
	submissions := []Submission{
		{ID: "s1", RequirementID: "req-1", Status: SubmissionApproved, Score: 90, SubmittedAt: day(1)},
		{ID: "s2", RequirementID: "req-1", Status: SubmissionApproved, Score: 40, SubmittedAt: day(3)},
		{ID: "s3", RequirementID: "req-1", Status: SubmissionRejected, Score: 100, SubmittedAt: day(5)},
		{ID: "s4", RequirementID: "req-1", Status: SubmissionPending, Score: 100, SubmittedAt: day(6)},
	}

	progress, err := agg.ComputeProgress(requirements, submissions)
	require.NoError(t, err)
	require.Len(t, progress, 1)

	// Последний одобренный сабмит (s2) определяет состояние,
	// даже если более ранний набрал больше.
	assert.Equal(t, 40, progress[0].Score)
	assert.False(t, progress[0].Completed)
	assert.InDelta(t, 40.0, progress[0].Progress.Float64(), 0.001)
}

func TestComputeProgress_BinaryRequirement(t *testing.T) {
	agg := NewAggregator()

	requirements := []Requirement{
		{ID: "req-1", Title: "Attend kickoff", MaxScore: 0},
	}
	submissions := []Submission{
		{ID: "s1", RequirementID: "req-1", Status: SubmissionApproved, Score: 0, SubmittedAt: day(2)},
	}

	progress, err := agg.ComputeProgress(requirements, submissions)
	require.NoError(t, err)
	require.Len(t, progress, 1)

	assert.True(t, progress[0].Completed)
	assert.Equal(t, shared.Percent(100), progress[0].Progress)
}

func TestComputeProgress_IncompleteStaysBelowHundred(t *testing.T) {
	agg := NewAggregator()

	requirements := []Requirement{
		{ID: "req-1", Title: "A", MaxScore: 50, CompletionThreshold: 40},
	}
	submissions := []Submission{
		{ID: "s1", RequirementID: "req-1", Status: SubmissionApproved, Score: 30, SubmittedAt: day(1)},
	}

	progress, err := agg.ComputeProgress(requirements, submissions)
	require.NoError(t, err)
	require.Len(t, progress, 1)

	assert.False(t, progress[0].Completed)
	assert.Less(t, progress[0].Progress.Float64(), 100.0)
	assert.InDelta(t, 60.0, progress[0].Progress.Float64(), 0.001)
}

func TestSortForDisplay(t *testing.T) {
	progress := []RequirementProgress{
		{RequirementID: "req-c", Required: false, Completed: true, Progress: 100},
		{RequirementID: "req-b", Required: true, Completed: false, Progress: 20},
		{RequirementID: "req-a", Required: true, Completed: false, Progress: 80},
		{RequirementID: "req-d", Required: false, Completed: false, Progress: 50},
	}

	SortForDisplay(progress)

	// Открытые обязательные первыми, внутри - по убыванию прогресса.
	assert.Equal(t, shared.RequirementID("req-a"), progress[0].RequirementID)
	assert.Equal(t, shared.RequirementID("req-b"), progress[1].RequirementID)
	assert.Equal(t, shared.RequirementID("req-c"), progress[2].RequirementID)
	assert.Equal(t, shared.RequirementID("req-d"), progress[3].RequirementID)
}

func TestRequirementThreshold(t *testing.T) {
	assert.Equal(t, 0, Requirement{MaxScore: 0}.Threshold())
	assert.Equal(t, 100, Requirement{MaxScore: 100}.Threshold())
	assert.Equal(t, 70, Requirement{MaxScore: 100, CompletionThreshold: 70}.Threshold())
}

func TestRequirementValidate(t *testing.T) {
	assert.Error(t, Requirement{ID: "", MaxScore: 10}.Validate())
	assert.Error(t, Requirement{ID: "r", MaxScore: -1}.Validate())
	assert.Error(t, Requirement{ID: "r", MaxScore: 10, CompletionThreshold: 20}.Validate())
	assert.NoError(t, Requirement{ID: "r", MaxScore: 10, CompletionThreshold: 5}.Validate())
}
