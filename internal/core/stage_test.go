package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNewJob(t *testing.T) {
	tenant := uuid.New()
	job := NewJob(tenant, "https://acme.com", Detection{Platform: PlatformShopify, Confidence: ConfidenceHigh}, testNow)

	assert.Equal(t, tenant, job.TenantID)
	assert.Equal(t, PlatformShopify, job.Platform)
	require.Len(t, job.Stages, len(StageOrder))
	for i, st := range job.Stages {
		assert.Equal(t, StageOrder[i], st.Name)
		assert.Equal(t, i, st.Order)
		assert.Equal(t, StatusPending, st.Status)
		assert.NotNil(t, st.Errors)
	}
	assert.False(t, job.Finished())
}

func TestJobApply_Lifecycle(t *testing.T) {
	job := NewJob(uuid.New(), "https://acme.com", unknownDetection, testNow)

	st, err := job.Apply(StageBranding, ActionStart, testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, st.Status)
	require.NotNil(t, st.StartedAt)
	assert.Nil(t, st.FinishedAt)

	later := testNow.Add(time.Minute)
	st, err = job.Apply(StageBranding, ActionComplete, later)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, later, *st.FinishedAt)

	_, err = job.Apply(StageBranding, ActionStart, later)
	assert.ErrorIs(t, err, ErrInvalidTransition, "completed stages cannot be restarted")

	_, err = job.Apply(StageBranding, ActionRetry, later)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestJobApply_Gating(t *testing.T) {
	job := NewJob(uuid.New(), "https://acme.com", unknownDetection, testNow)

	_, err := job.Apply(StageCategories, ActionStart, testNow)
	assert.ErrorIs(t, err, ErrStageGated)
	_, err = job.Apply(StageCategories, ActionSkip, testNow)
	assert.ErrorIs(t, err, ErrStageGated, "skip is gated like start")
	assert.Equal(t, StatusPending, job.StageStatus(StageCategories))

	_, err = job.Apply(StageBranding, ActionSkip, testNow)
	require.NoError(t, err)
	_, err = job.Apply(StageCategories, ActionStart, testNow)
	assert.NoError(t, err, "a skipped stage settles the gate")
}

func TestJobApply_GatingChecksEveryEarlierStage(t *testing.T) {
	job := NewJob(uuid.New(), "https://acme.com", unknownDetection, testNow)

	_, err := job.Apply(StageBranding, ActionStart, testNow)
	require.NoError(t, err)
	_, err = job.Apply(StageBranding, ActionComplete, testNow)
	require.NoError(t, err)
	_, err = job.Apply(StageCategories, ActionStart, testNow)
	require.NoError(t, err)

	for _, name := range []StageName{StagePages, StageMenus, StageContentBlocks} {
		_, err = job.Apply(name, ActionStart, testNow)
		assert.ErrorIs(t, err, ErrStageGated, "%s must wait for categories", name)
		assert.Equal(t, StatusPending, job.StageStatus(name))
	}
}

func TestJobApply_ErrorRetrySkip(t *testing.T) {
	job := NewJob(uuid.New(), "https://acme.com", unknownDetection, testNow)

	_, err := job.Apply(StageBranding, ActionStart, testNow)
	require.NoError(t, err)
	st, err := job.Apply(StageBranding, ActionFail, testNow)
	require.NoError(t, err)
	st.AddError("extract failed: %s", "timeout")
	assert.Equal(t, StatusError, st.Status)

	_, err = job.Apply(StageCategories, ActionStart, testNow)
	assert.ErrorIs(t, err, ErrStageGated, "an errored stage blocks later ones")

	st, err = job.Apply(StageBranding, ActionRetry, testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st.Status)
	assert.Nil(t, st.StartedAt)
	assert.Equal(t, []string{"extract failed: timeout"}, st.Errors, "errors stay visible until the next start")

	st, err = job.Apply(StageBranding, ActionStart, testNow)
	require.NoError(t, err)
	assert.Empty(t, st.Errors)

	_, err = job.Apply(StageBranding, ActionFail, testNow)
	require.NoError(t, err)
	st, err = job.Apply(StageBranding, ActionSkip, testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, st.Status)
}

func TestJob_Finished(t *testing.T) {
	job := NewJob(uuid.New(), "https://acme.com", unknownDetection, testNow)
	for _, name := range StageOrder {
		_, err := job.Apply(name, ActionSkip, testNow)
		require.NoError(t, err)
	}
	assert.True(t, job.Finished())
	assert.False(t, (&Job{}).Finished())
}

func TestJob_Clone(t *testing.T) {
	job := NewJob(uuid.New(), "https://acme.com", unknownDetection, testNow)
	job.Stages[0].Errors = []string{"a"}
	job.Stages[0].Stats.Count("x", 1)
	job.CompletedAt = &testNow

	clone := job.Clone()
	clone.Stages[0].Errors[0] = "changed"
	clone.Stages[0].Stats.Extra["x"] = 99
	clone.Stages[1].Status = StatusCompleted
	*clone.CompletedAt = testNow.Add(time.Hour)

	assert.Equal(t, "a", job.Stages[0].Errors[0])
	assert.Equal(t, 1, job.Stages[0].Stats.Extra["x"])
	assert.Equal(t, StatusPending, job.Stages[1].Status)
	assert.Equal(t, testNow, *job.CompletedAt)
}

func TestParseStage(t *testing.T) {
	got, err := ParseStage(" Content-Blocks ")
	require.NoError(t, err)
	assert.Equal(t, StageContentBlocks, got)

	_, err = ParseStage("products")
	assert.ErrorIs(t, err, ErrUnknownStage)

	_, err = (&Job{}).Stage(StageMenus)
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestStageStats_Add(t *testing.T) {
	var s StageStats
	s.Add(StageStats{Processed: 2, Created: 1, Failed: 1, Extra: map[string]int{"page": 1}})
	s.Add(StageStats{Processed: 1, Updated: 1, Extra: map[string]int{"page": 2, "external": 1}})

	assert.Equal(t, StageStats{
		Processed: 3,
		Created:   1,
		Updated:   1,
		Failed:    1,
		Extra:     map[string]int{"page": 3, "external": 1},
	}, s)
}
