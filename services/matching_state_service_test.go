package services

import (
	"testing"

	"mindclone_server/models"

	"github.com/stretchr/testify/assert"
)

func TestResetAttemptsIfStale(t *testing.T) {
	state := &models.MatchingState{
		UserID:                "alice",
		DailyMatchesAttempted: 2,
		PendingApprovals:      1,
		ActiveConversations:   3,
		LastResetDate:         "2026-03-13",
	}

	changed := resetAttemptsIfStale(state, "2026-03-14")

	assert.True(t, changed)
	assert.Equal(t, 0, state.DailyMatchesAttempted)
	assert.Equal(t, "2026-03-14", state.LastResetDate)
	// Pending and active counters survive the daily rollover
	assert.Equal(t, 1, state.PendingApprovals)
	assert.Equal(t, 3, state.ActiveConversations)
}

func TestResetAttemptsSameDayNoop(t *testing.T) {
	state := &models.MatchingState{
		UserID:                "alice",
		DailyMatchesAttempted: 1,
		LastResetDate:         "2026-03-14",
	}

	changed := resetAttemptsIfStale(state, "2026-03-14")

	assert.False(t, changed)
	assert.Equal(t, 1, state.DailyMatchesAttempted)
}

func TestResetAttemptsFreshState(t *testing.T) {
	state := &models.MatchingState{UserID: "alice"}

	changed := resetAttemptsIfStale(state, "2026-03-14")

	assert.True(t, changed)
	assert.Equal(t, "2026-03-14", state.LastResetDate)
}
