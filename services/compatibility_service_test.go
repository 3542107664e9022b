package services

import (
	"testing"

	"mindclone_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreRichSameGoalPair(t *testing.T) {
	scorer := &CompatibilityService{}
	a := testProfile("alice", models.GoalDating)
	b := testProfile("bob", models.GoalDating)

	result := scorer.Score(a, b, models.GoalDating)

	// Identical interests and a shared industry on complete profiles:
	// 100 goal, 100 values, 80 expertise, 90 communication.
	assert.Equal(t, 100, result.Breakdown.GoalAlignment)
	assert.Equal(t, 100, result.Breakdown.ValuesAlignment)
	assert.Equal(t, 80, result.Breakdown.ExpertiseRelevance)
	assert.Equal(t, 90, result.Breakdown.CommunicationFit)
	assert.Equal(t, 92, result.Score)
	assert.True(t, result.MeetsThreshold)
}

func TestScoreGoalGateZeroesAlignment(t *testing.T) {
	scorer := &CompatibilityService{}
	a := testProfile("alice", models.GoalDating)
	b := testProfile("bob", models.GoalNetworking)

	result := scorer.Score(a, b, models.GoalDating)

	assert.Equal(t, 0, result.Breakdown.GoalAlignment, "one side without the goal must zero the factor")
}

func TestScoreSparseProfilesBelowThreshold(t *testing.T) {
	scorer := &CompatibilityService{}
	a := &models.MatchingProfile{
		UserID: "alice",
		Goals:  map[string]bool{models.GoalNetworking: true},
	}
	b := &models.MatchingProfile{
		UserID: "bob",
		Goals:  map[string]bool{models.GoalNetworking: true},
	}

	result := scorer.Score(a, b, models.GoalNetworking)

	// 85 goal, 50 values, 50 expertise, 60 communication -> 61
	assert.Equal(t, 61, result.Score)
	assert.False(t, result.MeetsThreshold)
}

func TestScoreComplementaryLinkGoalBonus(t *testing.T) {
	scorer := &CompatibilityService{}
	a := testProfile("alice", models.GoalNetworking)
	a.GoalProfiles[models.GoalNetworking] = models.GoalProfile{LinkGoal: models.GoalHiring}
	b := testProfile("bob", models.GoalNetworking)
	b.GoalProfiles[models.GoalNetworking] = models.GoalProfile{LinkGoal: models.GoalNetworking}

	result := scorer.Score(a, b, models.GoalNetworking)

	// hiring x networking is 75 in the matrix plus the +20 complementary bonus
	assert.Equal(t, 95, result.Breakdown.GoalAlignment)
}

func TestScoreComplementaryBonusCapsAtHundred(t *testing.T) {
	scorer := &CompatibilityService{}
	a := testProfile("alice", models.GoalFundraising)
	a.GoalProfiles[models.GoalFundraising] = models.GoalProfile{LinkGoal: models.GoalFundraising}
	b := testProfile("bob", models.GoalFundraising)
	b.GoalProfiles[models.GoalFundraising] = models.GoalProfile{LinkGoal: models.GoalInvesting}

	result := scorer.Score(a, b, models.GoalFundraising)

	// 80 from the matrix plus 20 bonus stays within the factor ceiling
	assert.Equal(t, 100, result.Breakdown.GoalAlignment)
}

func TestScoreThresholdAgreesWithConstant(t *testing.T) {
	scorer := &CompatibilityService{}
	pairs := [][2]*models.MatchingProfile{
		{testProfile("a1", models.GoalDating), testProfile("b1", models.GoalDating)},
		{{UserID: "a2", Goals: map[string]bool{models.GoalHiring: true}}, {UserID: "b2", Goals: map[string]bool{models.GoalHiring: true}}},
		{testProfile("a3", models.GoalInvesting), {UserID: "b3"}},
	}

	for _, pair := range pairs {
		result := scorer.Score(pair[0], pair[1], models.GoalDating)
		require.GreaterOrEqual(t, result.Score, 0)
		require.LessOrEqual(t, result.Score, 100)
		assert.Equal(t, result.Score >= models.CompatibilityThreshold, result.MeetsThreshold)
	}
}

func TestOverlapRatio(t *testing.T) {
	assert.Equal(t, 0.0, overlapRatio(nil, []string{"chess"}))
	assert.Equal(t, 1.0, overlapRatio([]string{"Chess", "GO"}, []string{"chess", "go"}))
	assert.InDelta(t, 1.0/3.0, overlapRatio([]string{"chess", "go"}, []string{"chess"}), 1e-9)
}
