package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"mindclone_server/models"
)

// ProfileReader is the view of profile storage the matching engine consumes
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.MatchingProfile, error)
	GetActiveProfilesForGoal(ctx context.Context, goal string) ([]models.MatchingProfile, error)
}

// MatchLookup answers whether a pair already has a match for a goal
type MatchLookup interface {
	FindMatchForPair(ctx context.Context, userX, userY, goalType string) (*models.MindcloneMatch, error)
}

// LimitChecker gates candidates by their daily matching quota
type LimitChecker interface {
	HasReachedDailyLimit(ctx context.Context, userID string) bool
}

// CandidateScore pairs a candidate profile with its compatibility result
type CandidateScore struct {
	Profile models.MatchingProfile `json:"profile"`
	Result  CompatibilityResult    `json:"result"`
}

// CandidateService finds and ranks compatible candidates for a user and goal
type CandidateService struct {
	Profiles ProfileReader
	Matches  MatchLookup
	States   LimitChecker
	Scorer   *CompatibilityService
}

// FindCandidates returns up to limit candidates for userID and goal, meeting
// the compatibility threshold, ranked by score descending. Candidates with
// an existing match against the requester (either ordering) or at their own
// daily limit are excluded.
func (cs *CandidateService) FindCandidates(ctx context.Context, userID, goal string, limit int) ([]CandidateScore, error) {
	requester, err := cs.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("requester profile unavailable: %w", err)
	}
	if !requester.HasGoal(goal) {
		return nil, nil
	}

	candidates, err := cs.Profiles.GetActiveProfilesForGoal(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates for goal '%s': %w", goal, err)
	}

	var scored []CandidateScore
	for i := range candidates {
		candidate := candidates[i]
		if candidate.UserID == userID {
			continue
		}

		existing, err := cs.Matches.FindMatchForPair(ctx, userID, candidate.UserID, goal)
		if err != nil {
			log.Printf("⚠️ [CANDIDATES] Skipping %s, match lookup failed: %v", candidate.UserID, err)
			continue
		}
		if existing != nil {
			continue
		}

		if cs.States.HasReachedDailyLimit(ctx, candidate.UserID) {
			continue
		}

		result := cs.Scorer.Score(requester, &candidate, goal)
		if !result.MeetsThreshold {
			continue
		}

		scored = append(scored, CandidateScore{Profile: candidate, Result: result})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Result.Score > scored[j].Result.Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
