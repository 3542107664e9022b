package services

import (
	"log"
	"math"
	"strings"

	"mindclone_server/models"
)

// Factor weights for the composite compatibility score
const (
	weightGoalAlignment      = 0.25
	weightValuesAlignment    = 0.25
	weightExpertiseRelevance = 0.30
	weightCommunicationFit   = 0.20
)

// goalMatrix scores how well two declared link goals fit together.
// Same-goal pairs sit on the diagonal; cross-goal pairs range 30-80.
var goalMatrix = map[string]map[string]int{
	models.GoalDating: {
		models.GoalDating:      100,
		models.GoalNetworking:  40,
		models.GoalInvesting:   30,
		models.GoalHiring:      30,
		models.GoalFundraising: 30,
	},
	models.GoalNetworking: {
		models.GoalDating:      40,
		models.GoalNetworking:  85,
		models.GoalInvesting:   70,
		models.GoalHiring:      75,
		models.GoalFundraising: 70,
	},
	models.GoalInvesting: {
		models.GoalDating:      30,
		models.GoalNetworking:  70,
		models.GoalInvesting:   80,
		models.GoalHiring:      50,
		models.GoalFundraising: 80,
	},
	models.GoalHiring: {
		models.GoalDating:      30,
		models.GoalNetworking:  75,
		models.GoalInvesting:   50,
		models.GoalHiring:      70,
		models.GoalFundraising: 45,
	},
	models.GoalFundraising: {
		models.GoalDating:      30,
		models.GoalNetworking:  70,
		models.GoalInvesting:   80,
		models.GoalHiring:      45,
		models.GoalFundraising: 75,
	},
}

// complementaryLinkGoals lists link-goal pairs that earn the +20 bonus
// (one side offers what the other is after). Checked in both orders.
var complementaryLinkGoals = map[string][]string{
	models.GoalFundraising: {models.GoalInvesting, models.GoalNetworking},
	models.GoalInvesting:   {models.GoalFundraising},
	models.GoalHiring:      {models.GoalNetworking},
	models.GoalNetworking:  {models.GoalFundraising, models.GoalHiring},
}

// CompatibilityResult is the outcome of scoring one profile pair for one goal
type CompatibilityResult struct {
	Score          int                   `json:"score"`
	Breakdown      models.ScoreBreakdown `json:"breakdown"`
	MeetsThreshold bool                  `json:"meetsThreshold"`
}

// CompatibilityService computes weighted multi-factor compatibility between
// two matching profiles. Pure computation, no I/O.
type CompatibilityService struct{}

// Score computes the composite 0-100 compatibility score for a profile pair
// and goal type. Any panic during computation degrades to a zero score:
// a broken profile must never crash the scheduler.
func (cs *CompatibilityService) Score(a, b *models.MatchingProfile, goal string) (result CompatibilityResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ [SCORER] Recovered while scoring %s x %s for %s: %v", a.UserID, b.UserID, goal, r)
			result = CompatibilityResult{}
		}
	}()

	ga := goalAlignment(a, b, goal)
	va := valuesAlignment(a, b)
	er := expertiseRelevance(a, b)
	cf := communicationFit(a, b)

	total := int(math.Round(
		weightGoalAlignment*ga +
			weightValuesAlignment*va +
			weightExpertiseRelevance*er +
			weightCommunicationFit*cf))

	return CompatibilityResult{
		Score: total,
		Breakdown: models.ScoreBreakdown{
			GoalAlignment:      int(math.Round(ga)),
			ValuesAlignment:    int(math.Round(va)),
			ExpertiseRelevance: int(math.Round(er)),
			CommunicationFit:   int(math.Round(cf)),
		},
		MeetsThreshold: total >= models.CompatibilityThreshold,
	}
}

// goalAlignment is 0 unless both sides have the goal enabled; otherwise the
// matrix entry for the two declared link goals, plus a +20 complementary
// bonus, capped at 100.
func goalAlignment(a, b *models.MatchingProfile, goal string) float64 {
	if !a.HasGoal(goal) || !b.HasGoal(goal) {
		return 0
	}

	linkA := linkGoalOrDefault(a, goal)
	linkB := linkGoalOrDefault(b, goal)

	score := 50
	if row, ok := goalMatrix[linkA]; ok {
		if entry, ok := row[linkB]; ok {
			score = entry
		}
	}

	if areComplementary(linkA, linkB) {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return float64(score)
}

func linkGoalOrDefault(p *models.MatchingProfile, goal string) string {
	if link := p.GoalProfileFor(goal).LinkGoal; link != "" {
		return strings.ToLower(link)
	}
	return goal
}

func areComplementary(linkA, linkB string) bool {
	for _, candidate := range complementaryLinkGoals[linkA] {
		if candidate == linkB {
			return true
		}
	}
	return false
}

// valuesAlignment starts at 50, raised to the interest-overlap ratio when
// that beats the base, with +20 for any shared industry, capped at 100.
func valuesAlignment(a, b *models.MatchingProfile) float64 {
	score := 50.0

	overlap := overlapRatio(a.Preferences.Interests, b.Preferences.Interests) * 100
	if overlap > score {
		score = overlap
	}

	if shareAny(a.Preferences.Industries, b.Preferences.Industries) {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

// expertiseRelevance: base 50, +15 for substantial bios on both sides,
// +20 when both have a knowledge base, +15 for industry overlap, capped 100.
func expertiseRelevance(a, b *models.MatchingProfile) float64 {
	score := 50.0

	if len(a.Bio) > 100 && len(b.Bio) > 100 {
		score += 15
	}
	if a.HasKnowledgeBase && b.HasKnowledgeBase {
		score += 20
	}
	if shareAny(a.Preferences.Industries, b.Preferences.Industries) {
		score += 15
	}
	if score > 100 {
		score = 100
	}
	return score
}

// communicationFit: base 60, bonus for profile completeness on both sides
// (or half for one side), plus a bonus scaled to average bio length.
func communicationFit(a, b *models.MatchingProfile) float64 {
	score := 60.0

	completeA := isComplete(a)
	completeB := isComplete(b)
	switch {
	case completeA && completeB:
		score += 20
	case completeA || completeB:
		score += 10
	}

	avgBioLen := float64(len(a.Bio)+len(b.Bio)) / 2
	switch {
	case avgBioLen > 150:
		score += 20
	case avgBioLen > 50:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

func isComplete(p *models.MatchingProfile) bool {
	return p.DisplayName != "" && p.Bio != "" && p.PersonaName != ""
}

// overlapRatio is the Jaccard-like intersection/union ratio of two
// case-insensitive exact-match string lists
func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := lowerSet(a)
	setB := lowerSet(b)

	intersection := 0
	for item := range setA {
		if setB[item] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func shareAny(a, b []string) bool {
	setB := lowerSet(b)
	for _, item := range a {
		if setB[strings.ToLower(strings.TrimSpace(item))] {
			return true
		}
	}
	return false
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
