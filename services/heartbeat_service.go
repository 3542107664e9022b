package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"mindclone_server/models"
)

// MatchStore is the view of match persistence the heartbeat needs
type MatchStore interface {
	MatchLookup
	GetConversingMatches(ctx context.Context) ([]models.MindcloneMatch, error)
	CreateMatch(ctx context.Context, matchID, userAID, userBID, goalType string, score CompatibilityResult, conversationID string) (*models.MindcloneMatch, error)
	UpdateMatchStatus(ctx context.Context, matchID, status string) error
}

// ConversationCreator opens the conversation record for a new match
type ConversationCreator interface {
	CreateConversation(ctx context.Context, matchID string) (*models.Conversation, error)
}

// TurnDriver advances and concludes conversations
type TurnDriver interface {
	AdvanceConversation(ctx context.Context, match *models.MindcloneMatch) (*models.Conversation, bool, error)
	FinishConversation(ctx context.Context, match *models.MindcloneMatch, conversation *models.Conversation) ([]string, error)
}

// Arbiter applies the two-sided approval protocol to a completed conversation
type Arbiter interface {
	EvaluateMatch(ctx context.Context, match *models.MindcloneMatch, conversation *models.Conversation, insights []string) error
}

// CandidateFinder discovers ranked candidates for a user and goal
type CandidateFinder interface {
	FindCandidates(ctx context.Context, userID, goal string, limit int) ([]CandidateScore, error)
}

// ActiveProfileLister is the batch view of profiles the heartbeat pulls from
type ActiveProfileLister interface {
	GetActiveProfiles(ctx context.Context) ([]models.MatchingProfile, error)
}

// LeaseKeeper guards units of heartbeat work against overlapping ticks
type LeaseKeeper interface {
	Acquire(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)
}

// StateTracker maintains per-user daily counters
type StateTracker interface {
	LimitChecker
	RecordAttempt(ctx context.Context, userID string)
	AddActiveConversations(ctx context.Context, userID string, delta int)
	AddPendingApprovals(ctx context.Context, userID string, delta int)
}

// TickReport summarizes one heartbeat tick
type TickReport struct {
	RoundsAdvanced         int      `json:"roundsAdvanced"`
	ConversationsCompleted int      `json:"conversationsCompleted"`
	MatchesCreated         int      `json:"matchesCreated"`
	MatchesExpired         int      `json:"matchesExpired"`
	Errors                 []string `json:"errors,omitempty"`
	StartedAt              string   `json:"startedAt"`
	DurationMillis         int64    `json:"durationMillis"`
}

// HeartbeatService is the periodic orchestrator: it advances in-flight
// conversations, creates new matches under quota, and expires stale matches.
// Each tick is a bounded, single-threaded batch; every unit of work is
// independently fault-tolerant and failures land in the tick's error list.
type HeartbeatService struct {
	Matches       MatchStore
	Conversations ConversationCreator
	Engine        TurnDriver
	Approvals     Arbiter
	Candidates    CandidateFinder
	Profiles      ActiveProfileLister
	States        StateTracker
	Leases        LeaseKeeper
	Now           func() time.Time
}

// RunTick processes one scheduler tick. Safe to call on a fixed interval
// or manually; re-running with no new data creates no duplicate work.
func (hs *HeartbeatService) RunTick(ctx context.Context) *TickReport {
	start := hs.Now()
	report := &TickReport{StartedAt: start.UTC().Format(time.RFC3339)}
	heartbeatTicks.Inc()

	log.Printf("💓 [HEARTBEAT] Tick started")

	hs.advanceConversations(ctx, report)
	hs.createNewMatches(ctx, report)
	hs.expireStaleMatches(ctx, report)

	report.DurationMillis = time.Since(start).Milliseconds()
	log.Printf("💓 [HEARTBEAT] Tick done: %d rounds, %d completed, %d created, %d expired, %d errors (%dms)",
		report.RoundsAdvanced, report.ConversationsCompleted, report.MatchesCreated,
		report.MatchesExpired, len(report.Errors), report.DurationMillis)
	return report
}

// recordError appends a per-unit failure without aborting the batch
func (report *TickReport) recordError(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	report.Errors = append(report.Errors, message)
	heartbeatErrors.Inc()
	log.Printf("❌ [HEARTBEAT] %s", message)
}

// advanceConversations drives up to HeartbeatConversationBatch in-flight
// conversations forward by at most MaxTurnsPerHeartbeat rounds each,
// handing completed conversations to the arbiter.
func (hs *HeartbeatService) advanceConversations(ctx context.Context, report *TickReport) {
	matches, err := hs.Matches.GetConversingMatches(ctx)
	if err != nil {
		report.recordError("failed to fetch in-flight matches: %v", err)
		return
	}
	if len(matches) > models.HeartbeatConversationBatch {
		matches = matches[:models.HeartbeatConversationBatch]
	}

	for i := range matches {
		match := &matches[i]
		key := ConversationLeaseKey(match.MatchID)
		if !hs.Leases.Acquire(ctx, key) {
			continue
		}
		hs.advanceOne(ctx, match, report)
		hs.Leases.Release(ctx, key)
	}
}

func (hs *HeartbeatService) advanceOne(ctx context.Context, match *models.MindcloneMatch, report *TickReport) {
	defer func() {
		if r := recover(); r != nil {
			report.recordError("panic advancing match %s: %v", match.MatchID, r)
		}
	}()

	var conversation *models.Conversation

	for turn := 0; turn < models.MaxTurnsPerHeartbeat; turn++ {
		conv, produced, err := hs.Engine.AdvanceConversation(ctx, match)
		if err != nil {
			// A failed turn is abandoned; the next tick retries implicitly
			report.recordError("match %s: %v", match.MatchID, err)
			return
		}
		conversation = conv
		if produced {
			report.RoundsAdvanced++
			conversationsAdvanced.Inc()
		}
		if conv.IsComplete() {
			break
		}
		if !produced {
			return
		}
	}

	if conversation == nil || !conversation.IsComplete() {
		return
	}

	wasComplete := conversation.CompletedAt != ""
	insights, err := hs.Engine.FinishConversation(ctx, match, conversation)
	if err != nil {
		report.recordError("match %s: failed to finish conversation: %v", match.MatchID, err)
		return
	}
	if !wasComplete {
		hs.States.AddPendingApprovals(ctx, match.UserAID, 1)
		hs.States.AddPendingApprovals(ctx, match.UserBID, 1)
	}

	if err := hs.Approvals.EvaluateMatch(ctx, match, conversation, insights); err != nil {
		// Approval stays pending; the next tick picks the match up again
		report.recordError("match %s: approval failed: %v", match.MatchID, err)
		return
	}

	hs.States.AddPendingApprovals(ctx, match.UserAID, -1)
	hs.States.AddPendingApprovals(ctx, match.UserBID, -1)
	hs.States.AddActiveConversations(ctx, match.UserAID, -1)
	hs.States.AddActiveConversations(ctx, match.UserBID, -1)

	report.ConversationsCompleted++
	conversationsCompleted.Inc()
}

// createNewMatches pulls a bounded batch of active profiles and, for each
// user under their daily limit, tries each enabled goal until a candidate
// is found. The new match immediately gets its opening message so it is
// never left with zero messages.
func (hs *HeartbeatService) createNewMatches(ctx context.Context, report *TickReport) {
	profiles, err := hs.Profiles.GetActiveProfiles(ctx)
	if err != nil {
		report.recordError("failed to fetch active profiles: %v", err)
		return
	}
	if len(profiles) > models.HeartbeatProfileBatch {
		profiles = profiles[:models.HeartbeatProfileBatch]
	}

	created := 0
	for i := range profiles {
		if created >= models.HeartbeatNewMatchQuota {
			break
		}
		profile := &profiles[i]

		if hs.States.HasReachedDailyLimit(ctx, profile.UserID) {
			continue
		}

		if hs.matchOneUser(ctx, profile, report) {
			created++
		}
	}
}

// matchOneUser attempts at most one new match for a user across their
// enabled goals, returning true when a match was created.
func (hs *HeartbeatService) matchOneUser(ctx context.Context, profile *models.MatchingProfile, report *TickReport) (madeMatch bool) {
	defer func() {
		if r := recover(); r != nil {
			report.recordError("panic matching user %s: %v", profile.UserID, r)
			madeMatch = false
		}
	}()

	for _, goal := range models.AllGoalTypes {
		if !profile.HasGoal(goal) {
			continue
		}

		candidates, err := hs.Candidates.FindCandidates(ctx, profile.UserID, goal, 1)
		if err != nil {
			report.recordError("candidate search failed for %s/%s: %v", profile.UserID, goal, err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		candidate := candidates[0]

		pairKey := PairLeaseKey(profile.UserID, candidate.Profile.UserID, goal)
		if !hs.Leases.Acquire(ctx, pairKey) {
			continue
		}

		// Profile state may have changed since the batch was fetched:
		// re-check pair uniqueness and both daily limits at creation time.
		existing, err := hs.Matches.FindMatchForPair(ctx, profile.UserID, candidate.Profile.UserID, goal)
		if err != nil || existing != nil {
			hs.Leases.Release(ctx, pairKey)
			continue
		}
		if hs.States.HasReachedDailyLimit(ctx, profile.UserID) ||
			hs.States.HasReachedDailyLimit(ctx, candidate.Profile.UserID) {
			hs.Leases.Release(ctx, pairKey)
			continue
		}

		match, err := hs.createMatchWithConversation(ctx, profile.UserID, candidate, goal)
		if err != nil {
			report.recordError("failed to create match %s x %s: %v", profile.UserID, candidate.Profile.UserID, err)
			hs.Leases.Release(ctx, pairKey)
			continue
		}
		hs.Leases.Release(ctx, pairKey)

		report.MatchesCreated++
		matchesCreated.Inc()

		// Opening message (round 1) so the match never sits empty
		if _, _, err := hs.Engine.AdvanceConversation(ctx, match); err != nil {
			report.recordError("match %s: opening message failed: %v", match.MatchID, err)
		} else {
			report.RoundsAdvanced++
			conversationsAdvanced.Inc()
		}
		return true
	}
	return false
}

func (hs *HeartbeatService) createMatchWithConversation(ctx context.Context, userID string, candidate CandidateScore, goal string) (*models.MindcloneMatch, error) {
	matchID := NewMatchID()

	conversation, err := hs.Conversations.CreateConversation(ctx, matchID)
	if err != nil {
		return nil, err
	}

	match, err := hs.Matches.CreateMatch(ctx, matchID, userID, candidate.Profile.UserID, goal, candidate.Result, conversation.ConversationID)
	if err != nil {
		return nil, err
	}

	hs.States.RecordAttempt(ctx, userID)
	hs.States.RecordAttempt(ctx, candidate.Profile.UserID)
	hs.States.AddActiveConversations(ctx, userID, 1)
	hs.States.AddActiveConversations(ctx, candidate.Profile.UserID, 1)

	return match, nil
}

// expireStaleMatches terminates any non-terminal match past its TTL
func (hs *HeartbeatService) expireStaleMatches(ctx context.Context, report *TickReport) {
	matches, err := hs.Matches.GetConversingMatches(ctx)
	if err != nil {
		report.recordError("failed to fetch matches for expiry: %v", err)
		return
	}

	now := hs.Now().UTC()
	for i := range matches {
		match := &matches[i]
		expiresAt, err := time.Parse(time.RFC3339, match.ExpiresAt)
		if err != nil {
			report.recordError("match %s has unparseable expiry '%s': %v", match.MatchID, match.ExpiresAt, err)
			continue
		}
		if !expiresAt.Before(now) {
			continue
		}

		if err := hs.Matches.UpdateMatchStatus(ctx, match.MatchID, models.MatchStatusExpired); err != nil {
			report.recordError("failed to expire match %s: %v", match.MatchID, err)
			continue
		}
		hs.States.AddActiveConversations(ctx, match.UserAID, -1)
		hs.States.AddActiveConversations(ctx, match.UserBID, -1)
		report.MatchesExpired++
		matchesExpired.Inc()
	}
}
