package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"mindclone_server/models"
)

// MatchApprovalStore is the view of match persistence the arbiter needs
type MatchApprovalStore interface {
	SetApproval(ctx context.Context, matchID, side string, record models.ApprovalRecord) error
	SetInsights(ctx context.Context, matchID string, insights []string) error
	UpdateMatchStatus(ctx context.Context, matchID, status string) error
}

// NotificationSink accepts notifications fire-and-forget
type NotificationSink interface {
	EnqueueBatch(ctx context.Context, notifications []models.Notification) error
}

// ApprovalService independently evaluates, for each side of a completed
// conversation, whether that side's human would want the connection, then
// applies the strict two-sided AND rule. Rejections are silent: no
// human-visible rejection state exists anywhere in the system.
type ApprovalService struct {
	Matches  MatchApprovalStore
	Profiles ProfileReader
	Notifier NotificationSink
	LLM      TextGenerator
	Now      func() time.Time
}

// NewApprovalService wires the arbiter against real collaborators
func NewApprovalService(matches MatchApprovalStore, profiles ProfileReader, notifier NotificationSink, llm TextGenerator) *ApprovalService {
	return &ApprovalService{
		Matches:  matches,
		Profiles: profiles,
		Notifier: notifier,
		LLM:      llm,
		Now:      time.Now,
	}
}

type approvalDecision struct {
	Approve    bool    `json:"approve"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// EvaluateMatch runs the two-sided approval protocol for a match whose
// conversation has completed, persists both approval records, transitions
// the match to a terminal status, and notifies both humans only on a
// mutual approval. Safe to re-run: stored decisions are never recomputed
// and a terminal match is left untouched.
func (as *ApprovalService) EvaluateMatch(ctx context.Context, match *models.MindcloneMatch, conversation *models.Conversation, insights []string) error {
	if models.IsTerminalMatchStatus(match.Status) {
		return nil
	}

	profileA, err := as.Profiles.GetProfile(ctx, match.UserAID)
	if err != nil {
		return fmt.Errorf("approval aborted, profile missing for %s: %w", match.UserAID, err)
	}
	profileB, err := as.Profiles.GetProfile(ctx, match.UserBID)
	if err != nil {
		return fmt.Errorf("approval aborted, profile missing for %s: %w", match.UserBID, err)
	}

	if len(insights) > 0 && len(match.Insights) == 0 {
		if err := as.Matches.SetInsights(ctx, match.MatchID, insights); err != nil {
			log.Printf("⚠️ [APPROVAL] Failed to persist insights for match %s: %v", match.MatchID, err)
		}
		match.Insights = insights
	}

	transcript := renderTranscript(conversation.Messages)

	// The two sides' decisions are independent and share no state until
	// commit time, so they are issued concurrently.
	var wg sync.WaitGroup
	decisions := make([]models.ApprovalRecord, 2)
	stored := []*models.ApprovalRecord{match.ApprovalA, match.ApprovalB}
	inputs := []struct {
		own, other *models.MatchingProfile
	}{
		{profileA, profileB},
		{profileB, profileA},
	}

	for i := range inputs {
		if stored[i] != nil {
			// Decision already persisted by an earlier run; never overwrite
			decisions[i] = *stored[i]
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decisions[i] = as.decideForSide(ctx, inputs[i].own, inputs[i].other, match.GoalType, transcript, match.Insights)
		}(i)
	}
	wg.Wait()

	sides := []string{models.SideA, models.SideB}
	for i := range decisions {
		if stored[i] != nil {
			continue
		}
		if err := as.Matches.SetApproval(ctx, match.MatchID, sides[i], decisions[i]); err != nil {
			return err
		}
	}
	match.ApprovalA, match.ApprovalB = &decisions[0], &decisions[1]

	approvalOutcomes.WithLabelValues(outcomeLabel(decisions[0].Approved), outcomeLabel(decisions[1].Approved)).Inc()

	if decisions[0].Approved && decisions[1].Approved {
		return as.commitMutualMatch(ctx, match, profileA, profileB)
	}
	return as.commitSilentRejection(ctx, match)
}

// commitMutualMatch transitions the match to approved and notifies both
// humans. Each human receives only the OTHER side's public info, their own
// mindclone's stated reason, and the other side's stated reason.
func (as *ApprovalService) commitMutualMatch(ctx context.Context, match *models.MindcloneMatch, profileA, profileB *models.MatchingProfile) error {
	if err := as.Matches.UpdateMatchStatus(ctx, match.MatchID, models.MatchStatusApproved); err != nil {
		return err
	}

	now := as.Now().UTC().Format(time.RFC3339)
	notifications := []models.Notification{
		as.buildMatchNotification(match, profileA, profileB, match.ApprovalA, match.ApprovalB, now),
		as.buildMatchNotification(match, profileB, profileA, match.ApprovalB, match.ApprovalA, now),
	}

	// Notification delivery is fire-and-forget from the engine's view
	if err := as.Notifier.EnqueueBatch(ctx, notifications); err != nil {
		log.Printf("⚠️ [APPROVAL] Failed to enqueue mutual-match notifications for %s: %v", match.MatchID, err)
	}

	log.Printf("🎉 [APPROVAL] Mutual match %s: %s x %s", match.MatchID, match.UserAID, match.UserBID)
	return nil
}

// commitSilentRejection terminates the match without any notification.
// From either human's perspective the match is indistinguishable from one
// that was never created.
func (as *ApprovalService) commitSilentRejection(ctx context.Context, match *models.MindcloneMatch) error {
	if err := as.Matches.UpdateMatchStatus(ctx, match.MatchID, models.MatchStatusMindcloneRejected); err != nil {
		return err
	}
	log.Printf("🤫 [APPROVAL] Silent rejection for match %s", match.MatchID)
	return nil
}

func (as *ApprovalService) buildMatchNotification(match *models.MindcloneMatch, recipient, other *models.MatchingProfile, ownRecord, otherRecord *models.ApprovalRecord, now string) models.Notification {
	payload := models.MatchNotificationPayload{
		MatchID:          match.MatchID,
		GoalType:         match.GoalType,
		OtherDisplayName: displayNameFor(other),
		OtherBio:         other.Bio,
		SharedInsights:   match.Insights,
	}
	if ownRecord != nil {
		payload.YourMindcloneReason = ownRecord.Reason
	}
	if otherRecord != nil {
		payload.TheirMindcloneReason = otherRecord.Reason
	}
	// Contact details are gated by their owner's visibility preference
	if other.Preferences.ContactVisibility != models.VisibilityHidden {
		payload.OtherContactInfo = other.ContactInfo
	}

	return models.Notification{
		NotificationID: newNotificationID(),
		RecipientID:    recipient.UserID,
		Category:       models.NotificationMutualMatch,
		Match:          payload,
		CreatedAt:      now,
	}
}

// decideForSide asks one side's persona for an approve/reject decision.
// The decision prompt sees that side's private signals (goals, values,
// looking-for statements) plus only the other side's name and bio; private
// signals are never shared across sides.
func (as *ApprovalService) decideForSide(ctx context.Context, own, other *models.MatchingProfile, goal, transcript string, insights []string) models.ApprovalRecord {
	prompt := buildDecisionPrompt(own, other, goal, transcript, insights)

	text, err := as.LLM.GenerateText(ctx, prompt, GenerateOptions{MaxTokens: 250, Temperature: 0.2})
	if err != nil || strings.TrimSpace(text) == "" {
		// Fail-open: a missed connection costs less than a stuck pipeline
		log.Printf("⚠️ [APPROVAL] Decision backend failed for %s, defaulting to approve: %v", own.UserID, err)
		decisionFallbacks.WithLabelValues("fail_open").Inc()
		return models.ApprovalRecord{
			Approved:   true,
			Confidence: 0.2,
			Reason:     "The evaluation could not be completed, so the connection was allowed to proceed.",
			DecidedAt:  as.Now().UTC().Format(time.RFC3339),
		}
	}

	decision, parsed := parseDecision(text)
	if !parsed {
		log.Printf("⚠️ [APPROVAL] Strict decision parse failed for %s, using keyword heuristic", own.UserID)
		decisionFallbacks.WithLabelValues("keyword").Inc()
		decision = keywordPositivityDecision(text)
	}

	return models.ApprovalRecord{
		Approved:   decision.Approve,
		Confidence: clampConfidence(decision.Confidence),
		Reason:     decision.Reason,
		DecidedAt:  as.Now().UTC().Format(time.RFC3339),
	}
}

func buildDecisionPrompt(own, other *models.MatchingProfile, goal, transcript string, insights []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the private judgment of %s, deciding whether they would genuinely want a %s connection with %s.\n\n", displayNameFor(own), goal, displayNameFor(other))

	fmt.Fprintf(&b, "What %s cares about (private, never shared):\n- Bio: %s\n", displayNameFor(own), own.Bio)
	goalProfile := own.GoalProfileFor(goal)
	if goalProfile.LookingFor != "" {
		fmt.Fprintf(&b, "- Currently looking for: %s\n", goalProfile.LookingFor)
	}
	if len(own.Preferences.Interests) > 0 {
		fmt.Fprintf(&b, "- Interests: %s\n", strings.Join(own.Preferences.Interests, ", "))
	}
	for field, value := range goalProfile.Details {
		fmt.Fprintf(&b, "- %s: %s\n", field, value)
	}

	fmt.Fprintf(&b, "\nThe other person (public info only):\n- Name: %s\n- Bio: %s\n", displayNameFor(other), other.Bio)

	fmt.Fprintf(&b, "\nFull conversation between their agents:\n%s\n", transcript)
	if len(insights) > 0 {
		b.WriteString("\nExtracted insights:\n")
		for _, insight := range insights {
			b.WriteString("- " + insight + "\n")
		}
	}

	b.WriteString(`
Decide whether this connection should be made. Respond with ONLY this JSON, nothing else:
{"approve": true or false, "confidence": 0.0 to 1.0, "reason": "one or two sentences explaining the decision"}`)

	return b.String()
}

// parseDecision attempts a strict schema parse of the decision JSON. Models
// sometimes wrap the JSON in code fences or prose, so the first balanced
// object in the text is extracted before unmarshalling.
func parseDecision(text string) (approvalDecision, bool) {
	raw := extractJSONObject(text)
	if raw == "" {
		return approvalDecision{}, false
	}

	var decision approvalDecision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return approvalDecision{}, false
	}
	if decision.Reason == "" {
		return approvalDecision{}, false
	}
	return decision, true
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

var positiveKeywords = []string{"approve", "yes", "great fit", "good match", "compatible", "connect", "aligned", "strong", "recommend"}
var negativeKeywords = []string{"reject", "no ", "not a fit", "incompatible", "mismatch", "decline", "concerns", "poor match"}

// keywordPositivityDecision is the single explicit fallback heuristic when
// the backend responds with prose instead of the requested JSON. Ties go to
// approve (fail-open).
func keywordPositivityDecision(text string) approvalDecision {
	lowered := strings.ToLower(text)

	positives, negatives := 0, 0
	for _, keyword := range positiveKeywords {
		positives += strings.Count(lowered, keyword)
	}
	for _, keyword := range negativeKeywords {
		negatives += strings.Count(lowered, keyword)
	}

	reason := strings.TrimSpace(text)
	if len(reason) > 240 {
		reason = reason[:240]
	}

	return approvalDecision{
		Approve:    positives >= negatives,
		Confidence: 0.4,
		Reason:     reason,
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func outcomeLabel(approved bool) string {
	if approved {
		return "approve"
	}
	return "reject"
}
