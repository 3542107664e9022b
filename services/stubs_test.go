package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mindclone_server/models"
)

// fixedClock is the deterministic Now used across engine tests
func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

// stubGenerator returns scripted responses in order, then repeats the last
// one. A nil script or an entry whose err is set simulates backend failure.
type stubGenerator struct {
	mu        sync.Mutex
	responses []stubResponse
	respond   func(prompt string) (string, error)
	prompts   []string
	calls     int
}

type stubResponse struct {
	text string
	err  error
}

func (g *stubGenerator) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.calls++
	if g.respond != nil {
		return g.respond(prompt)
	}
	if len(g.responses) == 0 {
		return "", errors.New("no response scripted")
	}
	idx := g.calls - 1
	if idx >= len(g.responses) {
		idx = len(g.responses) - 1
	}
	return g.responses[idx].text, g.responses[idx].err
}

// fakeProfileStore serves profiles from memory
type fakeProfileStore struct {
	profiles map[string]*models.MatchingProfile
}

func newFakeProfileStore(profiles ...*models.MatchingProfile) *fakeProfileStore {
	store := &fakeProfileStore{profiles: map[string]*models.MatchingProfile{}}
	for _, p := range profiles {
		store.profiles[p.UserID] = p
	}
	return store
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, userID string) (*models.MatchingProfile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return profile, nil
}

func (f *fakeProfileStore) GetActiveProfilesForGoal(ctx context.Context, goal string) ([]models.MatchingProfile, error) {
	var result []models.MatchingProfile
	for _, p := range f.profiles {
		if p.IsActive && p.HasGoal(goal) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (f *fakeProfileStore) GetActiveProfiles(ctx context.Context) ([]models.MatchingProfile, error) {
	var result []models.MatchingProfile
	for _, p := range f.profiles {
		if p.IsActive {
			result = append(result, *p)
		}
	}
	return result, nil
}

// fakeMatchStore keeps matches in memory and records mutations
type fakeMatchStore struct {
	mu        sync.Mutex
	matches   map[string]*models.MindcloneMatch
	statusLog []string
}

func newFakeMatchStore(matches ...*models.MindcloneMatch) *fakeMatchStore {
	store := &fakeMatchStore{matches: map[string]*models.MindcloneMatch{}}
	for _, m := range matches {
		store.matches[m.MatchID] = m
	}
	return store
}

func (f *fakeMatchStore) FindMatchForPair(ctx context.Context, userX, userY, goalType string) (*models.MindcloneMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.GoalType != goalType {
			continue
		}
		if (m.UserAID == userX && m.UserBID == userY) || (m.UserAID == userY && m.UserBID == userX) {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMatchStore) GetConversingMatches(ctx context.Context) ([]models.MindcloneMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.MindcloneMatch
	for _, m := range f.matches {
		if m.Status == models.MatchStatusConversing {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (f *fakeMatchStore) CreateMatch(ctx context.Context, matchID, userAID, userBID, goalType string, score CompatibilityResult, conversationID string) (*models.MindcloneMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match := &models.MindcloneMatch{
		MatchID:        matchID,
		UserAID:        userAID,
		UserBID:        userBID,
		GoalType:       goalType,
		Status:         models.MatchStatusConversing,
		Score:          score.Score,
		Breakdown:      score.Breakdown,
		ConversationID: conversationID,
		CreatedAt:      fixedClock().Format(time.RFC3339),
		ExpiresAt:      fixedClock().AddDate(0, 0, models.MatchTTLDays).Format(time.RFC3339),
	}
	f.matches[matchID] = match
	return match, nil
}

func (f *fakeMatchStore) UpdateMatchStatus(ctx context.Context, matchID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchID]
	if !ok {
		return ErrItemNotFound
	}
	match.Status = status
	f.statusLog = append(f.statusLog, matchID+"="+status)
	return nil
}

func (f *fakeMatchStore) SetApproval(ctx context.Context, matchID, side string, record models.ApprovalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchID]
	if !ok {
		return ErrItemNotFound
	}
	if side == models.SideA {
		match.ApprovalA = &record
	} else {
		match.ApprovalB = &record
	}
	return nil
}

func (f *fakeMatchStore) SetInsights(ctx context.Context, matchID string, insights []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchID]
	if !ok {
		return ErrItemNotFound
	}
	match.Insights = insights
	return nil
}

// fakeConversationStore keeps conversations in memory
type fakeConversationStore struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	appendErr     error
}

func newFakeConversationStore(conversations ...*models.Conversation) *fakeConversationStore {
	store := &fakeConversationStore{conversations: map[string]*models.Conversation{}}
	for _, c := range conversations {
		store.conversations[c.ConversationID] = c
	}
	return store
}

func (f *fakeConversationStore) CreateConversation(ctx context.Context, matchID string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation := &models.Conversation{
		ConversationID: "conv-" + matchID,
		MatchID:        matchID,
		Phase:          models.PhaseDiscovery,
		CreatedAt:      fixedClock().Format(time.RFC3339),
	}
	f.conversations[conversation.ConversationID] = conversation
	return conversation, nil
}

func (f *fakeConversationStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation, ok := f.conversations[conversationID]
	if !ok {
		return nil, ErrItemNotFound
	}
	clone := *conversation
	clone.Messages = append([]models.ConversationMessage(nil), conversation.Messages...)
	return &clone, nil
}

func (f *fakeConversationStore) AppendMessage(ctx context.Context, conversationID string, message models.ConversationMessage, phase string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	conversation, ok := f.conversations[conversationID]
	if !ok {
		return ErrItemNotFound
	}
	conversation.Messages = append(conversation.Messages, message)
	conversation.CurrentRound = message.Round
	conversation.Phase = phase
	return nil
}

func (f *fakeConversationStore) MarkComplete(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation, ok := f.conversations[conversationID]
	if !ok {
		return ErrItemNotFound
	}
	if conversation.CompletedAt == "" {
		conversation.CompletedAt = fixedClock().Format(time.RFC3339)
	}
	return nil
}

// fakeNotificationSink records every enqueued notification
type fakeNotificationSink struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (f *fakeNotificationSink) EnqueueBatch(ctx context.Context, notifications []models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, notifications...)
	return nil
}

// fakeStateTracker counts per-user attempts and deltas in memory
type fakeStateTracker struct {
	mu        sync.Mutex
	attempts  map[string]int
	active    map[string]int
	pending   map[string]int
	atLimit   map[string]bool
}

func newFakeStateTracker() *fakeStateTracker {
	return &fakeStateTracker{
		attempts: map[string]int{},
		active:   map[string]int{},
		pending:  map[string]int{},
		atLimit:  map[string]bool{},
	}
}

func (f *fakeStateTracker) HasReachedDailyLimit(ctx context.Context, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.atLimit[userID] || f.attempts[userID] >= models.DailyMatchLimit
}

func (f *fakeStateTracker) RecordAttempt(ctx context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[userID]++
}

func (f *fakeStateTracker) AddActiveConversations(ctx context.Context, userID string, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[userID] += delta
}

func (f *fakeStateTracker) AddPendingApprovals(ctx context.Context, userID string, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[userID] += delta
}

// fakeLeaseKeeper tracks held leases in memory; keys in denied always
// refuse acquisition.
type fakeLeaseKeeper struct {
	mu     sync.Mutex
	held   map[string]bool
	denied map[string]bool
}

func newFakeLeaseKeeper() *fakeLeaseKeeper {
	return &fakeLeaseKeeper{held: map[string]bool{}, denied: map[string]bool{}}
}

func (f *fakeLeaseKeeper) Acquire(ctx context.Context, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied[key] || f.held[key] {
		return false
	}
	f.held[key] = true
	return true
}

func (f *fakeLeaseKeeper) Release(ctx context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
}

// testProfile builds a reasonably complete active profile for one goal
func testProfile(userID, goal string) *models.MatchingProfile {
	return &models.MatchingProfile{
		UserID:      userID,
		DisplayName: "User " + userID,
		PersonaName: "Persona " + userID,
		Bio:         fmt.Sprintf("A thoughtful builder named %s with a long history of shipping products people love and mentoring teams along the way.", userID),
		ContactInfo: userID + "@example.com",
		Goals:       map[string]bool{goal: true},
		GoalProfiles: map[string]models.GoalProfile{
			goal: {
				LookingFor: "a genuine connection",
			},
		},
		Preferences: models.MatchingPreferences{
			Interests:  []string{"climbing", "chess", "cooking"},
			Industries: []string{"software"},
		},
		IsActive:  true,
		CreatedAt: fixedClock().Format(time.RFC3339),
	}
}

// testMatch builds a conversing match with its conversation id wired
func testMatch(matchID, userA, userB, goal string) *models.MindcloneMatch {
	return &models.MindcloneMatch{
		MatchID:        matchID,
		UserAID:        userA,
		UserBID:        userB,
		GoalType:       goal,
		Status:         models.MatchStatusConversing,
		Score:          80,
		ConversationID: "conv-" + matchID,
		CreatedAt:      fixedClock().Format(time.RFC3339),
		ExpiresAt:      fixedClock().AddDate(0, 0, models.MatchTTLDays).Format(time.RFC3339),
	}
}
