package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mindclone_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(store *fakeConversationStore, profiles *fakeProfileStore, llm *stubGenerator) *ConversationEngine {
	engine := NewConversationEngine(store, profiles, llm)
	engine.Now = fixedClock
	return engine
}

func TestSpeakerForRoundAlternates(t *testing.T) {
	assert.Equal(t, models.SideA, SpeakerForRound(1))
	assert.Equal(t, models.SideB, SpeakerForRound(2))
	assert.Equal(t, models.SideA, SpeakerForRound(9))
	assert.Equal(t, models.SideB, SpeakerForRound(10))
}

func TestPhaseForRoundProgression(t *testing.T) {
	for round := 1; round <= 3; round++ {
		assert.Equal(t, models.PhaseDiscovery, PhaseForRound(round))
	}
	for round := 4; round <= 7; round++ {
		assert.Equal(t, models.PhaseDeepDive, PhaseForRound(round))
	}
	for round := 8; round <= 10; round++ {
		assert.Equal(t, models.PhaseCompatibilityCheck, PhaseForRound(round))
	}
}

func TestTopicGuidanceCyclesDeepDiveTopics(t *testing.T) {
	topics := deepDiveTopics[models.GoalNetworking]
	require.Len(t, topics, 4)

	for round := 4; round <= 7; round++ {
		guidance := topicGuidance(models.GoalNetworking, round)
		assert.Contains(t, guidance, topics[round-4])
	}
}

func TestTopicGuidanceFinalRound(t *testing.T) {
	guidance := topicGuidance(models.GoalDating, models.MaxConversationRounds)
	assert.Contains(t, guidance, "final exchange")
}

func TestAdvanceConversationAppendsOneRound(t *testing.T) {
	match := testMatch("m1", "alice", "bob", models.GoalNetworking)
	store := newFakeConversationStore(&models.Conversation{
		ConversationID: match.ConversationID,
		MatchID:        match.MatchID,
		Phase:          models.PhaseDiscovery,
	})
	profiles := newFakeProfileStore(
		testProfile("alice", models.GoalNetworking),
		testProfile("bob", models.GoalNetworking),
	)
	llm := &stubGenerator{responses: []stubResponse{{text: "Hi Bob! I build tooling for data teams. What are you working on?"}}}
	engine := newTestEngine(store, profiles, llm)

	conv, produced, err := engine.AdvanceConversation(context.Background(), match)

	require.NoError(t, err)
	assert.True(t, produced)
	assert.Equal(t, 1, conv.CurrentRound)
	assert.Equal(t, models.PhaseDiscovery, conv.Phase)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, models.SideA, conv.Messages[0].Side)
	assert.Equal(t, "Persona alice", conv.Messages[0].SenderName)

	// Side A's private profile feeds the prompt; side B appears by name only
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Persona alice")
	assert.Contains(t, llm.prompts[0], "User bob")
	assert.NotContains(t, llm.prompts[0], "AI assistant")
}

func TestAdvanceConversationEvenRoundSpeaksSideB(t *testing.T) {
	match := testMatch("m1", "alice", "bob", models.GoalNetworking)
	store := newFakeConversationStore(&models.Conversation{
		ConversationID: match.ConversationID,
		MatchID:        match.MatchID,
		CurrentRound:   1,
		Phase:          models.PhaseDiscovery,
		Messages: []models.ConversationMessage{
			{Side: models.SideA, SenderName: "Persona alice", Content: "Hello!", Round: 1},
		},
	})
	profiles := newFakeProfileStore(
		testProfile("alice", models.GoalNetworking),
		testProfile("bob", models.GoalNetworking),
	)
	llm := &stubGenerator{responses: []stubResponse{{text: "Hi Alice, great to meet you."}}}
	engine := newTestEngine(store, profiles, llm)

	conv, produced, err := engine.AdvanceConversation(context.Background(), match)

	require.NoError(t, err)
	assert.True(t, produced)
	assert.Equal(t, models.SideB, conv.Messages[1].Side)
	// The prior message reaches the speaker as conversation history
	assert.Contains(t, llm.prompts[0], "Hello!")
}

func TestAdvanceConversationAbandonsTurnOnBackendFailure(t *testing.T) {
	match := testMatch("m1", "alice", "bob", models.GoalNetworking)
	store := newFakeConversationStore(&models.Conversation{
		ConversationID: match.ConversationID,
		MatchID:        match.MatchID,
	})
	profiles := newFakeProfileStore(
		testProfile("alice", models.GoalNetworking),
		testProfile("bob", models.GoalNetworking),
	)
	llm := &stubGenerator{responses: []stubResponse{{err: errors.New("backend down")}}}
	engine := newTestEngine(store, profiles, llm)

	_, produced, err := engine.AdvanceConversation(context.Background(), match)

	require.Error(t, err)
	assert.False(t, produced)

	// No partial state: the stored conversation did not advance
	stored, _ := store.GetConversation(context.Background(), match.ConversationID)
	assert.Equal(t, 0, stored.CurrentRound)
	assert.Empty(t, stored.Messages)
}

func TestAdvanceConversationEmptyGenerationAbandonsTurn(t *testing.T) {
	match := testMatch("m1", "alice", "bob", models.GoalNetworking)
	store := newFakeConversationStore(&models.Conversation{
		ConversationID: match.ConversationID,
		MatchID:        match.MatchID,
	})
	profiles := newFakeProfileStore(
		testProfile("alice", models.GoalNetworking),
		testProfile("bob", models.GoalNetworking),
	)
	llm := &stubGenerator{responses: []stubResponse{{text: "   \n"}}}
	engine := newTestEngine(store, profiles, llm)

	_, produced, err := engine.AdvanceConversation(context.Background(), match)

	require.Error(t, err)
	assert.False(t, produced)
}

func TestAdvanceConversationLeavesCompleteConversationUntouched(t *testing.T) {
	match := testMatch("m1", "alice", "bob", models.GoalNetworking)
	store := newFakeConversationStore(&models.Conversation{
		ConversationID: match.ConversationID,
		MatchID:        match.MatchID,
		CurrentRound:   models.MaxConversationRounds,
		CompletedAt:    fixedClock().Format(time.RFC3339),
	})
	llm := &stubGenerator{}
	engine := newTestEngine(store, newFakeProfileStore(), llm)

	conv, produced, err := engine.AdvanceConversation(context.Background(), match)

	require.NoError(t, err)
	assert.False(t, produced)
	assert.True(t, conv.IsComplete())
	assert.Zero(t, llm.calls)
}

func TestFinishConversationExtractsInsightsOnce(t *testing.T) {
	match := testMatch("m1", "alice", "bob", models.GoalNetworking)
	conversation := &models.Conversation{
		ConversationID: match.ConversationID,
		MatchID:        match.MatchID,
		CurrentRound:   models.MaxConversationRounds,
		Messages: []models.ConversationMessage{
			{SenderName: "Persona alice", Content: "We both love infrastructure.", Round: 9},
			{SenderName: "Persona bob", Content: "Agreed, we should connect.", Round: 10},
		},
	}
	store := newFakeConversationStore(conversation)
	llm := &stubGenerator{responses: []stubResponse{{text: strings.Join([]string{
		"- Both work in infrastructure tooling.",
		"- They share a mentoring mindset.",
		"- Their collaboration styles are similar.",
		"- Goals align on professional networking.",
		"- No significant friction surfaced.",
	}, "\n")}}}
	engine := newTestEngine(store, newFakeProfileStore(), llm)

	insights, err := engine.FinishConversation(context.Background(), match, conversation)

	require.NoError(t, err)
	require.Len(t, insights, models.InsightCount)
	assert.Equal(t, "Both work in infrastructure tooling.", insights[0])
	assert.NotEmpty(t, conversation.CompletedAt)

	// Second call is a no-op returning the stored insights
	match.Insights = insights
	again, err := engine.FinishConversation(context.Background(), match, conversation)
	require.NoError(t, err)
	assert.Equal(t, insights, again)
	assert.Equal(t, 1, llm.calls)
}

func TestFinishConversationSurvivesInsightFailure(t *testing.T) {
	match := testMatch("m1", "alice", "bob", models.GoalNetworking)
	conversation := &models.Conversation{
		ConversationID: match.ConversationID,
		MatchID:        match.MatchID,
		CurrentRound:   models.MaxConversationRounds,
	}
	store := newFakeConversationStore(conversation)
	llm := &stubGenerator{responses: []stubResponse{{err: errors.New("backend down")}}}
	engine := newTestEngine(store, newFakeProfileStore(), llm)

	insights, err := engine.FinishConversation(context.Background(), match, conversation)

	require.NoError(t, err, "insight failure must not block completion")
	assert.Nil(t, insights)
	assert.NotEmpty(t, conversation.CompletedAt)
}
