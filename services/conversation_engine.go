package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"mindclone_server/models"
)

// ConversationStore is the view of conversation persistence the engine needs
type ConversationStore interface {
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, message models.ConversationMessage, phase string) error
	MarkComplete(ctx context.Context, conversationID string) error
}

// discoveryQuestions holds the suggested opener topic per goal for rounds
// 1-3, indexed by round.
var discoveryQuestions = map[string][]string{
	models.GoalDating: {
		"what a genuinely good day looks like for you",
		"what you value most in the people closest to you",
		"what you're hoping to find in a relationship right now",
	},
	models.GoalNetworking: {
		"what you're working on at the moment",
		"how you got into your field",
		"what kind of people you most enjoy collaborating with",
	},
	models.GoalInvesting: {
		"what spaces you're most excited to invest in",
		"what your typical check size and stage looks like",
		"what founders you've enjoyed backing and why",
	},
	models.GoalHiring: {
		"what roles you're building for right now",
		"what your team's culture is like day to day",
		"what makes someone thrive in your organization",
	},
	models.GoalFundraising: {
		"what you're building and the problem it solves",
		"what traction you've seen so far",
		"what kind of partner you want around the table",
	},
}

// deepDiveTopics feed rounds 4-7, cycling by (round-4) mod list length
var deepDiveTopics = map[string][]string{
	models.GoalDating: {
		"how you handle disagreement with someone you care about",
		"the role family and close friends play in your life",
		"what you're most proud of outside of work",
		"where you see your life heading in five years",
	},
	models.GoalNetworking: {
		"a hard problem you solved recently and how",
		"where you think your industry is heading",
		"what you wish you could spend more time on",
		"the best piece of professional advice you've received",
	},
	models.GoalInvesting: {
		"how you evaluate a team before a product exists",
		"a contrarian position you hold about the market",
		"how you like to work with founders after investing",
		"a miss you still think about",
	},
	models.GoalHiring: {
		"how you evaluate skills versus potential",
		"what growth looks like for people on your team",
		"a hire that changed how you think about hiring",
		"how you balance speed and quality when building a team",
	},
	models.GoalFundraising: {
		"your unit economics and how they'll evolve",
		"the competitive landscape and your edge",
		"how you plan to use the capital you raise",
		"the biggest risk to your plan and your answer to it",
	},
}

// ConversationEngine drives a bounded-round, phased dialogue between two
// agent personas, producing exactly one new message per invocation.
type ConversationEngine struct {
	Conversations ConversationStore
	Profiles      ProfileReader
	LLM           TextGenerator
	Now           func() time.Time
}

// NewConversationEngine wires an engine against real collaborators
func NewConversationEngine(conversations ConversationStore, profiles ProfileReader, llm TextGenerator) *ConversationEngine {
	return &ConversationEngine{
		Conversations: conversations,
		Profiles:      profiles,
		LLM:           llm,
		Now:           time.Now,
	}
}

// SpeakerForRound returns which side speaks a given round: side A opens and
// takes every odd round, side B every even round.
func SpeakerForRound(round int) string {
	if round%2 == 1 {
		return models.SideA
	}
	return models.SideB
}

// PhaseForRound maps a round number onto the fixed phase progression
func PhaseForRound(round int) string {
	switch {
	case round <= 3:
		return models.PhaseDiscovery
	case round <= 7:
		return models.PhaseDeepDive
	default:
		return models.PhaseCompatibilityCheck
	}
}

// topicGuidance returns the phase-appropriate guidance string for a round
func topicGuidance(goal string, round int) string {
	switch PhaseForRound(round) {
	case models.PhaseDiscovery:
		questions := discoveryQuestions[goal]
		if len(questions) == 0 {
			questions = discoveryQuestions[models.GoalNetworking]
		}
		idx := round - 1
		if idx >= len(questions) {
			idx = len(questions) - 1
		}
		return "You are getting to know each other. Steer toward: " + questions[idx] + "."
	case models.PhaseDeepDive:
		topics := deepDiveTopics[goal]
		if len(topics) == 0 {
			topics = deepDiveTopics[models.GoalNetworking]
		}
		return "Go deeper. Explore: " + topics[(round-4)%len(topics)] + "."
	default:
		if round >= models.MaxConversationRounds {
			return "This is the final exchange. Give your honest assessment of how compatible the two of you are and whether a real connection makes sense."
		}
		return "Wrap up naturally. Reflect on what you've learned about each other and whether your goals line up."
	}
}

// AdvanceConversation advances the conversation of a match by one round.
// It returns the refreshed conversation and whether a message was produced;
// an already-complete conversation comes back untouched. A failed or empty
// generation abandons the turn without advancing state.
func (e *ConversationEngine) AdvanceConversation(ctx context.Context, match *models.MindcloneMatch) (*models.Conversation, bool, error) {
	conversation, err := e.Conversations.GetConversation(ctx, match.ConversationID)
	if err != nil {
		return nil, false, fmt.Errorf("conversation %s missing for match %s: %w", match.ConversationID, match.MatchID, err)
	}
	if conversation.IsComplete() {
		return conversation, false, nil
	}

	nextRound := conversation.CurrentRound + 1
	side := SpeakerForRound(nextRound)

	speakerID, listenerID := match.UserAID, match.UserBID
	if side == models.SideB {
		speakerID, listenerID = match.UserBID, match.UserAID
	}

	speaker, err := e.Profiles.GetProfile(ctx, speakerID)
	if err != nil {
		return conversation, false, fmt.Errorf("speaker profile missing: %w", err)
	}
	listener, err := e.Profiles.GetProfile(ctx, listenerID)
	if err != nil {
		return conversation, false, fmt.Errorf("listener profile missing: %w", err)
	}

	prompt := buildPersonaPrompt(speaker, listener, match.GoalType, nextRound, conversation.Messages)

	text, err := e.LLM.GenerateText(ctx, prompt, GenerateOptions{MaxTokens: 250, Temperature: 0.8})
	if err != nil || strings.TrimSpace(text) == "" {
		return conversation, false, fmt.Errorf("no message produced for round %d of match %s: %w", nextRound, match.MatchID, err)
	}

	message := models.ConversationMessage{
		Side:       side,
		SenderName: personaNameFor(speaker),
		Content:    strings.TrimSpace(text),
		Round:      nextRound,
		CreatedAt:  e.Now().UTC().Format(time.RFC3339),
	}
	phase := PhaseForRound(nextRound)
	if err := e.Conversations.AppendMessage(ctx, conversation.ConversationID, message, phase); err != nil {
		return conversation, false, err
	}

	conversation.Messages = append(conversation.Messages, message)
	conversation.CurrentRound = nextRound
	conversation.Phase = phase

	log.Printf("💬 [CONVERSATION] Match %s round %d (%s, side %s)", match.MatchID, nextRound, phase, side)
	return conversation, true, nil
}

// FinishConversation runs the insight-extraction pass and marks the
// conversation complete exactly once. Insight failure is non-fatal: a
// completed conversation without insights still goes to approval.
func (e *ConversationEngine) FinishConversation(ctx context.Context, match *models.MindcloneMatch, conversation *models.Conversation) ([]string, error) {
	if conversation.CompletedAt != "" {
		return match.Insights, nil
	}

	insights := e.extractInsights(ctx, match.GoalType, conversation.Messages)

	if err := e.Conversations.MarkComplete(ctx, conversation.ConversationID); err != nil {
		return nil, err
	}
	conversation.CompletedAt = e.Now().UTC().Format(time.RFC3339)

	log.Printf("✅ [CONVERSATION] Match %s conversation complete (%d insights)", match.MatchID, len(insights))
	return insights, nil
}

func (e *ConversationEngine) extractInsights(ctx context.Context, goal string, messages []models.ConversationMessage) []string {
	prompt := fmt.Sprintf(`Below is a complete conversation between two people exploring a %s connection.

%s

Summarize the conversation into exactly %d short bullet insights about what these two people have in common, where they differ, and whether their goals align. One sentence per bullet, each starting with "- ".`,
		goal, renderTranscript(messages), models.InsightCount)

	text, err := e.LLM.GenerateText(ctx, prompt, GenerateOptions{MaxTokens: 300, Temperature: 0.3})
	if err != nil {
		log.Printf("⚠️ [CONVERSATION] Insight extraction failed: %v", err)
		return nil
	}

	var insights []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•*0123456789. ")
		if line == "" {
			continue
		}
		insights = append(insights, line)
		if len(insights) == models.InsightCount {
			break
		}
	}
	return insights
}

// buildPersonaPrompt assembles the persona prompt for the speaking side.
// The persona speaks in first person as the human it represents and must
// never reveal it is an artificial agent.
func buildPersonaPrompt(speaker, listener *models.MatchingProfile, goal string, round int, history []models.ConversationMessage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, speaking in first person. You ARE this person; never mention being an AI, an agent, or a representative.\n\n", personaNameFor(speaker))

	fmt.Fprintf(&b, "About you:\n- Bio: %s\n", speaker.Bio)
	goalProfile := speaker.GoalProfileFor(goal)
	if goalProfile.LookingFor != "" {
		fmt.Fprintf(&b, "- What you're looking for (%s): %s\n", goal, goalProfile.LookingFor)
	}
	for field, value := range goalProfile.Details {
		fmt.Fprintf(&b, "- %s: %s\n", field, value)
	}
	if len(goalProfile.ShareableFacts) > 0 {
		b.WriteString("- Things about yourself you're happy to share: " + strings.Join(goalProfile.ShareableFacts, "; ") + "\n")
	}
	if len(speaker.KnowledgeSnippets) > 0 {
		snippets := speaker.KnowledgeSnippets
		if len(snippets) > 3 {
			snippets = snippets[:3]
		}
		b.WriteString("- Background knowledge you can draw on: " + strings.Join(snippets, " | ") + "\n")
	}

	fmt.Fprintf(&b, "\nYou are talking with %s to see whether a %s connection makes sense.\n", displayNameFor(listener), goal)

	if len(history) > 0 {
		b.WriteString("\nConversation so far (most recent last):\n")
		start := 0
		if len(history) > models.ConversationContextWindow {
			start = len(history) - models.ConversationContextWindow
		}
		for _, msg := range history[start:] {
			fmt.Fprintf(&b, "%s: %s\n", msg.SenderName, msg.Content)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", topicGuidance(goal, round))
	b.WriteString("\nReply with your next message only: 2-4 sentences, warm and specific, ending with a question where it feels natural.")

	return b.String()
}

func renderTranscript(messages []models.ConversationMessage) string {
	var b strings.Builder
	for _, msg := range messages {
		fmt.Fprintf(&b, "%s: %s\n", msg.SenderName, msg.Content)
	}
	return b.String()
}

func personaNameFor(p *models.MatchingProfile) string {
	if p.PersonaName != "" {
		return p.PersonaName
	}
	return displayNameFor(p)
}

func displayNameFor(p *models.MatchingProfile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.UserID
}
