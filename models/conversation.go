package models

// ConversationMessage is one agent turn inside a conversation
type ConversationMessage struct {
	Side       string `dynamodbav:"side" json:"side"`
	SenderName string `dynamodbav:"senderName" json:"senderName"`
	Content    string `dynamodbav:"content" json:"content"`
	Round      int    `dynamodbav:"round" json:"round"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
}

// Conversation is the turn-by-turn dialogue belonging to exactly one match.
// Rounds increase strictly by one per appended message; completedAt is set
// exactly once, when currentRound reaches MaxConversationRounds.
type Conversation struct {
	ConversationID string                `dynamodbav:"conversationId" json:"conversationId"`
	MatchID        string                `dynamodbav:"matchId" json:"matchId"`
	Messages       []ConversationMessage `dynamodbav:"messages,omitempty" json:"messages,omitempty"`
	CurrentRound   int                   `dynamodbav:"currentRound" json:"currentRound"`
	Phase          string                `dynamodbav:"phase,omitempty" json:"phase,omitempty"`
	CompletedAt    string                `dynamodbav:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt      string                `dynamodbav:"createdAt" json:"createdAt"`
}

// IsComplete reports whether the conversation has been concluded
func (c *Conversation) IsComplete() bool {
	return c.CompletedAt != "" || c.CurrentRound >= MaxConversationRounds
}

// ConversationsTable is the DynamoDB table name for mindclone conversations
const ConversationsTable = "MindcloneConversations"
