package models

// MatchingState holds a user's daily matching counters. It is purely a
// rate-limiting gate and is never part of a match's identity. Attempts
// reset when the stored date differs from today; pending/active counts
// persist across the reset.
type MatchingState struct {
	UserID                string `dynamodbav:"userId" json:"userId"`
	DailyMatchesAttempted int    `dynamodbav:"dailyMatchesAttempted" json:"dailyMatchesAttempted"`
	PendingApprovals      int    `dynamodbav:"pendingApprovals" json:"pendingApprovals"`
	ActiveConversations   int    `dynamodbav:"activeConversations" json:"activeConversations"`
	LastResetDate         string `dynamodbav:"lastResetDate,omitempty" json:"lastResetDate,omitempty"`
}

// MatchingStateTable is the DynamoDB table name for per-user matching state
const MatchingStateTable = "MatchingState"
