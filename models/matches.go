package models

// ScoreBreakdown carries the per-factor compatibility scores (each 0-100)
type ScoreBreakdown struct {
	GoalAlignment      int `dynamodbav:"goalAlignment" json:"goalAlignment"`
	ValuesAlignment    int `dynamodbav:"valuesAlignment" json:"valuesAlignment"`
	ExpertiseRelevance int `dynamodbav:"expertiseRelevance" json:"expertiseRelevance"`
	CommunicationFit   int `dynamodbav:"communicationFit" json:"communicationFit"`
}

// ApprovalRecord is one side's autonomous decision about a completed
// conversation. The reason is private to that side's own human.
type ApprovalRecord struct {
	Approved   bool    `dynamodbav:"approved" json:"approved"`
	Confidence float64 `dynamodbav:"confidence" json:"confidence"`
	Reason     string  `dynamodbav:"reason,omitempty" json:"reason,omitempty"`
	DecidedAt  string  `dynamodbav:"decidedAt,omitempty" json:"decidedAt,omitempty"`
}

// MindcloneMatch is a candidate pairing between two users for one goal type.
// Ordering of A vs B matters only for turn-taking, never for priority.
type MindcloneMatch struct {
	MatchID        string          `dynamodbav:"matchId" json:"matchId"`
	UserAID        string          `dynamodbav:"userAId" json:"userAId"`
	UserBID        string          `dynamodbav:"userBId" json:"userBId"`
	GoalType       string          `dynamodbav:"goalType" json:"goalType"`
	Status         string          `dynamodbav:"status" json:"status"`
	Score          int             `dynamodbav:"score" json:"score"`
	Breakdown      ScoreBreakdown  `dynamodbav:"breakdown" json:"breakdown"`
	ConversationID string          `dynamodbav:"conversationId" json:"conversationId"`
	ApprovalA      *ApprovalRecord `dynamodbav:"approvalA,omitempty" json:"approvalA,omitempty"`
	ApprovalB      *ApprovalRecord `dynamodbav:"approvalB,omitempty" json:"approvalB,omitempty"`
	Insights       []string        `dynamodbav:"insights,omitempty" json:"insights,omitempty"`
	CreatedAt      string          `dynamodbav:"createdAt" json:"createdAt"`
	LastActivityAt string          `dynamodbav:"lastActivityAt,omitempty" json:"lastActivityAt,omitempty"`
	ExpiresAt      string          `dynamodbav:"expiresAt" json:"expiresAt"`
}

// Involves reports whether userID is one of the two participants
func (m *MindcloneMatch) Involves(userID string) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// OtherUser returns the participant opposite to userID ("" if not a participant)
func (m *MindcloneMatch) OtherUser(userID string) string {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	}
	return ""
}

// MatchesTable is the DynamoDB table name for mindclone matches
const MatchesTable = "MindcloneMatches"
