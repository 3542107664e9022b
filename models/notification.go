package models

// MatchNotificationPayload is what a human sees when both mindclones approve.
// YourMindcloneReason is the recipient's own mindclone's private reasoning;
// TheirMindcloneReason is the one the other side chose to state. Contact
// info appears only when the other side's visibility preference allows it.
type MatchNotificationPayload struct {
	MatchID              string   `dynamodbav:"matchId" json:"matchId"`
	GoalType             string   `dynamodbav:"goalType" json:"goalType"`
	OtherDisplayName     string   `dynamodbav:"otherDisplayName" json:"otherDisplayName"`
	OtherBio             string   `dynamodbav:"otherBio,omitempty" json:"otherBio,omitempty"`
	OtherContactInfo     string   `dynamodbav:"otherContactInfo,omitempty" json:"otherContactInfo,omitempty"`
	YourMindcloneReason  string   `dynamodbav:"yourMindcloneReason,omitempty" json:"yourMindcloneReason,omitempty"`
	TheirMindcloneReason string   `dynamodbav:"theirMindcloneReason,omitempty" json:"theirMindcloneReason,omitempty"`
	SharedInsights       []string `dynamodbav:"sharedInsights,omitempty" json:"sharedInsights,omitempty"`
}

// Notification is a queued delivery to one recipient
type Notification struct {
	NotificationID string                   `dynamodbav:"notificationId" json:"notificationId"`
	RecipientID    string                   `dynamodbav:"recipientId" json:"recipientId"`
	Category       string                   `dynamodbav:"category" json:"category"`
	Match          MatchNotificationPayload `dynamodbav:"match,omitempty" json:"match,omitempty"`
	CreatedAt      string                   `dynamodbav:"createdAt" json:"createdAt"`
}

// NotificationsTable is the DynamoDB table name for queued notifications
const NotificationsTable = "Notifications"
