package models

// ✅ Goal types a mindclone can match on
const (
	GoalDating      = "dating"
	GoalNetworking  = "networking"
	GoalInvesting   = "investing"
	GoalHiring      = "hiring"
	GoalFundraising = "fundraising"
)

// AllGoalTypes is the fixed iteration order for per-goal processing
var AllGoalTypes = []string{GoalDating, GoalNetworking, GoalInvesting, GoalHiring, GoalFundraising}

// ✅ Match lifecycle statuses
const (
	MatchStatusConversing        = "conversing"
	MatchStatusApproved          = "approved"
	MatchStatusMindcloneRejected = "mindclone_rejected"
	MatchStatusExpired           = "expired"
)

// IsTerminalMatchStatus reports whether a match can no longer change
func IsTerminalMatchStatus(status string) bool {
	return status == MatchStatusApproved ||
		status == MatchStatusMindcloneRejected ||
		status == MatchStatusExpired
}

// ✅ Conversation phases (fixed by round number)
const (
	PhaseDiscovery          = "discovery"
	PhaseDeepDive           = "deep_dive"
	PhaseCompatibilityCheck = "compatibility_check"
)

// ✅ Contact visibility preferences
const (
	VisibilityPublic      = "public"
	VisibilityMatchesOnly = "matches_only"
	VisibilityHidden      = "hidden"
)

// ✅ Notification categories
const (
	NotificationMutualMatch = "mutual_match"
)

// Conversation sides ("A" opens and speaks odd rounds, "B" speaks even rounds)
const (
	SideA = "A"
	SideB = "B"
)

// Engine limits
const (
	MaxConversationRounds      = 10
	CompatibilityThreshold     = 65
	DailyMatchLimit            = 2
	MatchTTLDays               = 7
	MaxTurnsPerHeartbeat       = 2
	HeartbeatConversationBatch = 10
	HeartbeatProfileBatch      = 20
	HeartbeatNewMatchQuota     = 5
	ConversationContextWindow  = 6
	InsightCount               = 5
)
