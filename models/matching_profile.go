package models

// GoalProfile holds the free-form, goal-specific part of a matching profile
type GoalProfile struct {
	LinkGoal       string            `dynamodbav:"linkGoal,omitempty" json:"linkGoal,omitempty"`
	LookingFor     string            `dynamodbav:"lookingFor,omitempty" json:"lookingFor,omitempty"`
	Details        map[string]string `dynamodbav:"details,omitempty" json:"details,omitempty"`
	ShareableFacts []string          `dynamodbav:"shareableFacts,omitempty" json:"shareableFacts,omitempty"`
}

// MatchingPreferences controls how a user is matched and what gets shared
type MatchingPreferences struct {
	Interests         []string `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	Industries        []string `dynamodbav:"industries,omitempty" json:"industries,omitempty"`
	ContactVisibility string   `dynamodbav:"contactVisibility,omitempty" json:"contactVisibility,omitempty"`
}

// MatchingProfile defines the per-user matching profile. It is owned
// exclusively by its user; the other side of a match never writes to it.
type MatchingProfile struct {
	UserID            string                 `dynamodbav:"userId" json:"userId"`
	DisplayName       string                 `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	PersonaName       string                 `dynamodbav:"personaName,omitempty" json:"personaName,omitempty"`
	Bio               string                 `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	ContactInfo       string                 `dynamodbav:"contactInfo,omitempty" json:"contactInfo,omitempty"`
	Goals             map[string]bool        `dynamodbav:"goals,omitempty" json:"goals,omitempty"`
	GoalProfiles      map[string]GoalProfile `dynamodbav:"goalProfiles,omitempty" json:"goalProfiles,omitempty"`
	Preferences       MatchingPreferences    `dynamodbav:"preferences,omitempty" json:"preferences,omitempty"`
	KnowledgeSnippets []string               `dynamodbav:"knowledgeSnippets,omitempty" json:"knowledgeSnippets,omitempty"`
	IsActive          bool                   `dynamodbav:"isActive" json:"isActive"`
	HasKnowledgeBase  bool                   `dynamodbav:"hasKnowledgeBase" json:"hasKnowledgeBase"`
	CreatedAt         string                 `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt         string                 `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// HasGoal reports whether the profile has a goal flag enabled
func (p *MatchingProfile) HasGoal(goal string) bool {
	return p.Goals != nil && p.Goals[goal]
}

// GoalProfileFor returns the goal-specific sub-profile, zero-valued if unset
func (p *MatchingProfile) GoalProfileFor(goal string) GoalProfile {
	if p.GoalProfiles == nil {
		return GoalProfile{}
	}
	return p.GoalProfiles[goal]
}

// MatchingProfilesTable is the DynamoDB table name for matching profiles
const MatchingProfilesTable = "MatchingProfiles"
