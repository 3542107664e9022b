package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mindclone_server/models"
	"mindclone_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/patrickmn/go-cache"
)

// ProfileService manages matching profiles. Reads go through a short-TTL
// cache since the heartbeat re-reads the same profiles many times per tick.
type ProfileService struct {
	Dynamo *DynamoService
	cache  *cache.Cache
}

// NewProfileService creates a ProfileService with a 5-minute read cache
func NewProfileService(dynamo *DynamoService) *ProfileService {
	return &ProfileService{
		Dynamo: dynamo,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

// GetProfile retrieves a matching profile by user ID
func (ps *ProfileService) GetProfile(ctx context.Context, userID string) (*models.MatchingProfile, error) {
	if cached, found := ps.cache.Get(userID); found {
		profile := cached.(models.MatchingProfile)
		return &profile, nil
	}

	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := ps.Dynamo.GetItem(ctx, models.MatchingProfilesTable, key)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, fmt.Errorf("matching profile not found for user %s: %w", userID, err)
		}
		return nil, err
	}

	var profile models.MatchingProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	ps.cache.Set(userID, profile, cache.DefaultExpiration)
	return &profile, nil
}

// PutProfile creates or replaces a matching profile (owner-initiated only)
func (ps *ProfileService) PutProfile(ctx context.Context, profile models.MatchingProfile) (*models.MatchingProfile, error) {
	if profile.UserID == "" {
		return nil, errors.New("profile userId is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if profile.CreatedAt == "" {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if profile.Preferences.ContactVisibility == "" {
		profile.Preferences.ContactVisibility = models.VisibilityMatchesOnly
	}

	if err := ps.Dynamo.PutItem(ctx, models.MatchingProfilesTable, profile); err != nil {
		return nil, err
	}
	ps.cache.Delete(profile.UserID)

	log.Printf("✅ Matching profile saved for user %s", profile.UserID)
	return &profile, nil
}

// UpdateProfileFields applies a targeted field update to a profile
func (ps *ProfileService) UpdateProfileFields(ctx context.Context, userID string, updates map[string]interface{}) (*models.MatchingProfile, error) {
	updates["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	expression, values, names, err := BuildSetExpression(updates)
	if err != nil {
		return nil, err
	}

	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	updatedItem, err := ps.Dynamo.UpdateItem(ctx, models.MatchingProfilesTable, expression, key, values, names)
	if err != nil {
		return nil, err
	}
	ps.cache.Delete(userID)

	var profile models.MatchingProfile
	if err := attributevalue.UnmarshalMap(updatedItem, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated profile: %w", err)
	}
	return &profile, nil
}

// SetKnowledgeBaseFlag marks whether a user has ingested knowledge documents
func (ps *ProfileService) SetKnowledgeBaseFlag(ctx context.Context, userID string, present bool) error {
	_, err := ps.UpdateProfileFields(ctx, userID, map[string]interface{}{
		"hasKnowledgeBase": present,
	})
	return err
}

// GetActiveProfilesForGoal scans for active profiles with the goal flag enabled
func (ps *ProfileService) GetActiveProfilesForGoal(ctx context.Context, goal string) ([]models.MatchingProfile, error) {
	filterExpression := "#isActive = :active AND #goals.#goal = :enabled"
	names := map[string]string{
		"#isActive": "isActive",
		"#goals":    "goals",
		"#goal":     goal,
	}
	values := map[string]types.AttributeValue{
		":active":  &types.AttributeValueMemberBOOL{Value: true},
		":enabled": &types.AttributeValueMemberBOOL{Value: true},
	}

	var profiles []models.MatchingProfile
	err := ps.Dynamo.ScanWithFilter(ctx, models.MatchingProfilesTable, filterExpression, names, values, nil, &profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active profiles for goal '%s': %w", goal, err)
	}
	return profiles, nil
}

// GetActiveProfiles scans for all active profiles with at least one goal enabled
func (ps *ProfileService) GetActiveProfiles(ctx context.Context) ([]models.MatchingProfile, error) {
	filterExpression := "#isActive = :active"
	names := map[string]string{"#isActive": "isActive"}
	values := map[string]types.AttributeValue{
		":active": &types.AttributeValueMemberBOOL{Value: true},
	}

	var profiles []models.MatchingProfile
	err := ps.Dynamo.ScanWithFilter(ctx, models.MatchingProfilesTable, filterExpression, names, values,
		func(item map[string]types.AttributeValue) bool {
			// Profiles with no goals enabled can never match
			return utils.HasEnabledGoal(item, "goals")
		}, &profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active profiles: %w", err)
	}
	return profiles, nil
}
