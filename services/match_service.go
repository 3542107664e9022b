package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"mindclone_server/models"
	"mindclone_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// MatchService is the persistence layer for mindclone matches
type MatchService struct {
	Dynamo *DynamoService
}

// NewMatchID mints a match identifier
func NewMatchID() string {
	return uuid.NewString()
}

// CreateMatch persists a new match between two users for a goal type.
// Caller must have verified no match exists for the pair (both orderings).
func (s *MatchService) CreateMatch(ctx context.Context, matchID, userAID, userBID, goalType string, score CompatibilityResult, conversationID string) (*models.MindcloneMatch, error) {
	now := time.Now().UTC()

	match := models.MindcloneMatch{
		MatchID:        matchID,
		UserAID:        userAID,
		UserBID:        userBID,
		GoalType:       goalType,
		Status:         models.MatchStatusConversing,
		Score:          score.Score,
		Breakdown:      score.Breakdown,
		ConversationID: conversationID,
		CreatedAt:      now.Format(time.RFC3339),
		LastActivityAt: now.Format(time.RFC3339),
		ExpiresAt:      now.AddDate(0, 0, models.MatchTTLDays).Format(time.RFC3339),
	}

	if err := s.Dynamo.PutItem(ctx, models.MatchesTable, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	log.Printf("🎉 Match created: %s x %s (%s, score %d)", userAID, userBID, goalType, score.Score)
	return &match, nil
}

// GetMatch retrieves a match by ID
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.MindcloneMatch, error) {
	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.MatchesTable, key)
	if err != nil {
		return nil, err
	}

	var match models.MindcloneMatch
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}
	return &match, nil
}

// FindMatchForPair looks for any existing match between two users for a goal
// type, checking both id orderings. Returns nil when the pair is unmatched.
func (s *MatchService) FindMatchForPair(ctx context.Context, userX, userY, goalType string) (*models.MindcloneMatch, error) {
	for _, ordering := range [][2]string{{userX, userY}, {userY, userX}} {
		match, err := s.queryPairOrdering(ctx, ordering[0], ordering[1], goalType)
		if err != nil {
			return nil, err
		}
		if match != nil {
			return match, nil
		}
	}
	return nil, nil
}

func (s *MatchService) queryPairOrdering(ctx context.Context, userA, userB, goalType string) (*models.MindcloneMatch, error) {
	keyCondition := "userAId = :userA"
	expressionValues := map[string]types.AttributeValue{
		":userA": &types.AttributeValueMemberS{Value: userA},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MatchesTable, "userAId-index", keyCondition, expressionValues, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for %s: %w", userA, err)
	}

	for _, item := range items {
		if utils.ExtractString(item, "userBId") != userB {
			continue
		}
		if utils.ExtractString(item, "goalType") != goalType {
			continue
		}
		var match models.MindcloneMatch
		if err := attributevalue.UnmarshalMap(item, &match); err != nil {
			log.Printf("⚠️ [MATCH] Failed to unmarshal match item: %v", err)
			continue
		}
		return &match, nil
	}
	return nil, nil
}

// GetMatchesForUser returns all matches a user participates in, either side
func (s *MatchService) GetMatchesForUser(ctx context.Context, userID string) ([]models.MindcloneMatch, error) {
	var matches []models.MindcloneMatch

	for _, index := range []struct{ name, key string }{
		{"userAId-index", "userAId"},
		{"userBId-index", "userBId"},
	} {
		keyCondition := fmt.Sprintf("%s = :user", index.key)
		expressionValues := map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: userID},
		}
		items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MatchesTable, index.name, keyCondition, expressionValues, nil, 100)
		if err != nil {
			return nil, err
		}

		var side []models.MindcloneMatch
		if err := attributevalue.UnmarshalListOfMaps(items, &side); err != nil {
			return nil, fmt.Errorf("failed to unmarshal matches: %w", err)
		}
		matches = append(matches, side...)
	}
	return matches, nil
}

// GetConversingMatches scans for matches whose conversations are still in
// flight. The heartbeat caps how many it processes per tick.
func (s *MatchService) GetConversingMatches(ctx context.Context) ([]models.MindcloneMatch, error) {
	filterExpression := "#status = :conversing"
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":conversing": &types.AttributeValueMemberS{Value: models.MatchStatusConversing},
	}

	var matches []models.MindcloneMatch
	err := s.Dynamo.ScanWithFilter(ctx, models.MatchesTable, filterExpression, names, values, nil, &matches)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversing matches: %w", err)
	}
	return matches, nil
}

// UpdateMatchStatus transitions a match and bumps its activity timestamp
func (s *MatchService) UpdateMatchStatus(ctx context.Context, matchID, status string) error {
	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	_, err := s.Dynamo.UpdateItem(ctx, models.MatchesTable,
		"SET #status = :status, lastActivityAt = :now",
		key,
		map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		map[string]string{"#status": "status"},
	)
	if err != nil {
		return fmt.Errorf("failed to update match %s status: %w", matchID, err)
	}
	return nil
}

// SetApproval stores one side's approval record. Callers de-duplicate:
// a decision already stored is never overwritten by a retried heartbeat.
func (s *MatchService) SetApproval(ctx context.Context, matchID, side string, record models.ApprovalRecord) error {
	field := "approvalA"
	if side == models.SideB {
		field = "approvalB"
	}

	marshaled, err := attributevalue.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal approval record: %w", err)
	}

	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	_, err = s.Dynamo.UpdateItem(ctx, models.MatchesTable,
		"SET #field = :record, lastActivityAt = :now",
		key,
		map[string]types.AttributeValue{
			":record": marshaled,
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		map[string]string{"#field": field},
	)
	if err != nil {
		return fmt.Errorf("failed to store approval for match %s side %s: %w", matchID, side, err)
	}
	return nil
}

// SetInsights stores the shared conversation insights on the match
func (s *MatchService) SetInsights(ctx context.Context, matchID string, insights []string) error {
	marshaled, err := attributevalue.Marshal(insights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	_, err = s.Dynamo.UpdateItem(ctx, models.MatchesTable,
		"SET insights = :insights",
		key,
		map[string]types.AttributeValue{":insights": marshaled},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to store insights for match %s: %w", matchID, err)
	}
	return nil
}
