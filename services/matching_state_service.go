package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"mindclone_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MatchingStateService manages per-user daily matching counters. Read
// failures degrade to a zero state (fail-open: a broken counter must never
// silently block the matching pipeline).
type MatchingStateService struct {
	Dynamo *DynamoService
	Now    func() time.Time
}

// NewMatchingStateService creates a MatchingStateService on the real clock
func NewMatchingStateService(dynamo *DynamoService) *MatchingStateService {
	return &MatchingStateService{Dynamo: dynamo, Now: time.Now}
}

// resetAttemptsIfStale zeroes the daily attempt counter when the stored date
// differs from today. Pending/active counts persist across the reset.
// Returns true when the state was mutated.
func resetAttemptsIfStale(state *models.MatchingState, today string) bool {
	if state.LastResetDate == today {
		return false
	}
	state.DailyMatchesAttempted = 0
	state.LastResetDate = today
	return true
}

func (ms *MatchingStateService) today() string {
	return ms.Now().Format("2006-01-02")
}

// GetState fetches a user's matching state, applying the daily reset
func (ms *MatchingStateService) GetState(ctx context.Context, userID string) *models.MatchingState {
	state := &models.MatchingState{UserID: userID}

	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := ms.Dynamo.GetItem(ctx, models.MatchingStateTable, key)
	if err == nil {
		if uerr := attributevalue.UnmarshalMap(item, state); uerr != nil {
			log.Printf("⚠️ [STATE] Failed to unmarshal matching state for %s: %v", userID, uerr)
			state = &models.MatchingState{UserID: userID}
		}
	}

	if resetAttemptsIfStale(state, ms.today()) {
		if err := ms.persistReset(ctx, state); err != nil {
			log.Printf("⚠️ [STATE] Failed to persist daily reset for %s: %v", userID, err)
		}
	}
	return state
}

func (ms *MatchingStateService) persistReset(ctx context.Context, state *models.MatchingState) error {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: state.UserID},
	}
	_, err := ms.Dynamo.UpdateItem(ctx, models.MatchingStateTable,
		"SET dailyMatchesAttempted = :zero, lastResetDate = :today",
		key,
		map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":today": &types.AttributeValueMemberS{Value: state.LastResetDate},
		},
		nil,
	)
	return err
}

// HasReachedDailyLimit reports whether a user is out of matching attempts
// for the day. Errors while reading the state answer false (fail-open).
func (ms *MatchingStateService) HasReachedDailyLimit(ctx context.Context, userID string) bool {
	state := ms.GetState(ctx, userID)
	return state.DailyMatchesAttempted >= models.DailyMatchLimit
}

// RecordAttempt increments a user's daily attempt counter
func (ms *MatchingStateService) RecordAttempt(ctx context.Context, userID string) {
	ms.addToCounter(ctx, userID, "dailyMatchesAttempted", 1)
}

// AddActiveConversations adjusts the active-conversation counter by delta
func (ms *MatchingStateService) AddActiveConversations(ctx context.Context, userID string, delta int) {
	ms.addToCounter(ctx, userID, "activeConversations", delta)
}

// AddPendingApprovals adjusts the pending-approval counter by delta
func (ms *MatchingStateService) AddPendingApprovals(ctx context.Context, userID string, delta int) {
	ms.addToCounter(ctx, userID, "pendingApprovals", delta)
}

// addToCounter does a targeted ADD so concurrent ticks never lose updates.
// Counter failures are logged, not propagated: rate limiting is a gate, not
// part of match identity.
func (ms *MatchingStateService) addToCounter(ctx context.Context, userID, field string, delta int) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	_, err := ms.Dynamo.UpdateItem(ctx, models.MatchingStateTable,
		"ADD #field :delta SET lastResetDate = if_not_exists(lastResetDate, :today)",
		key,
		map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
			":today": &types.AttributeValueMemberS{Value: ms.today()},
		},
		map[string]string{"#field": field},
	)
	if err != nil {
		log.Printf("⚠️ [STATE] Failed to adjust %s for %s by %d: %v", field, userID, delta, err)
	}
}
