package services

import (
	"context"
	"fmt"
	"time"

	"mindclone_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// ConversationService is the persistence layer for mindclone conversations
type ConversationService struct {
	Dynamo *DynamoService
}

// CreateConversation creates an empty conversation belonging to a match
func (s *ConversationService) CreateConversation(ctx context.Context, matchID string) (*models.Conversation, error) {
	conversation := models.Conversation{
		ConversationID: uuid.NewString(),
		MatchID:        matchID,
		CurrentRound:   0,
		Phase:          models.PhaseDiscovery,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.Dynamo.PutItem(ctx, models.ConversationsTable, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conversation, nil
}

// GetConversation retrieves a conversation by ID
func (s *ConversationService) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	key := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.ConversationsTable, key)
	if err != nil {
		return nil, err
	}

	var conversation models.Conversation
	if err := attributevalue.UnmarshalMap(item, &conversation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conversation, nil
}

// AppendMessage appends one message and advances the round counter and phase
// in a single targeted update, so a message and its round can never diverge.
func (s *ConversationService) AppendMessage(ctx context.Context, conversationID string, message models.ConversationMessage, phase string) error {
	marshaled, err := attributevalue.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
	_, err = s.Dynamo.UpdateItem(ctx, models.ConversationsTable,
		"SET messages = list_append(if_not_exists(messages, :empty), :message), currentRound = :round, phase = :phase",
		key,
		map[string]types.AttributeValue{
			":message": &types.AttributeValueMemberL{Value: []types.AttributeValue{marshaled}},
			":empty":   &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":round":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", message.Round)},
			":phase":   &types.AttributeValueMemberS{Value: phase},
		},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to append message to conversation %s: %w", conversationID, err)
	}
	return nil
}

// MarkComplete sets the completion timestamp. Completion is set exactly
// once; callers check IsComplete before calling.
func (s *ConversationService) MarkComplete(ctx context.Context, conversationID string) error {
	key := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
	_, err := s.Dynamo.UpdateItem(ctx, models.ConversationsTable,
		"SET completedAt = if_not_exists(completedAt, :now)",
		key,
		map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to mark conversation %s complete: %w", conversationID, err)
	}
	return nil
}
