package services

import (
	"context"
	"log"

	"mindclone_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"
)

// newNotificationID mints an id for a queued notification
func newNotificationID() string {
	return uuid.NewString()
}

// NotificationService persists notifications and pushes them to connected
// clients. Delivery is fire-and-forget from the matching engine's view:
// failures are logged and swallowed, never propagated.
type NotificationService struct {
	Dynamo *DynamoService
	Socket *socketio.Server
}

// EnqueueBatch stores a batch of notifications and pushes each over the
// socket to its recipient's room when one is connected.
func (ns *NotificationService) EnqueueBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(notifications))
	for _, notification := range notifications {
		item, err := attributevalue.MarshalMap(notification)
		if err != nil {
			log.Printf("❌ [NOTIFY] Failed to marshal notification for %s: %v", notification.RecipientID, err)
			continue
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	if err := ns.Dynamo.BatchWriteItems(ctx, models.NotificationsTable, writeRequests); err != nil {
		log.Printf("❌ [NOTIFY] Failed to persist notification batch: %v", err)
		return err
	}

	for _, notification := range notifications {
		ns.push(notification)
	}

	log.Printf("📬 [NOTIFY] Enqueued %d notification(s)", len(notifications))
	return nil
}

func (ns *NotificationService) push(notification models.Notification) {
	if ns.Socket == nil {
		return
	}
	ns.Socket.BroadcastToRoom("/", "user:"+notification.RecipientID, "notification", notification)
}

// GetNotificationsForUser returns a user's queued notifications
func (ns *NotificationService) GetNotificationsForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	keyCondition := "recipientId = :recipient"
	expressionValues := map[string]types.AttributeValue{
		":recipient": &types.AttributeValueMemberS{Value: userID},
	}

	items, err := ns.Dynamo.QueryItemsWithIndex(ctx, models.NotificationsTable, "recipientId-index", keyCondition, expressionValues, nil, 50)
	if err != nil {
		return nil, err
	}

	var notifications []models.Notification
	if err := attributevalue.UnmarshalListOfMaps(items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}
