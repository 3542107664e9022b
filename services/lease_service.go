package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"mindclone_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// leaseDuration bounds how long one heartbeat may hold a work unit. A
// crashed tick frees its leases by expiry.
const leaseDuration = 10 * time.Minute

// LeaseService hands out per-unit work leases through conditional writes so
// overlapping ticks never advance the same conversation or create the same
// match twice.
type LeaseService struct {
	Dynamo *DynamoService
	Owner  string
	Now    func() time.Time
}

// NewLeaseService creates a LeaseService with a unique owner id per process
func NewLeaseService(dynamo *DynamoService) *LeaseService {
	return &LeaseService{Dynamo: dynamo, Owner: uuid.NewString(), Now: time.Now}
}

// ConversationLeaseKey names the lease guarding one match's conversation
func ConversationLeaseKey(matchID string) string {
	return "conversation:" + matchID
}

// PairLeaseKey names the lease guarding match creation for an unordered
// user pair and goal
func PairLeaseKey(userX, userY, goal string) string {
	users := []string{userX, userY}
	sort.Strings(users)
	return "pair:" + strings.Join(users, ":") + ":" + goal
}

// Acquire claims a lease, succeeding only when no live lease exists for the
// key. Backend failures answer true: the lease layer narrows race windows
// and must never stall the pipeline it protects.
func (ls *LeaseService) Acquire(ctx context.Context, key string) bool {
	now := ls.Now().UTC()
	lease := models.Lease{
		LeaseKey:  key,
		Owner:     ls.Owner,
		ExpiresAt: now.Add(leaseDuration).Format(time.RFC3339),
	}

	err := ls.Dynamo.PutItemConditional(ctx, models.LeasesTable, lease,
		"attribute_not_exists(leaseKey) OR expiresAt < :now",
		map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrConditionFailed) {
		return false
	}
	log.Printf("⚠️ [LEASE] Acquire failed for %s, proceeding unleased: %v", key, err)
	return true
}

// Release frees a lease after its work unit finishes. Failures are logged
// only; an abandoned lease expires on its own.
func (ls *LeaseService) Release(ctx context.Context, key string) {
	keyAttr := map[string]types.AttributeValue{
		"leaseKey": &types.AttributeValueMemberS{Value: key},
	}
	if err := ls.Dynamo.DeleteItem(ctx, models.LeasesTable, keyAttr); err != nil {
		log.Printf("⚠️ [LEASE] Release failed for %s: %v", key, err)
	}
}
