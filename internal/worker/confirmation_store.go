package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/model"
)

const confirmationTTL = 7 * 24 * time.Hour

// ConfirmationStore keeps the latest finalized-order confirmation per user.
type ConfirmationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewConfirmationStore(client *redis.Client) *ConfirmationStore {
	return &ConfirmationStore{client: client, ttl: confirmationTTL}
}

func confirmationKey(userID string) string { return "order_confirmation:" + userID }

func (s *ConfirmationStore) Save(ctx context.Context, msg model.OrderMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}
	if err := s.client.Set(ctx, confirmationKey(msg.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save confirmation: %w", err)
	}
	return nil
}

// Latest returns nil, nil when the user has no recorded confirmation.
func (s *ConfirmationStore) Latest(ctx context.Context, userID string) (*model.OrderMessage, error) {
	data, err := s.client.Get(ctx, confirmationKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get confirmation: %w", err)
	}
	var msg model.OrderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode confirmation: %w", err)
	}
	return &msg, nil
}
