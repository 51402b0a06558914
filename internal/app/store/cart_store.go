package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikkim/cart-service/internal/app/model"
	"github.com/ikkim/cart-service/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CartStore is the key-value persistence contract for raw carts. Saves are
// full-document overwrites with a sliding TTL; there is no partial update
// and no cross-key transaction, so concurrent writers are last-write-wins.
type CartStore interface {
	// Get returns the stored cart, or (nil, nil) when none exists
	Get(ctx context.Context, userID string) (*model.RawCart, error)
	// Save overwrites the cart and resets its TTL. A non-positive ttl
	// applies the store default.
	Save(ctx context.Context, cart *model.RawCart, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
	Exists(ctx context.Context, userID string) (bool, error)
	// RemainingTTL returns the time left before expiry; ok is false when
	// no cart is stored for the user.
	RemainingTTL(ctx context.Context, userID string) (ttl time.Duration, ok bool, err error)
	// ExtendTTL resets the expiry without rewriting the value. Extending
	// an absent key is a no-op.
	ExtendTTL(ctx context.Context, userID string, ttl time.Duration) error
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

type redisCartStore struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func NewRedisCartStore(client *redis.Client, defaultTTL time.Duration) CartStore {
	return &redisCartStore{
		client:     client,
		defaultTTL: defaultTTL,
	}
}

func (s *redisCartStore) Get(ctx context.Context, userID string) (*model.RawCart, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to read cart from Redis", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	var cart model.RawCart
	if err := json.Unmarshal(data, &cart); err != nil {
		logger.Error("Failed to decode stored cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to decode cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

func (s *redisCartStore) Save(ctx context.Context, cart *model.RawCart, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart for user %s: %w", cart.UserID, err)
	}

	if err := s.client.Set(ctx, cartKey(cart.UserID), data, ttl).Err(); err != nil {
		logger.Error("Failed to save cart to Redis", err, map[string]interface{}{
			"user_id": cart.UserID,
			"items":   len(cart.Items),
		})
		return err
	}

	logger.Debug("Cart saved", map[string]interface{}{
		"user_id": cart.UserID,
		"items":   len(cart.Items),
		"ttl":     ttl.String(),
	})
	return nil
}

func (s *redisCartStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		logger.Error("Failed to delete cart from Redis", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

func (s *redisCartStore) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, cartKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisCartStore) RemainingTTL(ctx context.Context, userID string) (time.Duration, bool, error) {
	ttl, err := s.client.TTL(ctx, cartKey(userID)).Result()
	if err != nil {
		return 0, false, err
	}
	// go-redis reports -2 for a missing key and -1 for a key without expiry
	if ttl < 0 {
		return 0, false, nil
	}
	return ttl, true, nil
}

func (s *redisCartStore) ExtendTTL(ctx context.Context, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Expire(ctx, cartKey(userID), ttl).Err(); err != nil {
		logger.Error("Failed to extend cart TTL", err, map[string]interface{}{
			"user_id": userID,
			"ttl":     ttl.String(),
		})
		return err
	}
	return nil
}
