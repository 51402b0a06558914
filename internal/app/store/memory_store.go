package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/cart-service/internal/app/model"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// memoryCartStore is an in-process CartStore with real deadline-based
// expiry. It backs unit tests and local runs without a Redis server, and
// round-trips carts through JSON so the stored shape matches Redis exactly.
type memoryCartStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	now        func() time.Time
}

func NewMemoryCartStore(defaultTTL time.Duration) CartStore {
	return &memoryCartStore{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// live returns the entry for the key, expiring it lazily
func (s *memoryCartStore) live(key string) (memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *memoryCartStore) Get(ctx context.Context, userID string) (*model.RawCart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(cartKey(userID))
	if !ok {
		return nil, nil
	}
	var cart model.RawCart
	if err := json.Unmarshal(entry.data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *memoryCartStore) Save(ctx context.Context, cart *model.RawCart, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cartKey(cart.UserID)] = memoryEntry{
		data:      data,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *memoryCartStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, cartKey(userID))
	return nil
}

func (s *memoryCartStore) Exists(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(cartKey(userID))
	return ok, nil
}

func (s *memoryCartStore) RemainingTTL(ctx context.Context, userID string) (time.Duration, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(cartKey(userID))
	if !ok {
		return 0, false, nil
	}
	return entry.expiresAt.Sub(s.now()), true, nil
}

func (s *memoryCartStore) ExtendTTL(ctx context.Context, userID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cartKey(userID)
	entry, ok := s.live(key)
	if !ok {
		return nil
	}
	entry.expiresAt = s.now().Add(ttl)
	s.entries[key] = entry
	return nil
}
