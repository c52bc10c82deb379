package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNoDraft means nothing was saved for the session.
	ErrNoDraft = errors.New("no saved cart for session")
	// ErrCorruptDraft means a draft exists but cannot be decoded.
	ErrCorruptDraft = errors.New("cart draft is unreadable")
)

// DraftStore persists in-progress carts between requests and across restarts.
type DraftStore interface {
	Load(ctx context.Context, ownerID uuid.UUID, sessionID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, ownerID uuid.UUID, sessionID string) error
}

func draftKey(ownerID uuid.UUID, sessionID string) string {
	return fmt.Sprintf("cart:draft:%s:%s", ownerID, sessionID)
}

// RedisDraftStore keeps each draft as a JSON value that expires after ttl of inactivity.
type RedisDraftStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{redis: rdb, ttl: ttl}
}

func (s *RedisDraftStore) Load(ctx context.Context, ownerID uuid.UUID, sessionID string) (*Cart, error) {
	data, err := s.redis.Get(ctx, draftKey(ownerID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, err
	}
	return decodeDraft(data)
}

func (s *RedisDraftStore) Save(ctx context.Context, c *Cart) error {
	key := draftKey(c.OwnerID, c.SessionID)
	if c.Len() == 0 {
		return s.redis.Del(ctx, key).Err()
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, s.ttl).Err()
}

func (s *RedisDraftStore) Delete(ctx context.Context, ownerID uuid.UUID, sessionID string) error {
	return s.redis.Del(ctx, draftKey(ownerID, sessionID)).Err()
}

func decodeDraft(data []byte) (*Cart, error) {
	c := &Cart{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDraft, err)
	}
	return c, nil
}

// MemoryDraftStore keeps drafts in process memory. Drafts are stored encoded so callers never share state.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string][]byte
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string][]byte)}
}

func (s *MemoryDraftStore) Load(_ context.Context, ownerID uuid.UUID, sessionID string) (*Cart, error) {
	s.mu.Lock()
	data, ok := s.drafts[draftKey(ownerID, sessionID)]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoDraft
	}
	return decodeDraft(data)
}

func (s *MemoryDraftStore) Save(_ context.Context, c *Cart) error {
	key := draftKey(c.OwnerID, c.SessionID)
	if c.Len() == 0 {
		s.mu.Lock()
		delete(s.drafts, key)
		s.mu.Unlock()
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, ownerID uuid.UUID, sessionID string) error {
	s.mu.Lock()
	delete(s.drafts, draftKey(ownerID, sessionID))
	s.mu.Unlock()
	return nil
}
