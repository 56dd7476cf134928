// Package session stores drafts and confirmations as JSON in a cache.Cache.
// Both are transient: every write carries a TTL.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/braider-storefront/internal/pkg/cache"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/ports"
)

var (
	_ ports.DraftStore        = (*DraftStore)(nil)
	_ ports.ConfirmationStore = (*ConfirmationStore)(nil)
)

type DraftStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewDraftStore(c cache.Cache, ttl time.Duration) *DraftStore {
	return &DraftStore{cache: c, ttl: ttl}
}

// Load returns a fresh draft when the session has none yet.
func (s *DraftStore) Load(ctx context.Context, sessionID string) (entity.Draft, error) {
	raw, err := s.cache.Get(ctx, s.cache.GenerateKey("draft", sessionID))
	if errors.Is(err, cache.ErrMiss) {
		return entity.NewDraft(), nil
	}
	if err != nil {
		return entity.Draft{}, fmt.Errorf("load draft: %w", err)
	}

	var d entity.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return entity.Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

func (s *DraftStore) Save(ctx context.Context, sessionID string, draft entity.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey("draft", sessionID), raw, s.ttl); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *DraftStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, s.cache.GenerateKey("draft", sessionID)); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

type ConfirmationStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewConfirmationStore(c cache.Cache, ttl time.Duration) *ConfirmationStore {
	return &ConfirmationStore{cache: c, ttl: ttl}
}

func (s *ConfirmationStore) Put(ctx context.Context, snap entity.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode confirmation: %w", err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey("confirmation", snap.OrderID), raw, s.ttl); err != nil {
		return fmt.Errorf("save confirmation: %w", err)
	}
	return nil
}

func (s *ConfirmationStore) Get(ctx context.Context, orderID string) (entity.Snapshot, error) {
	raw, err := s.cache.Get(ctx, s.cache.GenerateKey("confirmation", orderID))
	if errors.Is(err, cache.ErrMiss) {
		return entity.Snapshot{}, ports.ErrNotFound
	}
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("load confirmation: %w", err)
	}

	var snap entity.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return entity.Snapshot{}, fmt.Errorf("decode confirmation: %w", err)
	}
	return snap, nil
}
