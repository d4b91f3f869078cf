package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/memory"
	"github.com/koushikch7/chatGPT/internal/port/database"
)

// MemoryService manages the user's long-term memories.
type MemoryService struct {
	store database.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewMemoryService(store database.Store, log *slog.Logger) *MemoryService {
	return &MemoryService{store: store, log: log, now: time.Now}
}

func (s *MemoryService) List(ctx context.Context, userID string) ([]memory.UserMemory, error) {
	return s.store.ListMemories(ctx, userID)
}

func (s *MemoryService) Create(ctx context.Context, userID string, req memory.CreateRequest) (*memory.UserMemory, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	typ := req.Type
	if typ == "" {
		typ = memory.TypeFact
	}

	m := &memory.UserMemory{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   req.Content,
		Type:      typ,
		Category:  req.Category,
		Source:    req.Source,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateMemory(ctx, m); err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}
	s.log.Info("memory created", "memory", m.ID, "type", m.Type)
	return m, nil
}

// SetActive toggles whether the memory is injected into assembled requests.
func (s *MemoryService) SetActive(ctx context.Context, userID, id string, active bool) (*memory.UserMemory, error) {
	m, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m.IsActive = active
	m.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateMemory(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MemoryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteMemory(ctx, id)
}

func (s *MemoryService) owned(ctx context.Context, userID, id string) (*memory.UserMemory, error) {
	memories, err := s.store.ListMemories(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range memories {
		if memories[i].ID == id {
			return &memories[i], nil
		}
	}
	return nil, fmt.Errorf("memory %s: %w", id, domain.ErrNotFound)
}
