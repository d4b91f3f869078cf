package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/domain/project"
	"github.com/koushikch7/chatGPT/internal/port/database"
)

// defaultProjectColor is applied when a project is created without one.
const defaultProjectColor = "#6366f1"

// ProjectService manages projects grouping conversations.
type ProjectService struct {
	store database.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewProjectService(store database.Store, log *slog.Logger) *ProjectService {
	return &ProjectService{store: store, log: log, now: time.Now}
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]project.Project, error) {
	return s.store.ListProjects(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	return s.owned(ctx, userID, id)
}

func (s *ProjectService) Create(ctx context.Context, userID string, req project.CreateRequest) (*project.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if req.DefaultModel != "" && model.Lookup(req.DefaultModel) == nil {
		return nil, fmt.Errorf("unknown model %q: %w", req.DefaultModel, domain.ErrValidation)
	}

	color := req.Color
	if color == "" {
		color = defaultProjectColor
	}

	ts := s.now().UTC()
	p := &project.Project{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		Icon:         req.Icon,
		Color:        color,
		SystemPrompt: req.SystemPrompt,
		DefaultModel: req.DefaultModel,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.log.Info("project created", "project", p.ID, "name", p.Name)
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, userID, id string, req project.UpdateRequest) (*project.Project, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
		}
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Icon != nil {
		p.Icon = *req.Icon
	}
	if req.Color != nil {
		p.Color = *req.Color
	}
	if req.SystemPrompt != nil {
		p.SystemPrompt = *req.SystemPrompt
	}
	if req.DefaultModel != nil {
		if *req.DefaultModel != "" && model.Lookup(*req.DefaultModel) == nil {
			return nil, fmt.Errorf("unknown model %q: %w", *req.DefaultModel, domain.ErrValidation)
		}
		p.DefaultModel = *req.DefaultModel
	}
	if req.IsArchived != nil {
		p.IsArchived = *req.IsArchived
	}
	if req.IsPinned != nil {
		p.IsPinned = *req.IsPinned
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.log.Info("project deleted", "project", id)
	return nil
}

func (s *ProjectService) owned(ctx context.Context, userID, id string) (*project.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}
