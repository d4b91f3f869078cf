package postgres

import (
	"context"
	"fmt"

	"github.com/koushikch7/chatGPT/internal/domain/project"
)

const projectColumns = `id, user_id, name, description, icon, color, system_prompt, default_model, is_archived, is_pinned, created_at, updated_at`

func (s *Store) ListProjects(ctx context.Context, userID string) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+`
		 FROM projects WHERE user_id = $1
		 ORDER BY is_pinned DESC, updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)

	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, user_id, name, description, icon, color, system_prompt, default_model, is_archived, is_pinned, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.UserID, p.Name, p.Description, p.Icon, p.Color, p.SystemPrompt,
		p.DefaultModel, p.IsArchived, p.IsPinned, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects
		 SET name = $2, description = $3, icon = $4, color = $5, system_prompt = $6,
		     default_model = $7, is_archived = $8, is_pinned = $9, updated_at = $10
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Icon, p.Color, p.SystemPrompt,
		p.DefaultModel, p.IsArchived, p.IsPinned, p.UpdatedAt)
	return execExpectOne(tag, err, "update project %s", p.ID)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete project %s", id)
}

func scanProject(row scannable) (project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Icon, &p.Color,
		&p.SystemPrompt, &p.DefaultModel, &p.IsArchived, &p.IsPinned, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
