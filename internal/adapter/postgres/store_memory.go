package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/koushikch7/chatGPT/internal/domain/memory"
)

const memoryColumns = `id, user_id, content, type, category, source, is_active, created_at, updated_at`

func (s *Store) ListMemories(ctx context.Context, userID string) ([]memory.UserMemory, error) {
	return s.queryMemories(ctx,
		`SELECT `+memoryColumns+`
		 FROM user_memories WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *Store) ListActiveMemories(ctx context.Context, userID string) ([]memory.UserMemory, error) {
	return s.queryMemories(ctx,
		`SELECT `+memoryColumns+`
		 FROM user_memories WHERE user_id = $1 AND is_active ORDER BY created_at ASC`, userID)
}

func (s *Store) queryMemories(ctx context.Context, query string, args ...any) ([]memory.UserMemory, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var memories []memory.UserMemory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func (s *Store) CreateMemory(ctx context.Context, m *memory.UserMemory) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_memories (id, user_id, content, type, category, source, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.UserID, m.Content, m.Type, m.Category, m.Source, m.IsActive,
		m.CreatedAt, nullTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create memory: %w", err)
	}
	return nil
}

func (s *Store) UpdateMemory(ctx context.Context, m *memory.UserMemory) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_memories
		 SET content = $2, type = $3, category = $4, source = $5, is_active = $6, updated_at = $7
		 WHERE id = $1`,
		m.ID, m.Content, m.Type, m.Category, m.Source, m.IsActive, nullTime(m.UpdatedAt))
	return execExpectOne(tag, err, "update memory %s", m.ID)
}

func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_memories WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete memory %s", id)
}

func scanMemory(row scannable) (memory.UserMemory, error) {
	var m memory.UserMemory
	var updatedAt *time.Time
	err := row.Scan(&m.ID, &m.UserID, &m.Content, &m.Type, &m.Category, &m.Source,
		&m.IsActive, &m.CreatedAt, &updatedAt)
	if err != nil {
		return m, err
	}
	if updatedAt != nil {
		m.UpdatedAt = *updatedAt
	}
	return m, nil
}
