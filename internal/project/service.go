// Package project persists dashboard projects in PostgreSQL.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orusmind/orus-builder/internal/spec"
)

// ErrNotFound is returned when the requested project does not exist.
var ErrNotFound = errors.New("project not found")

// Project represents a saved dashboard project
type Project struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Prompt          string          `json:"prompt"`
	Framework       string          `json:"framework"`
	CreatedByUserID uuid.UUID       `json:"created_by_user_id"`
	LastJobID       *string         `json:"last_job_id,omitempty"`
	QualityScore    *float64        `json:"quality_score,omitempty"`
	Specification   json.RawMessage `json:"specification,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Service handles project persistence
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new project service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Create inserts a new project and returns its ID
func (s *Service) Create(ctx context.Context, name, description, prompt, framework string, userID uuid.UUID) (uuid.UUID, error) {
	var projectID uuid.UUID

	err := s.pool.QueryRow(ctx,
		`INSERT INTO projects (name, description, prompt, framework, created_by_user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		name, description, prompt, framework, userID,
	).Scan(&projectID)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create project: %w", err)
	}

	return projectID, nil
}

// Get returns one project by ID
func (s *Service) Get(ctx context.Context, projectID uuid.UUID) (*Project, error) {
	var p Project

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, prompt, framework, created_by_user_id,
		        last_job_id, quality_score, specification, created_at, updated_at
		 FROM projects WHERE id = $1`,
		projectID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Prompt, &p.Framework,
		&p.CreatedByUserID, &p.LastJobID, &p.QualityScore, &p.Specification,
		&p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

// ListByUser returns the projects owned by one user, newest first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, prompt, framework, created_by_user_id,
		        last_job_id, quality_score, specification, created_at, updated_at
		 FROM projects
		 WHERE created_by_user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Prompt, &p.Framework,
			&p.CreatedByUserID, &p.LastJobID, &p.QualityScore, &p.Specification,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// Update changes name and description of a project
func (s *Service) Update(ctx context.Context, projectID uuid.UUID, name, description string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET name = $2, description = $3, updated_at = NOW()
		 WHERE id = $1`,
		projectID, name, description,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project
func (s *Service) Delete(ctx context.Context, projectID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1`,
		projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachGeneration records the latest generation run on a project, storing
// the job ID, quality score, and the technical specification as JSONB
func (s *Service) AttachGeneration(ctx context.Context, projectID uuid.UUID, jobID string, qualityScore float64, specification spec.TechnicalSpecification) error {
	specJSON, err := json.Marshal(specification)
	if err != nil {
		return fmt.Errorf("failed to marshal specification: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE projects
		 SET last_job_id = $2, quality_score = $3, specification = $4::jsonb, updated_at = NOW()
		 WHERE id = $1`,
		projectID, jobID, qualityScore, specJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to attach generation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
