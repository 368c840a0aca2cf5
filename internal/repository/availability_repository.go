package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classbook/classbook-api/internal/models"
)

// AvailabilityRepository manages the recurring weekly locked-hour rules.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByTeacher returns all locked rules for a teacher.
func (r *AvailabilityRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error) {
	const query = `SELECT id, teacher_id, day_of_week, start_time, end_time, created_at
		FROM availability_rules WHERE teacher_id = $1 ORDER BY day_of_week, start_time`
	var rules []models.AvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query, teacherID); err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return rules, nil
}

// Find fetches a rule by its natural key. Returns nil when absent.
func (r *AvailabilityRepository) Find(ctx context.Context, teacherID string, dayOfWeek int, startTime string) (*models.AvailabilityRule, error) {
	const query = `SELECT id, teacher_id, day_of_week, start_time, end_time, created_at
		FROM availability_rules WHERE teacher_id = $1 AND day_of_week = $2 AND start_time = $3`
	var rule models.AvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, teacherID, dayOfWeek, startTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find availability rule: %w", err)
	}
	return &rule, nil
}

// Create inserts a locked rule. The unique index on
// (teacher_id, day_of_week, start_time) makes duplicate toggles a no-op
// at the schema level.
func (r *AvailabilityRepository) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO availability_rules (id, teacher_id, day_of_week, start_time, end_time, created_at)
		VALUES (:id, :teacher_id, :day_of_week, :start_time, :end_time, :created_at)
		ON CONFLICT (teacher_id, day_of_week, start_time) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}
	return nil
}

// Delete removes a rule by id.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM availability_rules WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}
	return nil
}
