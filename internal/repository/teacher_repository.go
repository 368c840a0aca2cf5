package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classbook/classbook-api/internal/models"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, email, full_name, slug, timezone, google_access_token, google_refresh_token, created_at, updated_at`

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE id = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindBySlug fetches a teacher by their public booking-page slug.
func (r *TeacherRepository) FindBySlug(ctx context.Context, slug string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE slug = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, slug); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByEmail fetches a teacher by email.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE LOWER(email) = LOWER($1)`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, email); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// UpsertByEmail inserts the teacher on first sign-in or refreshes name
// and OAuth tokens on subsequent sign-ins. The slug is only written on
// insert so published booking links stay stable.
func (r *TeacherRepository) UpsertByEmail(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, email, full_name, slug, timezone, google_access_token, google_refresh_token, created_at, updated_at)
		VALUES (:id, :email, :full_name, :slug, :timezone, :google_access_token, :google_refresh_token, :created_at, :updated_at)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			google_access_token = EXCLUDED.google_access_token,
			google_refresh_token = EXCLUDED.google_refresh_token,
			updated_at = EXCLUDED.updated_at
		RETURNING id, slug, timezone, created_at`
	rows, err := r.db.NamedQueryContext(ctx, query, teacher)
	if err != nil {
		return fmt.Errorf("upsert teacher: %w", err)
	}
	defer rows.Close()

	// On conflict the stored row wins for identity fields.
	if rows.Next() {
		if err := rows.Scan(&teacher.ID, &teacher.Slug, &teacher.Timezone, &teacher.CreatedAt); err != nil {
			return fmt.Errorf("scan upserted teacher: %w", err)
		}
	}
	return rows.Err()
}

// UpdateTimezone stores the teacher's IANA timezone.
func (r *TeacherRepository) UpdateTimezone(ctx context.Context, id, timezone string) error {
	const query = `UPDATE teachers SET timezone = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, timezone, time.Now().UTC()); err != nil {
		return fmt.Errorf("update teacher timezone: %w", err)
	}
	return nil
}
