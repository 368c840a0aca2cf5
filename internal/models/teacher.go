package models

import "time"

// Teacher represents a tutor offering bookable lesson slots.
type Teacher struct {
	ID                 string    `db:"id" json:"id"`
	Email              string    `db:"email" json:"email"`
	FullName           string    `db:"full_name" json:"name"`
	Slug               string    `db:"slug" json:"slug"`
	Timezone           string    `db:"timezone" json:"timezone"`
	GoogleAccessToken  *string   `db:"google_access_token" json:"-"`
	GoogleRefreshToken *string   `db:"google_refresh_token" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// PublicTeacher is the student-facing projection of a teacher.
type PublicTeacher struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// Public strips credentials and contact details.
func (t *Teacher) Public() PublicTeacher {
	tz := t.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return PublicTeacher{ID: t.ID, Name: t.FullName, Timezone: tz}
}
