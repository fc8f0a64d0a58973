// Package models defines the data the promstudy client exchanges with the
// backend and keeps in its session.
package models

import (
	"strings"
	"time"
)

// UserProfile is the account profile returned by GET /users/me.
// The session replaces it wholesale; it is never patched field by field.
type UserProfile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Age       string    `json:"age,omitempty"`
	School    string    `json:"school,omitempty"`
	StudentID string    `json:"studentId,omitempty"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns an independent copy of p, or nil for a nil profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// ProfileFields are the profile values collected at sign-up.
type ProfileFields struct {
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Age       string `json:"age"`
	School    string `json:"school"`
	StudentID string `json:"studentId"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f ProfileFields) Trimmed() ProfileFields {
	return ProfileFields{
		Name:      strings.TrimSpace(f.Name),
		Gender:    strings.TrimSpace(f.Gender),
		Age:       strings.TrimSpace(f.Age),
		School:    strings.TrimSpace(f.School),
		StudentID: strings.TrimSpace(f.StudentID),
	}
}

// Complete reports whether every field is non-empty after trimming.
func (f ProfileFields) Complete() bool {
	t := f.Trimmed()
	for _, v := range []string{t.Name, t.Gender, t.Age, t.School, t.StudentID} {
		if v == "" {
			return false
		}
	}
	return true
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ProfileFields
}

// Credentials is the body of POST /token.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Stats holds the marketplace-wide counters shown next to every page.
type Stats struct {
	TotalPrompts int64 `json:"total_prompts"`
	TotalLikes   int64 `json:"total_likes"`
}
