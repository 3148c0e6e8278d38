package models

import "time"

// User is the authenticated account returned by GET /user/me.
type User struct {
	ID      string `json:"_id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// History tracks watch progress, one row per (user, media) pair.
type History struct {
	UserID    string    `json:"userId"`
	MediaID   string    `json:"mediaId"`
	Progress  float64   `json:"progress"` // 0-100
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
}

// Key implements the syncview Entity interface.
func (h History) Key() string { return h.MediaID }

// Favorite marks a content for a user, one row per (user, content) pair.
type Favorite struct {
	UserID    string `json:"userId"`
	ContentID string `json:"contentId"`
}

// Key implements the syncview Entity interface.
func (f Favorite) Key() string { return f.ContentID }
