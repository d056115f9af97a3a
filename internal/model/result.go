package model

import "time"

// Result is a persisted session outcome as stored in PostgreSQL and listed
// to operators.
type Result struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	SectionID   string    `json:"section_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	Correct     int       `json:"correct"`
	Band        float64   `json:"band"`
	Expired     bool      `json:"expired"`
	SubmittedAt time.Time `json:"submitted_at"`
}
