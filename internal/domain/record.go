package domain

import "time"

// Record carries the identity and bookkeeping timestamps shared by every
// stored entity. It is embedded so the fields flatten into JSON.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (r *Record) InitTimestamps(now time.Time) {
	r.CreatedAt = now
	r.UpdatedAt = now
}

// Touch records a mutation at now.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now
}
