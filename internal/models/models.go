package models

import "time"

// Model is implemented by every persisted entity.
type Model interface {
	Key() string        // Key returns the unique identifier for this model
	Created() time.Time // Created returns when this model was created
	Validate() error    // Validate checks the model's data before it is written
}

// Timestamps holds the bookkeeping columns shared by all tables.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Touch sets both timestamps on a new record, or UpdatedAt on an existing one.
func (t *Timestamps) Touch(now time.Time) {
	now = now.UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

func (t Timestamps) Created() time.Time { return t.CreatedAt }
