package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is a single analysis recorded by the HTTP endpoint.
type Prediction struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	Category  string    `db:"category" json:"category"`
	Severity  Severity  `db:"severity" json:"severity"`
	RunID     string    `db:"run_id" json:"run_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
