package activity

import (
	"time"

	"github.com/google/uuid"
)

// Activity types written by account provisioning.
const (
	TypeUserCreatedAndApproved = "user_created_and_approved"
	TypeUserCreatedPending     = "user_created_pending"
)

// EntityTypeUser marks entries whose EntityID is a users row.
const EntityTypeUser = "user"

// Entry represents a row in the activity_logs table.
type Entry struct {
	ID           uuid.UUID
	UserID       uuid.UUID // the actor
	ActivityType string
	Description  string
	EntityID     *uuid.UUID
	EntityType   string
	NewData      any // marshalled to JSONB
	CreatedAt    time.Time
}
