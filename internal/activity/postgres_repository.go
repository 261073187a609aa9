package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rosterhq/roster/internal/database"
)

// PostgresRepository implements Sink on the activity_logs table.
type PostgresRepository struct {
	db database.Querier
}

// NewRepository creates a new Sink backed by the given pool.
func NewRepository(db database.Querier) Sink {
	return &PostgresRepository{db: db}
}

// Record inserts an entry, assigning its id when unset.
func (r *PostgresRepository) Record(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	var newData []byte
	if e.NewData != nil {
		b, err := json.Marshal(e.NewData)
		if err != nil {
			return fmt.Errorf("encoding activity data: %w", err)
		}
		newData = b
	}

	query := `
		INSERT INTO activity_logs (id, user_id, activity_type, description, entity_id, entity_type, new_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.UserID,
		e.ActivityType,
		e.Description,
		e.EntityID,
		e.EntityType,
		newData,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting activity log: %w", err)
	}

	return nil
}
