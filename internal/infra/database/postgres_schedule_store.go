package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresScheduleStore implements content.ScheduleStore. The records are
// executed by the external scheduling collaborator; the engine only creates
// defaults for freshly published content.
type PostgresScheduleStore struct {
	db *sql.DB
}

func NewPostgresScheduleStore(db *sql.DB) *PostgresScheduleStore {
	return &PostgresScheduleStore{db: db}
}

func (s *PostgresScheduleStore) CreateSchedule(ctx context.Context, itemType string, itemID int64, fieldName string, at time.Time) (int64, error) {
	query := `INSERT INTO scheduled_updates (item_type, item_id, field_name, update_at)
               VALUES ($1, $2, $3, $4)
               RETURNING id`
	var id int64
	if err := s.db.QueryRowContext(ctx, query, itemType, itemID, fieldName, at).Scan(&id); err != nil {
		return 0, fmt.Errorf("error creating schedule for item %d field %q: %w", itemID, fieldName, err)
	}
	return id, nil
}
