package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
)

// PostgresNotificationLedger implements notification.Ledger on a single
// key/value table. The value is a JSON object mapping milestone IDs to
// recipient ID arrays; writes merge into the existing record under a row lock
// so concurrent sweeps cannot lose entries.
type PostgresNotificationLedger struct {
	db *sql.DB
}

func NewPostgresNotificationLedger(db *sql.DB) *PostgresNotificationLedger {
	return &PostgresNotificationLedger{db: db}
}

func (l *PostgresNotificationLedger) AlreadyNotified(ctx context.Context, itemKey, milestoneID string) ([]int64, error) {
	query := `SELECT data FROM lifecycle_notification_store WHERE item_key = $1`
	var raw []byte
	err := l.db.QueryRowContext(ctx, query, itemKey).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading notification record %q: %w", itemKey, err)
	}

	var data map[string][]int64
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("error decoding notification record %q: %w", itemKey, err)
	}
	return data[milestoneID], nil
}

func (l *PostgresNotificationLedger) RecordNotified(ctx context.Context, itemKey, milestoneID string, recipientIDs []int64) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for notification record: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	data := make(map[string][]int64)
	var raw []byte
	err = tx.QueryRowContext(ctx, `SELECT data FROM lifecycle_notification_store WHERE item_key = $1 FOR UPDATE`, itemKey).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		// First notification for this item, record created below.
	case err != nil:
		return fmt.Errorf("error locking notification record %q: %w", itemKey, err)
	default:
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("error decoding notification record %q: %w", itemKey, err)
		}
	}

	data[milestoneID] = mergeRecipientIDs(data[milestoneID], recipientIDs)

	merged, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error encoding notification record %q: %w", itemKey, err)
	}

	upsert := `INSERT INTO lifecycle_notification_store (item_key, data, updated_at)
                VALUES ($1, $2, NOW())
                ON CONFLICT (item_key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if _, err := tx.ExecContext(ctx, upsert, itemKey, merged); err != nil {
		return fmt.Errorf("error writing notification record %q: %w", itemKey, err)
	}

	return tx.Commit()
}

func (l *PostgresNotificationLedger) Forget(ctx context.Context, itemKey string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM lifecycle_notification_store WHERE item_key = $1`, itemKey); err != nil {
		return fmt.Errorf("error deleting notification record %q: %w", itemKey, err)
	}
	return nil
}

// mergeRecipientIDs returns the sorted set union of both ID lists.
func mergeRecipientIDs(existing, added []int64) []int64 {
	seen := make(map[int64]struct{}, len(existing)+len(added))
	merged := make([]int64, 0, len(existing)+len(added))
	for _, list := range [][]int64{existing, added} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	return merged
}
