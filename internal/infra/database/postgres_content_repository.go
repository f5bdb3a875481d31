package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"content_lifecycle_engine/internal/domain/content"

	"github.com/lib/pq" // For pq.Array and driver registration
)

// Custom errors specific to the content repository.
var ErrItemNotFound = fmt.Errorf("content item not found")

// PostgresContentRepository implements content.Repository on top of the
// content_items/content_revisions tables. Loaded items are cached per sweep
// chunk; ResetCache releases them to keep memory bounded.
type PostgresContentRepository struct {
	db *sql.DB

	mu    sync.Mutex
	cache map[int64]*content.Item
}

func NewPostgresContentRepository(db *sql.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db, cache: make(map[int64]*content.Item)}
}

func (r *PostgresContentRepository) QueryIDs(ctx context.Context, itemType, bundle string) ([]int64, error) {
	query := `SELECT id FROM content_items WHERE item_type = $1 AND bundle = $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, itemType, bundle)
	if err != nil {
		return nil, fmt.Errorf("error querying %s/%s item IDs: %w", itemType, bundle, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning item ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresContentRepository) LoadMany(ctx context.Context, itemType string, ids []int64) ([]*content.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	loaded := make(map[int64]*content.Item, len(ids))
	var missing []int64

	r.mu.Lock()
	for _, id := range ids {
		if item, ok := r.cache[id]; ok && item.Type == itemType {
			loaded[id] = item
		} else {
			missing = append(missing, id)
		}
	}
	r.mu.Unlock()

	if len(missing) > 0 {
		query := `SELECT id, item_type, bundle, title, url, moderation_state, changed_at, ignore_lifecycle, field_values
                   FROM content_items
                   WHERE item_type = $1 AND id = ANY($2)`
		rows, err := r.db.QueryContext(ctx, query, itemType, pq.Array(missing))
		if err != nil {
			return nil, fmt.Errorf("error loading %s items: %w", itemType, err)
		}
		defer rows.Close()

		for rows.Next() {
			item := content.Item{}
			var fieldValues []byte
			if err := rows.Scan(
				&item.ID, &item.Type, &item.Bundle, &item.Title, &item.URL,
				&item.ModerationState, &item.ChangedAt, &item.IgnoreLifecycle, &fieldValues,
			); err != nil {
				return nil, fmt.Errorf("error scanning item: %w", err)
			}
			if len(fieldValues) > 0 {
				if err := json.Unmarshal(fieldValues, &item.Fields); err != nil {
					return nil, fmt.Errorf("error decoding field values of item %d: %w", item.ID, err)
				}
			}
			loaded[item.ID] = &item
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		r.mu.Lock()
		for _, id := range missing {
			if item, ok := loaded[id]; ok {
				r.cache[id] = item
			}
		}
		r.mu.Unlock()
	}

	// Preserve the requested ID order; silently drop IDs deleted since the
	// query.
	items := make([]*content.Item, 0, len(loaded))
	for _, id := range ids {
		if item, ok := loaded[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *PostgresContentRepository) LoadRevisionsByState(ctx context.Context, itemType string, id int64, state content.ModerationState, limit int) ([]*content.Revision, error) {
	query := `SELECT revision_id, item_id, moderation_state, active, author_id, changed_at
               FROM content_revisions
               WHERE item_type = $1 AND item_id = $2 AND active = TRUE AND moderation_state = $3
               ORDER BY revision_id DESC
               LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, itemType, id, state, limit)
	if err != nil {
		return nil, fmt.Errorf("error loading revisions of item %d: %w", id, err)
	}
	defer rows.Close()

	var revisions []*content.Revision
	for rows.Next() {
		rev := content.Revision{}
		if err := rows.Scan(&rev.RevisionID, &rev.ItemID, &rev.ModerationState, &rev.Active, &rev.AuthorID, &rev.ChangedAt); err != nil {
			return nil, fmt.Errorf("error scanning revision: %w", err)
		}
		revisions = append(revisions, &rev)
	}
	return revisions, rows.Err()
}

func (r *PostgresContentRepository) Save(ctx context.Context, item *content.Item) error {
	fieldValues, err := json.Marshal(item.Fields)
	if err != nil {
		return fmt.Errorf("error encoding field values of item %d: %w", item.ID, err)
	}

	query := `UPDATE content_items
               SET moderation_state = $1, field_values = $2, changed_at = NOW()
               WHERE item_type = $3 AND id = $4
               RETURNING changed_at`
	err = r.db.QueryRowContext(ctx, query, item.ModerationState, fieldValues, item.Type, item.ID).Scan(&item.ChangedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrItemNotFound
		}
		return fmt.Errorf("error saving item %d: %w", item.ID, err)
	}

	// The saved mutation also becomes a new revision so publish history stays
	// queryable.
	revQuery := `INSERT INTO content_revisions (item_id, item_type, moderation_state, active, changed_at)
                  VALUES ($1, $2, $3, TRUE, $4)`
	if _, err := r.db.ExecContext(ctx, revQuery, item.ID, item.Type, item.ModerationState, item.ChangedAt); err != nil {
		return fmt.Errorf("error recording revision of item %d: %w", item.ID, err)
	}
	return nil
}

func (r *PostgresContentRepository) Delete(ctx context.Context, item *content.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for delete: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_revisions WHERE item_type = $1 AND item_id = $2`, item.Type, item.ID); err != nil {
		return fmt.Errorf("error deleting revisions of item %d: %w", item.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM item_owners WHERE item_type = $1 AND item_id = $2`, item.Type, item.ID); err != nil {
		return fmt.Errorf("error deleting owners of item %d: %w", item.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM content_items WHERE item_type = $1 AND id = $2`, item.Type, item.ID); err != nil {
		return fmt.Errorf("error deleting item %d: %w", item.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of item %d: %w", item.ID, err)
	}

	r.mu.Lock()
	delete(r.cache, item.ID)
	r.mu.Unlock()
	return nil
}

func (r *PostgresContentRepository) ResetCache(ids []int64) {
	r.mu.Lock()
	for _, id := range ids {
		delete(r.cache, id)
	}
	r.mu.Unlock()
}
