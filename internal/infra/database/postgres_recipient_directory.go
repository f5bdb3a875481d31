package database

import (
	"context"
	"database/sql"
	"fmt"

	"content_lifecycle_engine/internal/domain/content"
	"content_lifecycle_engine/internal/domain/notification"

	"github.com/lib/pq"
)

// PostgresRecipientDirectory implements notification.Directory against the
// users and item_owners tables. An item's recipients are the author of its
// most recent revision plus its designated information owners.
type PostgresRecipientDirectory struct {
	db *sql.DB
}

func NewPostgresRecipientDirectory(db *sql.DB) *PostgresRecipientDirectory {
	return &PostgresRecipientDirectory{db: db}
}

func (d *PostgresRecipientDirectory) ResolveItemRecipients(ctx context.Context, item *content.Item) ([]*notification.Recipient, error) {
	var userIDs []int64

	var authorID int64
	err := d.db.QueryRowContext(ctx,
		`SELECT author_id FROM content_revisions WHERE item_type = $1 AND item_id = $2 ORDER BY revision_id DESC LIMIT 1`,
		item.Type, item.ID,
	).Scan(&authorID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("error resolving revision author of item %d: %w", item.ID, err)
	}
	if err == nil && authorID != 0 {
		userIDs = append(userIDs, authorID)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT user_id FROM item_owners WHERE item_type = $1 AND item_id = $2`,
		item.Type, item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("error resolving owners of item %d: %w", item.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning owner ID: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return d.loadUsers(ctx, `id = ANY($1)`, pq.Array(dedupeIDs(userIDs)))
}

func (d *PostgresRecipientDirectory) LoadByEmails(ctx context.Context, emails []string) ([]*notification.Recipient, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	return d.loadUsers(ctx, `email = ANY($1)`, pq.Array(emails))
}

func (d *PostgresRecipientDirectory) loadUsers(ctx context.Context, condition string, arg interface{}) ([]*notification.Recipient, error) {
	query := `SELECT id, name, email, locale, blocked FROM users WHERE ` + condition + ` ORDER BY id`
	rows, err := d.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}
	defer rows.Close()

	var recipients []*notification.Recipient
	for rows.Next() {
		r := notification.Recipient{}
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Locale, &r.Blocked); err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		recipients = append(recipients, &r)
	}
	return recipients, rows.Err()
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
