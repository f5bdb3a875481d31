package notification

import (
	"context"

	"content_lifecycle_engine/internal/domain/content"
)

// Recipient is a user that may receive lifecycle notifications.
type Recipient struct {
	ID      int64
	Name    string
	Email   string
	Locale  string
	Blocked bool
}

// Valid reports whether the recipient can actually be mailed.
func (r *Recipient) Valid() bool {
	return r.Email != "" && !r.Blocked
}

// Directory resolves the users interested in an item: the author of its last
// revision and its designated information owners. LoadByEmails backs the
// configured fallback recipient list.
type Directory interface {
	ResolveItemRecipients(ctx context.Context, item *content.Item) ([]*Recipient, error)
	LoadByEmails(ctx context.Context, emails []string) ([]*Recipient, error)
}
