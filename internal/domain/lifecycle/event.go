package lifecycle

import (
	"context"

	"content_lifecycle_engine/internal/domain/content"
)

// RemovalReason explains why an item was deleted. Audit logging only, it does
// not affect control flow.
type RemovalReason string

const (
	RemovalReasonUnknown        RemovalReason = "unknown"
	RemovalReasonTooOld         RemovalReason = "too_old"
	RemovalReasonNeverPublished RemovalReason = "never_published"
)

// ItemSnapshot captures the identifying data of an item before deletion so
// the audit trail survives the entity.
type ItemSnapshot struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SnapshotOf builds an audit snapshot from a live item.
func SnapshotOf(item *content.Item) ItemSnapshot {
	return ItemSnapshot{ID: item.ID, Title: item.Title, URL: item.URL}
}

// UpdateEvent signals that an item's moderation state was changed by a rule.
type UpdateEvent struct {
	Item        *content.Item
	TargetState content.ModerationState
}

// RemoveEvent signals that an item was deleted by an action rule.
type RemoveEvent struct {
	Item     *content.Item
	Reason   RemovalReason
	Snapshot ItemSnapshot
}

// IgnoreEvent signals that an item was evaluated and left untouched. Emitted
// for observability; the notification dispatcher derives reminders from it.
type IgnoreEvent struct {
	Item *content.Item
}

// Handler reacts to lifecycle events. Handlers are invoked synchronously in
// the order they were registered with the evaluator; a handler error is
// logged by the evaluator and never aborts the sweep.
type Handler interface {
	OnUpdate(ctx context.Context, event UpdateEvent) error
	OnRemove(ctx context.Context, event RemoveEvent) error
	OnIgnore(ctx context.Context, event IgnoreEvent) error
}
