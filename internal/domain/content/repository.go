package content

import (
	"context"
	"time"
)

// Repository defines the operations the engine consumes from the content
// storage collaborator. Implementations own entity persistence and revision
// history; the engine only queries, transitions and deletes.
type Repository interface {
	// QueryIDs returns all item IDs of a type/bundle, without state filtering.
	// Per-item filtering happens during evaluation.
	QueryIDs(ctx context.Context, itemType, bundle string) ([]int64, error)

	// LoadMany loads the default revision of the given items.
	LoadMany(ctx context.Context, itemType string, ids []int64) ([]*Item, error)

	// LoadRevisionsByState returns up to limit revisions of an item that are
	// active and in the given moderation state, most recent revision first.
	LoadRevisionsByState(ctx context.Context, itemType string, id int64, state ModerationState, limit int) ([]*Revision, error)

	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, item *Item) error

	// ResetCache releases any cached copies of the given items so chunked
	// sweeps keep memory bounded.
	ResetCache(ids []int64)
}

// ScheduleStore persists manual-schedule records owned by the external
// scheduling collaborator. The engine only creates default schedules for
// freshly published content; executing them is not its concern.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, itemType string, itemID int64, fieldName string, at time.Time) (int64, error)
}
