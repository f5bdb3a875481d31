package content

import (
	"fmt"
	"time"
)

// Item is a managed content unit subject to lifecycle rules. The engine does
// not own these entities; it reads them through Repository and writes back
// only the moderation state and deletion.
type Item struct {
	ID              int64
	Type            string // e.g. "node"
	Bundle          string // content sub-type, e.g. "news"
	Title           string
	URL             string
	ModerationState ModerationState
	ChangedAt       time.Time
	IgnoreLifecycle bool // explicit per-item opt-out

	// Fields carries the handful of dynamically configured field values the
	// rules reference by name, typically manual-schedule references. A missing
	// key means the item does not expose the field at all.
	Fields map[string]string
}

// Key returns the item's notification-store key.
func (i *Item) Key() string {
	return fmt.Sprintf("%s.%s.%d", i.Type, i.Bundle, i.ID)
}

// HasField reports whether the item exposes the named field.
func (i *Item) HasField(name string) bool {
	_, ok := i.Fields[name]
	return ok
}

// FieldEmpty reports whether the named field exists and holds no value.
func (i *Item) FieldEmpty(name string) bool {
	v, ok := i.Fields[name]
	return ok && v == ""
}

// SetField sets a dynamic field value, allocating the bag if needed.
func (i *Item) SetField(name, value string) {
	if i.Fields == nil {
		i.Fields = make(map[string]string)
	}
	i.Fields[name] = value
}

// Revision is a single historical revision of an item, used to locate the
// most recent revision that was simultaneously active and published.
type Revision struct {
	RevisionID      int64
	ItemID          int64
	ModerationState ModerationState
	Active          bool
	AuthorID        int64
	ChangedAt       time.Time
}
