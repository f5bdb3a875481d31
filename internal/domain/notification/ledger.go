package notification

import "context"

// Ledger is the durable record of which recipients were already told about
// which milestone of which item. Once a recipient appears under a milestone
// for an item key, it is never re-notified for that pair, across sweeps and
// restarts. Writes for the same key must be serialized by the implementation;
// cross-key transactionality is not required.
type Ledger interface {
	// AlreadyNotified returns the recipient IDs recorded for an item/milestone.
	AlreadyNotified(ctx context.Context, itemKey, milestoneID string) ([]int64, error)

	// RecordNotified merges the given recipient IDs into the record (set
	// union). It never removes entries and never duplicates them.
	RecordNotified(ctx context.Context, itemKey, milestoneID string, recipientIDs []int64) error

	// Forget deletes the whole record of an item. Called when the underlying
	// item is deleted.
	Forget(ctx context.Context, itemKey string) error
}
