package lifecycle

import (
	"time"

	"content_lifecycle_engine/internal/domain/content"
)

// IsOverridden reports whether the item carries a user-entered value in the
// named schedule field. Manual scheduling always wins over automatic rules;
// the external scheduling collaborator owns and executes those records.
func IsOverridden(item *content.Item, fieldName string) bool {
	return item.HasField(fieldName) && !item.FieldEmpty(fieldName)
}

// IsScheduled reports whether any configured schedule field of the item is
// overridden, which suppresses all automatic evaluation for the item.
func IsScheduled(item *content.Item, rules BundleRules) bool {
	for _, name := range rules.ScheduleFieldNames() {
		if IsOverridden(item, name) {
			return true
		}
	}
	return false
}

// ShouldTransition decides whether a field rule is due for an item. The
// caller supplies the item's last-publish time (hasPublish false when the
// item was never published) so the decision itself stays free of I/O.
// A malformed offset is returned as *InvalidOffsetError and the rule is
// treated as never firing.
func ShouldTransition(
	item *content.Item,
	rule FieldRule,
	lastPublish time.Time,
	hasPublish bool,
	now time.Time,
) (bool, error) {
	if item.ModerationState == "" || !rule.Enabled || rule.TargetState == "" || rule.Offset == "" {
		return false, nil
	}

	// Already there, or the move would be illegal.
	if item.ModerationState == rule.TargetState ||
		!content.IsLegalTransition(item.ModerationState, rule.TargetState) {
		return false, nil
	}

	if IsOverridden(item, rule.FieldName) {
		return false, nil
	}

	// Was not yet published.
	if !hasPublish {
		return false, nil
	}

	deadline, err := AddOffset(lastPublish, rule.Offset)
	if err != nil {
		return false, err
	}

	return !now.Before(deadline), nil
}

// ShouldDeleteNeverPublished decides whether an item that was never published
// has outlived the delete_unpublished offset since its last change.
func ShouldDeleteNeverPublished(item *content.Item, rules BundleRules, hasPublish bool, now time.Time) (bool, error) {
	if hasPublish {
		return false, nil
	}

	offset, ok := rules.ActionOffset(ActionDeleteUnpublished)
	if !ok {
		return false, nil
	}

	deadline, err := AddOffset(item.ChangedAt, offset)
	if err != nil {
		return false, err
	}

	return !now.Before(deadline), nil
}

// ShouldDeleteAged decides whether a once-published item has outlived the
// delete_published offset since its last publish time.
func ShouldDeleteAged(rules BundleRules, lastPublish time.Time, hasPublish bool, now time.Time) (bool, error) {
	if !hasPublish {
		return false, nil
	}

	offset, ok := rules.ActionOffset(ActionDeletePublished)
	if !ok {
		return false, nil
	}

	deadline, err := AddOffset(lastPublish, offset)
	if err != nil {
		return false, err
	}

	return !now.Before(deadline), nil
}
