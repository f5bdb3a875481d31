package app

import (
	"context"
	"fmt"

	"content_lifecycle_engine/internal/domain/content"
	"content_lifecycle_engine/internal/domain/lifecycle"
)

const statusDateFormat = "2 Jan 2006"

// ModerationMessage produces the editor-facing status line of an item: what
// the automatic rules will do to it next, and when. An empty string means
// there is nothing to announce (no rules, manual schedule present, or the
// relevant deadline cannot be derived).
type ModerationMessage struct {
	times *ItemTimes
	rules *lifecycle.RuleSet
}

func NewModerationMessage(times *ItemTimes, rules *lifecycle.RuleSet) *ModerationMessage {
	return &ModerationMessage{times: times, rules: rules}
}

// StatusMessage returns the message for an item based on its current state.
func (m *ModerationMessage) StatusMessage(ctx context.Context, item *content.Item) (string, error) {
	rules, ok := m.rules.BundleRules(item.Type, item.Bundle)
	if !ok {
		return "", nil
	}

	// Manual scheduling suppresses the automatic dates, nothing to announce.
	if lifecycle.IsScheduled(item, rules) {
		return "", nil
	}

	switch item.ModerationState {
	case content.StateDraft:
		at, ok, err := m.times.DraftDeleteTime(ctx, item)
		if err != nil || !ok {
			return "", err
		}
		return fmt.Sprintf("Unless published, this content will be deleted on %s.", at.Format(statusDateFormat)), nil

	case content.StatePublished:
		at, ok, err := m.times.UnpublishTime(ctx, item)
		if err != nil || !ok {
			return "", err
		}
		return fmt.Sprintf("This content will be unpublished on %s.", at.Format(statusDateFormat)), nil

	case content.StateUnpublished:
		at, ok, err := m.times.ArchiveTime(ctx, item)
		if err != nil || !ok {
			return "", err
		}
		return fmt.Sprintf("This content will be archived on %s.", at.Format(statusDateFormat)), nil

	case content.StateArchived:
		at, ok, err := m.times.DeleteTime(ctx, item)
		if err != nil || !ok {
			return "", err
		}
		return fmt.Sprintf("This content will be deleted on %s.", at.Format(statusDateFormat)), nil
	}

	return "", nil
}
