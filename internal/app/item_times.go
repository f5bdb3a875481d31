package app

import (
	"context"
	"time"

	"content_lifecycle_engine/internal/domain/content"
	"content_lifecycle_engine/internal/domain/lifecycle"
)

// ItemTimes derives per-item lifecycle timestamps from publication history
// and the configured offsets. All methods return ok=false when the time
// cannot be derived (never published, no matching rule); a malformed offset
// surfaces as *lifecycle.InvalidOffsetError.
type ItemTimes struct {
	repo  content.Repository
	rules *lifecycle.RuleSet
}

func NewItemTimes(repo content.Repository, rules *lifecycle.RuleSet) *ItemTimes {
	return &ItemTimes{repo: repo, rules: rules}
}

// LastPublishTime returns the changed timestamp of the most recent revision
// that was simultaneously active and in the published state. A later
// unpublished edit never supersedes it.
func (t *ItemTimes) LastPublishTime(ctx context.Context, item *content.Item) (time.Time, bool, error) {
	revisions, err := t.repo.LoadRevisionsByState(ctx, item.Type, item.ID, content.StatePublished, 1)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(revisions) == 0 {
		return time.Time{}, false, nil
	}
	return revisions[0].ChangedAt, true, nil
}

// offsetLastPublishTime applies an offset to the item's last publish time.
func (t *ItemTimes) offsetLastPublishTime(ctx context.Context, item *content.Item, offset string) (time.Time, bool, error) {
	lastPublish, ok, err := t.LastPublishTime(ctx, item)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	deadline, err := lifecycle.AddOffset(lastPublish, offset)
	if err != nil {
		return time.Time{}, false, err
	}
	return deadline, true, nil
}

func (t *ItemTimes) stateTime(ctx context.Context, item *content.Item, state content.ModerationState) (time.Time, bool, error) {
	rules, ok := t.rules.BundleRules(item.Type, item.Bundle)
	if !ok {
		return time.Time{}, false, nil
	}

	offset, ok := rules.StateOffset(state)
	if !ok {
		return time.Time{}, false, nil
	}

	return t.offsetLastPublishTime(ctx, item, offset)
}

// UnpublishTime returns when the item will be unpublished automatically.
func (t *ItemTimes) UnpublishTime(ctx context.Context, item *content.Item) (time.Time, bool, error) {
	return t.stateTime(ctx, item, content.StateUnpublished)
}

// ArchiveTime returns when the item will be archived automatically.
func (t *ItemTimes) ArchiveTime(ctx context.Context, item *content.Item) (time.Time, bool, error) {
	return t.stateTime(ctx, item, content.StateArchived)
}

// DeleteTime returns when a once-published item will be deleted.
func (t *ItemTimes) DeleteTime(ctx context.Context, item *content.Item) (time.Time, bool, error) {
	rules, ok := t.rules.BundleRules(item.Type, item.Bundle)
	if !ok {
		return time.Time{}, false, nil
	}

	offset, ok := rules.ActionOffset(lifecycle.ActionDeletePublished)
	if !ok {
		return time.Time{}, false, nil
	}

	return t.offsetLastPublishTime(ctx, item, offset)
}

// DraftDeleteTime returns when a never-published item will be deleted. An
// item with publication history has no draft delete time.
func (t *ItemTimes) DraftDeleteTime(ctx context.Context, item *content.Item) (time.Time, bool, error) {
	_, published, err := t.LastPublishTime(ctx, item)
	if err != nil || published {
		return time.Time{}, false, err
	}

	rules, ok := t.rules.BundleRules(item.Type, item.Bundle)
	if !ok {
		return time.Time{}, false, nil
	}

	offset, ok := rules.ActionOffset(lifecycle.ActionDeleteUnpublished)
	if !ok {
		return time.Time{}, false, nil
	}

	deadline, err := lifecycle.AddOffset(item.ChangedAt, offset)
	if err != nil {
		return time.Time{}, false, err
	}
	return deadline, true, nil
}
