package lifecycle

import (
	"errors"
	"testing"
	"time"

	"content_lifecycle_engine/internal/domain/content"
)

func publishedItem() *content.Item {
	return &content.Item{
		ID:              1,
		Type:            "node",
		Bundle:          "news",
		ModerationState: content.StatePublished,
		Fields:          map[string]string{"scheduled_unpublish": ""},
	}
}

func unpublishRule() FieldRule {
	return FieldRule{
		FieldName:   "scheduled_unpublish",
		TargetState: content.StateUnpublished,
		Offset:      "+14 days",
		Enabled:     true,
	}
}

func TestShouldTransition_DeadlinePassed(t *testing.T) {
	// Published 15 days ago, rule offset 14 days: due.
	lastPublish := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	now := lastPublish.AddDate(0, 0, 15)

	due, err := ShouldTransition(publishedItem(), unpublishRule(), lastPublish, true, now)
	if err != nil {
		t.Fatalf("ShouldTransition: %v", err)
	}
	if !due {
		t.Error("expected transition to be due at publish+15d with a 14 day offset")
	}
}

func TestShouldTransition_DeadlineNotReached(t *testing.T) {
	lastPublish := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	now := lastPublish.AddDate(0, 0, 13)

	due, err := ShouldTransition(publishedItem(), unpublishRule(), lastPublish, true, now)
	if err != nil {
		t.Fatalf("ShouldTransition: %v", err)
	}
	if due {
		t.Error("transition must not fire before the deadline")
	}
}

func TestShouldTransition_DisabledRule(t *testing.T) {
	lastPublish := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	rule := unpublishRule()
	rule.Enabled = false

	due, err := ShouldTransition(publishedItem(), rule, lastPublish, true, lastPublish.AddDate(1, 0, 0))
	if err != nil || due {
		t.Errorf("disabled rule must never be satisfied, got due=%v err=%v", due, err)
	}
}

func TestShouldTransition_OverrideSuppression(t *testing.T) {
	lastPublish := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	item := publishedItem()
	item.Fields["scheduled_unpublish"] = "42" // user-entered manual schedule

	due, err := ShouldTransition(item, unpublishRule(), lastPublish, true, lastPublish.AddDate(10, 0, 0))
	if err != nil {
		t.Fatalf("ShouldTransition: %v", err)
	}
	if due {
		t.Error("an overridden field must suppress the rule regardless of deadline")
	}
}

func TestShouldTransition_AlreadyTargetState(t *testing.T) {
	item := publishedItem()
	item.ModerationState = content.StateUnpublished

	due, err := ShouldTransition(item, unpublishRule(), time.Now().AddDate(-1, 0, 0), true, time.Now())
	if err != nil || due {
		t.Errorf("item already in target state must not transition, got due=%v err=%v", due, err)
	}
}

func TestShouldTransition_IllegalTransition(t *testing.T) {
	item := publishedItem()
	item.ModerationState = content.StateArchived

	due, err := ShouldTransition(item, unpublishRule(), time.Now().AddDate(-1, 0, 0), true, time.Now())
	if err != nil || due {
		t.Errorf("archived content must not transition, got due=%v err=%v", due, err)
	}
}

func TestShouldTransition_NeverPublished(t *testing.T) {
	due, err := ShouldTransition(publishedItem(), unpublishRule(), time.Time{}, false, time.Now())
	if err != nil || due {
		t.Errorf("never-published item must not transition, got due=%v err=%v", due, err)
	}
}

func TestShouldTransition_MalformedOffset(t *testing.T) {
	rule := unpublishRule()
	rule.Offset = "not a duration"

	due, err := ShouldTransition(publishedItem(), rule, time.Now().AddDate(-1, 0, 0), true, time.Now())
	if due {
		t.Error("malformed offset must never fire")
	}
	var invalid *InvalidOffsetError
	if !errors.As(err, &invalid) {
		t.Errorf("expected *InvalidOffsetError, got %v", err)
	}
}

func TestShouldDeleteNeverPublished(t *testing.T) {
	rules := BundleRules{Actions: map[ActionName]ActionRule{
		ActionDeleteUnpublished: {Offset: "+1 year", Enabled: true},
	}}

	item := publishedItem()
	item.ChangedAt = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	// Changed 400 days ago, never published: due.
	now := item.ChangedAt.AddDate(0, 0, 400)
	due, err := ShouldDeleteNeverPublished(item, rules, false, now)
	if err != nil {
		t.Fatalf("ShouldDeleteNeverPublished: %v", err)
	}
	if !due {
		t.Error("expected deletion of a never-published item after 400 days with a 1 year offset")
	}

	// Same instant but the item has publish history: never due.
	due, err = ShouldDeleteNeverPublished(item, rules, true, now)
	if err != nil || due {
		t.Errorf("published item must not match the never-published predicate, got due=%v err=%v", due, err)
	}

	// Disabled action rule: never due.
	rules.Actions[ActionDeleteUnpublished] = ActionRule{Offset: "+1 year", Enabled: false}
	due, err = ShouldDeleteNeverPublished(item, rules, false, now)
	if err != nil || due {
		t.Errorf("disabled action rule must never be satisfied, got due=%v err=%v", due, err)
	}
}

func TestShouldDeleteAged(t *testing.T) {
	rules := BundleRules{Actions: map[ActionName]ActionRule{
		ActionDeletePublished: {Offset: "+3 years", Enabled: true},
	}}

	lastPublish := time.Date(2015, time.June, 1, 0, 0, 0, 0, time.UTC)

	due, err := ShouldDeleteAged(rules, lastPublish, true, lastPublish.AddDate(3, 0, 1))
	if err != nil {
		t.Fatalf("ShouldDeleteAged: %v", err)
	}
	if !due {
		t.Error("expected aged deletion after the offset elapsed")
	}

	due, err = ShouldDeleteAged(rules, lastPublish, true, lastPublish.AddDate(2, 11, 0))
	if err != nil || due {
		t.Errorf("aged deletion must not fire before the offset, got due=%v err=%v", due, err)
	}

	due, err = ShouldDeleteAged(rules, time.Time{}, false, time.Now())
	if err != nil || due {
		t.Errorf("never-published item must not match the aged predicate, got due=%v err=%v", due, err)
	}
}

func TestIsScheduled(t *testing.T) {
	rules := BundleRules{Fields: []FieldRule{unpublishRule()}}

	item := publishedItem()
	if IsScheduled(item, rules) {
		t.Error("empty schedule field must not count as scheduled")
	}

	item.Fields["scheduled_unpublish"] = "17"
	if !IsScheduled(item, rules) {
		t.Error("non-empty schedule field must count as scheduled")
	}

	// A field the item does not expose never counts.
	bare := &content.Item{ModerationState: content.StatePublished}
	if IsScheduled(bare, rules) {
		t.Error("missing field must not count as scheduled")
	}
}
