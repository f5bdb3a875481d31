package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"content_lifecycle_engine/internal/domain/content"
	"content_lifecycle_engine/internal/domain/lifecycle"
	"content_lifecycle_engine/internal/domain/mail"
	"content_lifecycle_engine/internal/domain/notification"
)

type fakeLedger struct {
	records   map[string]map[string][]int64
	forgotten []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]map[string][]int64)}
}

func (f *fakeLedger) AlreadyNotified(_ context.Context, key, milestoneID string) ([]int64, error) {
	return f.records[key][milestoneID], nil
}

func (f *fakeLedger) RecordNotified(_ context.Context, key, milestoneID string, recipientIDs []int64) error {
	if f.records[key] == nil {
		f.records[key] = make(map[string][]int64)
	}
	f.records[key][milestoneID] = append(f.records[key][milestoneID], recipientIDs...)
	return nil
}

func (f *fakeLedger) Forget(_ context.Context, key string) error {
	delete(f.records, key)
	f.forgotten = append(f.forgotten, key)
	return nil
}

type fakeDirectory struct {
	itemRecipients []*notification.Recipient
	fallback       map[string]*notification.Recipient
}

func (f *fakeDirectory) ResolveItemRecipients(_ context.Context, _ *content.Item) ([]*notification.Recipient, error) {
	return f.itemRecipients, nil
}

func (f *fakeDirectory) LoadByEmails(_ context.Context, emails []string) ([]*notification.Recipient, error) {
	var recipients []*notification.Recipient
	for _, email := range emails {
		if r, ok := f.fallback[email]; ok {
			recipients = append(recipients, r)
		}
	}
	return recipients, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailClient struct {
	sent    []sentMail
	failFor map[string]error
}

func (f *fakeMailClient) Send(_ context.Context, recipientAddress, _ string, msg mail.Message) error {
	if err := f.failFor[recipientAddress]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMail{to: recipientAddress, subject: msg.Subject, body: msg.Body})
	return nil
}

type notifFixture struct {
	service *NotificationService
	ledger  *fakeLedger
	dir     *fakeDirectory
	mailer  *fakeMailClient
	repo    *fakeContentRepo
	now     time.Time
}

func newNotifFixture(t *testing.T, cfg NotificationConfig) *notifFixture {
	t.Helper()

	repo := newFakeContentRepo()
	rules := newsRules(lifecycle.BundleRules{
		Fields: []lifecycle.FieldRule{{
			FieldName:   "scheduled_unpublish",
			TargetState: content.StateUnpublished,
			Offset:      "+1 month",
			Enabled:     true,
		}},
	})

	fx := &notifFixture{
		ledger: newFakeLedger(),
		dir:    &fakeDirectory{},
		mailer: &fakeMailClient{},
		repo:   repo,
		now:    time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
	fx.service = NewNotificationService(fx.ledger, fx.dir, fx.mailer, NewItemTimes(repo, rules), cfg, testLogger(), nil)
	fx.service.SetClock(func() time.Time { return fx.now })
	return fx
}

func owner(id int64, email string) *notification.Recipient {
	return &notification.Recipient{ID: id, Name: "owner", Email: email, Locale: "en"}
}

func TestOnUpdate_NotifiesExactlyOnce(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{ContactMail: "support@example.com"})
	fx.dir.itemRecipients = []*notification.Recipient{owner(7, "author@example.com")}

	item := newsItem(1, content.StateUnpublished)
	event := lifecycle.UpdateEvent{Item: item, TargetState: content.StateUnpublished}

	if err := fx.service.OnUpdate(context.Background(), event); err != nil {
		t.Fatalf("OnUpdate: %v", err)
	}

	if len(fx.mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(fx.mailer.sent))
	}
	sent := fx.mailer.sent[0]
	if sent.to != "author@example.com" {
		t.Errorf("sent to %s, want author@example.com", sent.to)
	}
	if sent.subject != "UNPUBLISHED: Your page - Some page" {
		t.Errorf("subject = %q", sent.subject)
	}
	if !strings.Contains(sent.body, "support@example.com") {
		t.Errorf("body misses the contact address: %q", sent.body)
	}

	// The same event on the next sweep must stay silent.
	if err := fx.service.OnUpdate(context.Background(), event); err != nil {
		t.Fatalf("second OnUpdate: %v", err)
	}
	if len(fx.mailer.sent) != 1 {
		t.Errorf("sent %d mails after re-dispatch, want still 1", len(fx.mailer.sent))
	}
}

func TestOnUpdate_IgnoresOtherTargetStates(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{})
	fx.dir.itemRecipients = []*notification.Recipient{owner(7, "author@example.com")}

	event := lifecycle.UpdateEvent{Item: newsItem(1, content.StateArchived), TargetState: content.StateArchived}
	if err := fx.service.OnUpdate(context.Background(), event); err != nil {
		t.Fatalf("OnUpdate: %v", err)
	}
	if len(fx.mailer.sent) != 0 {
		t.Errorf("archiving produced %d mails, want 0", len(fx.mailer.sent))
	}
}

func TestOnUpdate_FailedSendIsRetriedNextSweep(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{})
	fx.dir.itemRecipients = []*notification.Recipient{owner(7, "author@example.com")}
	fx.mailer.failFor = map[string]error{"author@example.com": errors.New("connection refused")}

	event := lifecycle.UpdateEvent{Item: newsItem(1, content.StateUnpublished), TargetState: content.StateUnpublished}
	if err := fx.service.OnUpdate(context.Background(), event); err != nil {
		t.Fatalf("OnUpdate: %v", err)
	}
	if len(fx.ledger.records) != 0 {
		t.Error("failed send must not be recorded in the ledger")
	}

	// Next sweep, mail server back up.
	fx.mailer.failFor = nil
	if err := fx.service.OnUpdate(context.Background(), event); err != nil {
		t.Fatalf("second OnUpdate: %v", err)
	}
	if len(fx.mailer.sent) != 1 {
		t.Errorf("sent %d mails after recovery, want 1", len(fx.mailer.sent))
	}
}

func TestOnUpdate_FallbackRecipients(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{FallbackRecipients: []string{"editors@example.com"}})
	fx.dir.fallback = map[string]*notification.Recipient{
		"editors@example.com": owner(100, "editors@example.com"),
	}

	event := lifecycle.UpdateEvent{Item: newsItem(1, content.StateUnpublished), TargetState: content.StateUnpublished}
	if err := fx.service.OnUpdate(context.Background(), event); err != nil {
		t.Fatalf("OnUpdate: %v", err)
	}
	if len(fx.mailer.sent) != 1 || fx.mailer.sent[0].to != "editors@example.com" {
		t.Fatalf("sent = %+v, want one mail to the fallback list", fx.mailer.sent)
	}

	// Fallback recipients are subject to the same exactly-once guarantee.
	if err := fx.service.OnUpdate(context.Background(), event); err != nil {
		t.Fatalf("second OnUpdate: %v", err)
	}
	if len(fx.mailer.sent) != 1 {
		t.Errorf("sent %d mails after re-dispatch, want still 1", len(fx.mailer.sent))
	}
}

func TestOnUpdate_SkipsInvalidRecipients(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{})
	blocked := owner(7, "author@example.com")
	blocked.Blocked = true
	fx.dir.itemRecipients = []*notification.Recipient{
		blocked,
		{ID: 8, Name: "no mail address"},
		owner(9, "second@example.com"),
	}

	event := lifecycle.UpdateEvent{Item: newsItem(1, content.StateUnpublished), TargetState: content.StateUnpublished}
	if err := fx.service.OnUpdate(context.Background(), event); err != nil {
		t.Fatalf("OnUpdate: %v", err)
	}
	if len(fx.mailer.sent) != 1 || fx.mailer.sent[0].to != "second@example.com" {
		t.Errorf("sent = %+v, want one mail to the only valid recipient", fx.mailer.sent)
	}
}

func TestOnIgnore_SendsReminderNearDeadline(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{})
	fx.dir.itemRecipients = []*notification.Recipient{owner(7, "author@example.com")}

	// Published 25 days ago with a one month unpublish offset: the deadline is
	// a few days away, inside the half month reminder window.
	item := newsItem(1, content.StatePublished)
	fx.repo.add(item, publishedRevision(1, fx.now.AddDate(0, 0, -25)))

	if err := fx.service.OnIgnore(context.Background(), lifecycle.IgnoreEvent{Item: item}); err != nil {
		t.Fatalf("OnIgnore: %v", err)
	}

	if len(fx.mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(fx.mailer.sent))
	}
	sent := fx.mailer.sent[0]
	if sent.subject != "REMINDER - TO BE UNPUBLISHED: Your page - Some page" {
		t.Errorf("subject = %q", sent.subject)
	}
	if !strings.Contains(sent.body, "unpublished on") {
		t.Errorf("body misses the deadline date: %q", sent.body)
	}
}

func TestOnIgnore_DeadlineTooFarAway(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{
		Reminders: []notification.Milestone{
			{Offset: "14 days", ID: "reminder.unpublished_content.half_month_before"},
		},
	})
	fx.dir.itemRecipients = []*notification.Recipient{owner(7, "author@example.com")}

	item := newsItem(1, content.StatePublished)
	fx.repo.add(item, publishedRevision(1, fx.now))

	if err := fx.service.OnIgnore(context.Background(), lifecycle.IgnoreEvent{Item: item}); err != nil {
		t.Fatalf("OnIgnore: %v", err)
	}
	if len(fx.mailer.sent) != 0 {
		t.Errorf("sent %d mails for a far-off deadline, want 0", len(fx.mailer.sent))
	}
}

func TestOnIgnore_SkipsStatesThatCannotUnpublish(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{})
	fx.dir.itemRecipients = []*notification.Recipient{owner(7, "author@example.com")}

	item := newsItem(1, content.StateArchived)
	fx.repo.add(item, publishedRevision(1, fx.now.AddDate(0, 0, -25)))

	if err := fx.service.OnIgnore(context.Background(), lifecycle.IgnoreEvent{Item: item}); err != nil {
		t.Fatalf("OnIgnore: %v", err)
	}
	if len(fx.mailer.sent) != 0 {
		t.Errorf("sent %d mails for archived content, want 0", len(fx.mailer.sent))
	}
}

func TestOnRemove_ForgetsLedgerRecord(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{})

	item := newsItem(1, content.StateUnpublished)
	fx.ledger.records[item.Key()] = map[string][]int64{
		notification.MilestoneContentUnpublished: {7},
	}

	event := lifecycle.RemoveEvent{Item: item, Reason: lifecycle.RemovalReasonTooOld}
	if err := fx.service.OnRemove(context.Background(), event); err != nil {
		t.Fatalf("OnRemove: %v", err)
	}
	if len(fx.ledger.forgotten) != 1 || fx.ledger.forgotten[0] != item.Key() {
		t.Errorf("forgotten = %v, want the item's key", fx.ledger.forgotten)
	}
}

func TestNotifications_KillSwitch(t *testing.T) {
	fx := newNotifFixture(t, NotificationConfig{Disabled: true})
	fx.dir.itemRecipients = []*notification.Recipient{owner(7, "author@example.com")}

	item := newsItem(1, content.StatePublished)
	fx.repo.add(item, publishedRevision(1, fx.now.AddDate(0, 0, -25)))

	update := lifecycle.UpdateEvent{Item: item, TargetState: content.StateUnpublished}
	if err := fx.service.OnUpdate(context.Background(), update); err != nil {
		t.Fatalf("OnUpdate: %v", err)
	}
	if err := fx.service.OnIgnore(context.Background(), lifecycle.IgnoreEvent{Item: item}); err != nil {
		t.Fatalf("OnIgnore: %v", err)
	}

	if len(fx.mailer.sent) != 0 {
		t.Errorf("disabled dispatcher sent %d mails, want 0", len(fx.mailer.sent))
	}
}
