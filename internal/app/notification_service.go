package app

import (
	"context"
	"fmt"
	"time"

	"content_lifecycle_engine/internal/domain/content"
	"content_lifecycle_engine/internal/domain/lifecycle"
	"content_lifecycle_engine/internal/domain/mail"
	"content_lifecycle_engine/internal/domain/notification"
	"content_lifecycle_engine/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// NotificationConfig configures the dispatcher.
type NotificationConfig struct {
	// Disabled is the notification kill switch, independent of the lifecycle
	// one.
	Disabled bool

	// ContactMail is shown in mail bodies as the address to reach out to.
	ContactMail string

	// FallbackRecipients receives notifications when an item has no valid
	// recipient of its own.
	FallbackRecipients []string

	// Reminders is the ordered milestone table for upcoming unpublishing.
	// Defaults to notification.DefaultReminders when empty.
	Reminders []notification.Milestone
}

// NotificationService consumes lifecycle events, determines the milestone,
// resolves recipients, filters the already-notified ones through the ledger
// and hands the rest to the mail collaborator. Only a confirmed send is
// recorded; a failed send is simply retried on the next sweep since the
// deadline condition still holds.
type NotificationService struct {
	ledger     notification.Ledger
	directory  notification.Directory
	mailClient mail.Client
	times      *ItemTimes
	cfg        NotificationConfig
	logger     *logrus.Logger
	metrics    *metrics.SweepMetrics
	now        func() time.Time
}

func NewNotificationService(
	ledger notification.Ledger,
	directory notification.Directory,
	mailClient mail.Client,
	times *ItemTimes,
	cfg NotificationConfig,
	logger *logrus.Logger,
	sweepMetrics *metrics.SweepMetrics,
) *NotificationService {
	if len(cfg.Reminders) == 0 {
		cfg.Reminders = notification.DefaultReminders
	}
	return &NotificationService{
		ledger:     ledger,
		directory:  directory,
		mailClient: mailClient,
		times:      times,
		cfg:        cfg,
		logger:     logger,
		metrics:    sweepMetrics,
		now:        time.Now,
	}
}

// SetClock overrides the dispatcher's time source.
func (s *NotificationService) SetClock(now func() time.Time) {
	s.now = now
}

// OnUpdate notifies interested users once when content got unpublished.
func (s *NotificationService) OnUpdate(ctx context.Context, event lifecycle.UpdateEvent) error {
	if s.cfg.Disabled {
		return nil
	}

	if event.TargetState != content.StateUnpublished {
		return nil
	}

	return s.notify(ctx, event.Item, notification.MilestoneContentUnpublished)
}

// OnIgnore sends an upcoming-unpublish reminder when the item's deadline is
// close enough for one of the configured milestones.
func (s *NotificationService) OnIgnore(ctx context.Context, event lifecycle.IgnoreEvent) error {
	if s.cfg.Disabled {
		return nil
	}

	item := event.Item

	unpublishTime, ok, err := s.times.UnpublishTime(ctx, item)
	if err != nil {
		return fmt.Errorf("determining unpublish time of %s: %w", item.Key(), err)
	}
	if !ok || !content.IsLegalTransition(item.ModerationState, content.StateUnpublished) {
		return nil
	}

	milestoneID, ok := notification.SelectReminder(s.cfg.Reminders, unpublishTime, s.now())
	if !ok {
		return nil
	}

	return s.notify(ctx, item, milestoneID)
}

// OnRemove drops the item's ledger record along with the item.
func (s *NotificationService) OnRemove(ctx context.Context, event lifecycle.RemoveEvent) error {
	if err := s.ledger.Forget(ctx, event.Item.Key()); err != nil {
		return fmt.Errorf("forgetting ledger record of %s: %w", event.Item.Key(), err)
	}
	return nil
}

func (s *NotificationService) notify(ctx context.Context, item *content.Item, milestoneID string) error {
	recipients, err := s.pendingRecipients(ctx, item, milestoneID)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	msg, err := s.composeMessage(ctx, item, milestoneID)
	if err != nil {
		return err
	}

	for _, recipient := range recipients {
		if err := s.mailClient.Send(ctx, recipient.Email, recipient.Locale, msg); err != nil {
			// No in-pass retry: eligibility persists, the next sweep retries.
			s.logger.WithError(err).Errorf("Sending %s for item %s to %s failed.", milestoneID, item.Key(), recipient.Email)
			continue
		}

		if err := s.ledger.RecordNotified(ctx, item.Key(), milestoneID, []int64{recipient.ID}); err != nil {
			s.logger.WithError(err).Errorf("Recording %s for item %s, recipient %d failed.", milestoneID, item.Key(), recipient.ID)
			continue
		}

		s.metrics.NotificationSent(milestoneID)
		s.logger.Infof("Sent %s for item %s to %s.", milestoneID, item.Key(), recipient.Email)
	}

	return nil
}

// pendingRecipients resolves the item's recipients, drops invalid and
// already-notified ones, and falls back to the configured recipient list when
// nobody is left. Fallback recipients go through the same ledger filter so
// the exactly-once guarantee holds for them too.
func (s *NotificationService) pendingRecipients(ctx context.Context, item *content.Item, milestoneID string) ([]*notification.Recipient, error) {
	notified, err := s.ledger.AlreadyNotified(ctx, item.Key(), milestoneID)
	if err != nil {
		return nil, fmt.Errorf("reading ledger for %s: %w", item.Key(), err)
	}
	notifiedSet := make(map[int64]struct{}, len(notified))
	for _, id := range notified {
		notifiedSet[id] = struct{}{}
	}

	candidates, err := s.directory.ResolveItemRecipients(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("resolving recipients of %s: %w", item.Key(), err)
	}

	pending := filterRecipients(candidates, notifiedSet)
	if len(pending) > 0 || len(s.cfg.FallbackRecipients) == 0 {
		return pending, nil
	}

	fallback, err := s.directory.LoadByEmails(ctx, s.cfg.FallbackRecipients)
	if err != nil {
		return nil, fmt.Errorf("loading fallback recipients: %w", err)
	}

	return filterRecipients(fallback, notifiedSet), nil
}

func filterRecipients(candidates []*notification.Recipient, notified map[int64]struct{}) []*notification.Recipient {
	var pending []*notification.Recipient
	for _, c := range candidates {
		if !c.Valid() {
			continue
		}
		if _, ok := notified[c.ID]; ok {
			continue
		}
		pending = append(pending, c)
	}
	return pending
}

func (s *NotificationService) composeMessage(ctx context.Context, item *content.Item, milestoneID string) (mail.Message, error) {
	var msg mail.Message

	switch milestoneID {
	case notification.MilestoneContentUnpublished:
		msg.Subject = fmt.Sprintf("UNPUBLISHED: Your page - %s", item.Title)
		msg.Body = fmt.Sprintf("Your page %q (%s) has been unpublished automatically.", item.Title, item.URL)

		if deleteTime, ok, err := s.times.DeleteTime(ctx, item); err == nil && ok {
			msg.Body += fmt.Sprintf("\nUnless re-published, it will be deleted on %s.", deleteTime.Format("2 Jan 2006"))
		}

	default:
		msg.Subject = fmt.Sprintf("TO BE UNPUBLISHED: Your page - %s", item.Title)
		if milestoneID == "reminder.unpublished_content.half_month_before" {
			msg.Subject = "REMINDER - " + msg.Subject
		}

		unpublishTime, ok, err := s.times.UnpublishTime(ctx, item)
		if err != nil {
			return msg, fmt.Errorf("determining unpublish time of %s: %w", item.Key(), err)
		}
		msg.Body = fmt.Sprintf("Your page %q (%s) is scheduled for automatic unpublishing.", item.Title, item.URL)
		if ok {
			msg.Body += fmt.Sprintf("\nIt will be unpublished on %s unless a manual schedule is set or it is re-published.", unpublishTime.Format("2 Jan 2006"))
		}
	}

	if s.cfg.ContactMail != "" {
		msg.Body += fmt.Sprintf("\n\nQuestions? Contact %s.", s.cfg.ContactMail)
	}

	return msg, nil
}
