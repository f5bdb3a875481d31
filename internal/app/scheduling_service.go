package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"content_lifecycle_engine/internal/domain/content"
	"content_lifecycle_engine/internal/domain/lifecycle"

	"github.com/sirupsen/logrus"
)

// SchedulingService materializes default manual-schedule records for freshly
// published content: every configured schedule field that is still empty gets
// a schedule at now+offset, so editors see the dates the automatic rules
// would otherwise apply silently. The external scheduling collaborator owns
// and executes the records afterwards.
type SchedulingService struct {
	repo   content.Repository
	store  content.ScheduleStore
	rules  *lifecycle.RuleSet
	logger *logrus.Logger
}

func NewSchedulingService(
	repo content.Repository,
	store content.ScheduleStore,
	rules *lifecycle.RuleSet,
	logger *logrus.Logger,
) *SchedulingService {
	return &SchedulingService{repo: repo, store: store, rules: rules, logger: logger}
}

// ApplyDefaults sets default schedules on a published item. Items that are
// not published, carry manual schedules already, or have no configuration are
// left alone.
func (s *SchedulingService) ApplyDefaults(ctx context.Context, item *content.Item, now time.Time) error {
	if item.ModerationState != content.StatePublished {
		return nil
	}

	rules, ok := s.rules.BundleRules(item.Type, item.Bundle)
	if !ok {
		return nil
	}

	changed := false
	for _, rule := range rules.Fields {
		if rule.Offset == "" || !item.HasField(rule.FieldName) || !item.FieldEmpty(rule.FieldName) {
			continue
		}

		at, err := lifecycle.AddOffset(now, rule.Offset)
		if err != nil {
			s.logger.WithError(err).Warnf("Default schedule for field %q of %s skipped.", rule.FieldName, item.Key())
			continue
		}

		scheduleID, err := s.store.CreateSchedule(ctx, item.Type, item.ID, rule.FieldName, at)
		if err != nil {
			return fmt.Errorf("creating default schedule for %s field %q: %w", item.Key(), rule.FieldName, err)
		}

		item.SetField(rule.FieldName, strconv.FormatInt(scheduleID, 10))
		changed = true
		s.logger.Infof("Default schedule (%d) for item %s field %q set to %s.", scheduleID, item.Key(), rule.FieldName, at.Format(time.RFC3339))
	}

	if !changed {
		return nil
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("saving item %s after scheduling defaults: %w", item.Key(), err)
	}
	return nil
}
