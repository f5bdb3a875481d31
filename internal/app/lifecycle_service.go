package app

import (
	"context"
	"encoding/json"
	"time"

	"content_lifecycle_engine/internal/domain/content"
	"content_lifecycle_engine/internal/domain/lifecycle"
	"content_lifecycle_engine/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

const defaultChunkSize = 500

// SweepResult carries the success/failure counters of one sweep, for logging
// and the operations summary.
type SweepResult struct {
	Processed int
	Updated   int
	Deleted   int
	Ignored   int
	Skipped   int
	Failed    int
}

// LifecycleService is the batch evaluator: it scans all configured content,
// applies due transitions and deletions, and dispatches lifecycle events to
// the registered handlers. RunOperations is idempotent and safe to re-invoke
// at any cadence; an already-transitioned item simply no longer satisfies its
// rule on the next pass.
type LifecycleService struct {
	repo      content.Repository
	rules     *lifecycle.RuleSet
	times     *ItemTimes
	handlers  []lifecycle.Handler
	logger    *logrus.Logger
	metrics   *metrics.SweepMetrics
	chunkSize int
}

func NewLifecycleService(
	repo content.Repository,
	rules *lifecycle.RuleSet,
	times *ItemTimes,
	handlers []lifecycle.Handler,
	logger *logrus.Logger,
	sweepMetrics *metrics.SweepMetrics,
) *LifecycleService {
	return &LifecycleService{
		repo:      repo,
		rules:     rules,
		times:     times,
		handlers:  handlers,
		logger:    logger,
		metrics:   sweepMetrics,
		chunkSize: defaultChunkSize,
	}
}

// SetChunkSize overrides the item batch size. Values below 1 are ignored.
func (s *LifecycleService) SetChunkSize(size int) {
	if size > 0 {
		s.chunkSize = size
	}
}

// RunOperations executes one full sweep at the given evaluation instant.
// Individual item failures are logged and never abort the sweep; the returned
// error is non-nil only for cancellation between chunks.
func (s *LifecycleService) RunOperations(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	if s.rules.Disabled {
		s.logger.Info("Lifecycle management is disabled, skipping sweep.")
		return result, nil
	}

	started := time.Now()
	defer func() {
		s.metrics.SweepFinished(time.Since(started))
	}()

	for _, tb := range s.rules.TypeBundles() {
		bundleRules, _ := s.rules.BundleRules(tb.Type, tb.Bundle)

		ids, err := s.repo.QueryIDs(ctx, tb.Type, tb.Bundle)
		if err != nil {
			// Storage outage for this type: skip it, other types proceed.
			s.logger.WithError(err).Errorf("Querying %s/%s items failed, skipping type for this sweep.", tb.Type, tb.Bundle)
			continue
		}

		for start := 0; start < len(ids); start += s.chunkSize {
			end := start + s.chunkSize
			if end > len(ids) {
				end = len(ids)
			}
			chunk := ids[start:end]

			items, err := s.repo.LoadMany(ctx, tb.Type, chunk)
			if err != nil {
				s.logger.WithError(err).Errorf("Loading a chunk of %s/%s items failed, skipping chunk.", tb.Type, tb.Bundle)
				continue
			}

			for _, item := range items {
				s.evaluateItem(ctx, item, bundleRules, now, &result)
			}

			s.repo.ResetCache(chunk)

			// Graceful abort between chunks: every finished item mutation is
			// already committed and re-evaluation is idempotent.
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"processed": result.Processed,
		"updated":   result.Updated,
		"deleted":   result.Deleted,
		"ignored":   result.Ignored,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	}).Info("Lifecycle sweep finished.")

	return result, nil
}

func (s *LifecycleService) evaluateItem(
	ctx context.Context,
	item *content.Item,
	rules lifecycle.BundleRules,
	now time.Time,
	result *SweepResult,
) {
	result.Processed++
	s.metrics.ItemProcessed()

	if item.IgnoreLifecycle {
		result.Skipped++
		return
	}

	// Manual scheduling always wins over automatic rules.
	if lifecycle.IsScheduled(item, rules) {
		result.Skipped++
		return
	}

	lastPublish, hasPublish, err := s.times.LastPublishTime(ctx, item)
	if err != nil {
		result.Failed++
		s.metrics.ItemFailed()
		s.logger.WithError(err).Errorf("Loading publish history of item %s failed.", item.Key())
		return
	}

	if s.evaluateRemoval(ctx, item, rules, lastPublish, hasPublish, now, result) {
		return
	}

	// First rule in configured order that fires wins, one transition per pass.
	for _, rule := range rules.Fields {
		due, err := lifecycle.ShouldTransition(item, rule, lastPublish, hasPublish, now)
		if err != nil {
			// Configuration bug: the rule never fires.
			s.logger.WithError(err).Warnf("Rule %q of %s/%s carries a malformed offset.", rule.FieldName, item.Type, item.Bundle)
			continue
		}
		if !due {
			continue
		}

		item.ModerationState = rule.TargetState
		if err := s.repo.Save(ctx, item); err != nil {
			result.Failed++
			s.metrics.ItemFailed()
			s.logger.WithError(err).Errorf("Saving item %s failed.", item.Key())
			return
		}

		s.logger.Infof("Item (%s) state has been updated to %s.", item.Key(), rule.TargetState)
		s.dispatchUpdate(ctx, lifecycle.UpdateEvent{Item: item, TargetState: rule.TargetState})
		s.metrics.Transition(string(rule.TargetState))
		result.Updated++
		return
	}

	s.dispatchIgnore(ctx, lifecycle.IgnoreEvent{Item: item})
	result.Ignored++
}

// evaluateRemoval applies the deletion predicates, never-published first.
// Returns true when a predicate matched and evaluation of the item ends,
// whether or not the delete itself succeeded.
func (s *LifecycleService) evaluateRemoval(
	ctx context.Context,
	item *content.Item,
	rules lifecycle.BundleRules,
	lastPublish time.Time,
	hasPublish bool,
	now time.Time,
	result *SweepResult,
) bool {
	reason := lifecycle.RemovalReasonUnknown

	neverPublished, err := lifecycle.ShouldDeleteNeverPublished(item, rules, hasPublish, now)
	if err != nil {
		s.logger.WithError(err).Warnf("delete_unpublished action of %s/%s carries a malformed offset.", item.Type, item.Bundle)
	}
	if neverPublished {
		reason = lifecycle.RemovalReasonNeverPublished
	} else {
		aged, err := lifecycle.ShouldDeleteAged(rules, lastPublish, hasPublish, now)
		if err != nil {
			s.logger.WithError(err).Warnf("delete_published action of %s/%s carries a malformed offset.", item.Type, item.Bundle)
		}
		if !aged {
			return false
		}
		reason = lifecycle.RemovalReasonTooOld
	}

	snapshot := lifecycle.SnapshotOf(item)

	// Handlers run only after the delete is committed: a surviving item must
	// keep its notification record, or already-sent milestones would re-open.
	if err := s.repo.Delete(ctx, item); err != nil {
		result.Failed++
		s.metrics.ItemFailed()
		s.logger.WithError(err).Errorf("Deleting item %s failed.", item.Key())
		return true
	}

	s.dispatchRemove(ctx, lifecycle.RemoveEvent{Item: item, Reason: reason, Snapshot: snapshot})

	info, _ := json.Marshal(snapshot)
	s.logger.Infof("Item (%s) has been deleted [reason: %s]. Additional info: %s", item.Key(), reason, info)
	s.metrics.Removal(string(reason))
	result.Deleted++
	return true
}

func (s *LifecycleService) dispatchUpdate(ctx context.Context, event lifecycle.UpdateEvent) {
	for _, h := range s.handlers {
		if err := h.OnUpdate(ctx, event); err != nil {
			s.logger.WithError(err).Errorf("Update handler failed for item %s.", event.Item.Key())
		}
	}
}

func (s *LifecycleService) dispatchRemove(ctx context.Context, event lifecycle.RemoveEvent) {
	for _, h := range s.handlers {
		if err := h.OnRemove(ctx, event); err != nil {
			s.logger.WithError(err).Errorf("Remove handler failed for item %s.", event.Item.Key())
		}
	}
}

func (s *LifecycleService) dispatchIgnore(ctx context.Context, event lifecycle.IgnoreEvent) {
	for _, h := range s.handlers {
		if err := h.OnIgnore(ctx, event); err != nil {
			s.logger.WithError(err).Errorf("Ignore handler failed for item %s.", event.Item.Key())
		}
	}
}
