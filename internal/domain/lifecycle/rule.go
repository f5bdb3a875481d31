package lifecycle

import (
	"sort"

	"content_lifecycle_engine/internal/domain/content"
)

// ActionName identifies a deletion action rule.
type ActionName string

const (
	ActionDeletePublished   ActionName = "delete_published"
	ActionDeleteUnpublished ActionName = "delete_unpublished"
)

// FieldRule maps a manual-schedule field to an automatic transition: when the
// field carries no user-entered value and the offset deadline has passed, the
// item moves to TargetState.
type FieldRule struct {
	FieldName   string
	TargetState content.ModerationState
	Offset      string
	Enabled     bool
}

// ActionRule configures a deletion action with a relative offset. A disabled
// or absent action rule makes its predicate always false.
type ActionRule struct {
	Offset  string
	Enabled bool
}

// BundleRules holds the configuration of a single (type, bundle) pair.
// Fields keeps the configured order; the first rule that fires wins.
type BundleRules struct {
	Fields  []FieldRule
	Actions map[ActionName]ActionRule
}

// ScheduleFieldNames returns the names of all configured schedule fields.
func (b BundleRules) ScheduleFieldNames() []string {
	names := make([]string, 0, len(b.Fields))
	for _, rule := range b.Fields {
		names = append(names, rule.FieldName)
	}
	return names
}

// StateOffset returns the offset of the first enabled field rule targeting
// the given state, mirroring how per-state times are derived from config.
func (b BundleRules) StateOffset(state content.ModerationState) (string, bool) {
	for _, rule := range b.Fields {
		if rule.TargetState == state && rule.Offset != "" && rule.Enabled {
			return rule.Offset, true
		}
	}
	return "", false
}

// ActionOffset returns the offset of an enabled action rule.
func (b BundleRules) ActionOffset(action ActionName) (string, bool) {
	rule, ok := b.Actions[action]
	if !ok || !rule.Enabled || rule.Offset == "" {
		return "", false
	}
	return rule.Offset, true
}

// TypeBundle identifies a configured (content type, bundle) pair.
type TypeBundle struct {
	Type   string
	Bundle string
}

// RuleSet is a read-only snapshot of the lifecycle configuration, loaded once
// per sweep. Disabled is the global kill switch checked before any
// evaluation or notification.
type RuleSet struct {
	Disabled bool
	bundles  map[TypeBundle]BundleRules
}

// NewRuleSet builds a RuleSet from per-(type,bundle) rules.
func NewRuleSet(disabled bool, bundles map[TypeBundle]BundleRules) *RuleSet {
	if bundles == nil {
		bundles = make(map[TypeBundle]BundleRules)
	}
	return &RuleSet{Disabled: disabled, bundles: bundles}
}

// TypeBundles returns all configured pairs in deterministic order.
func (r *RuleSet) TypeBundles() []TypeBundle {
	pairs := make([]TypeBundle, 0, len(r.bundles))
	for tb := range r.bundles {
		pairs = append(pairs, tb)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Type != pairs[j].Type {
			return pairs[i].Type < pairs[j].Type
		}
		return pairs[i].Bundle < pairs[j].Bundle
	})
	return pairs
}

// BundleRules returns the rules of a (type, bundle) pair. Missing
// configuration means "nothing to do", not an error.
func (r *RuleSet) BundleRules(itemType, bundle string) (BundleRules, bool) {
	rules, ok := r.bundles[TypeBundle{Type: itemType, Bundle: bundle}]
	return rules, ok
}
