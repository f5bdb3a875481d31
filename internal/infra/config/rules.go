package config

import (
	"fmt"
	"os"

	"content_lifecycle_engine/internal/domain/content"
	"content_lifecycle_engine/internal/domain/lifecycle"

	"gopkg.in/yaml.v3"
)

// Rule file shape:
//
//	disabled: false
//	fields:
//	  node:
//	    news:
//	      - field: scheduled_unpublish
//	        target_state: unpublished
//	        offset: "+14 days"
//	        enabled: true
//	actions:
//	  node:
//	    news:
//	      delete_published:
//	        offset: "+3 years"
//	        enabled: true
type rulesFile struct {
	Disabled bool                                        `yaml:"disabled"`
	Fields   map[string]map[string][]fieldRule           `yaml:"fields"`
	Actions  map[string]map[string]map[string]actionRule `yaml:"actions"`
}

type fieldRule struct {
	Field       string `yaml:"field"`
	TargetState string `yaml:"target_state"`
	Offset      string `yaml:"offset"`
	Enabled     bool   `yaml:"enabled"`
}

type actionRule struct {
	Offset  string `yaml:"offset"`
	Enabled bool   `yaml:"enabled"`
}

// LoadRules reads and parses the lifecycle rule file into a RuleSet snapshot.
func LoadRules(path string) (*lifecycle.RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %w", path, err)
	}
	return ParseRules(raw)
}

// ParseRules parses rule file contents. Malformed offsets are not rejected
// here; such rules simply never fire and the evaluator logs them.
func ParseRules(raw []byte) (*lifecycle.RuleSet, error) {
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	bundles := make(map[lifecycle.TypeBundle]lifecycle.BundleRules)

	ensure := func(itemType, bundle string) lifecycle.BundleRules {
		tb := lifecycle.TypeBundle{Type: itemType, Bundle: bundle}
		rules, ok := bundles[tb]
		if !ok {
			rules = lifecycle.BundleRules{Actions: make(map[lifecycle.ActionName]lifecycle.ActionRule)}
		}
		return rules
	}

	for itemType, byBundle := range file.Fields {
		for bundle, fieldRules := range byBundle {
			rules := ensure(itemType, bundle)
			for _, fr := range fieldRules {
				if fr.Field == "" {
					return nil, fmt.Errorf("rule file: %s/%s has a field rule without a field name", itemType, bundle)
				}
				rules.Fields = append(rules.Fields, lifecycle.FieldRule{
					FieldName:   fr.Field,
					TargetState: content.ModerationState(fr.TargetState),
					Offset:      fr.Offset,
					Enabled:     fr.Enabled,
				})
			}
			bundles[lifecycle.TypeBundle{Type: itemType, Bundle: bundle}] = rules
		}
	}

	for itemType, byBundle := range file.Actions {
		for bundle, actions := range byBundle {
			rules := ensure(itemType, bundle)
			for name, ar := range actions {
				action := lifecycle.ActionName(name)
				if action != lifecycle.ActionDeletePublished && action != lifecycle.ActionDeleteUnpublished {
					return nil, fmt.Errorf("rule file: %s/%s has unknown action %q", itemType, bundle, name)
				}
				rules.Actions[action] = lifecycle.ActionRule{Offset: ar.Offset, Enabled: ar.Enabled}
			}
			bundles[lifecycle.TypeBundle{Type: itemType, Bundle: bundle}] = rules
		}
	}

	return lifecycle.NewRuleSet(file.Disabled, bundles), nil
}
