// Package rules provides the YAML-based keyword rules engine for transaction
// categorization.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Kontses/NBG-Analytics/internal/domain"
)

//go:embed rules.yaml
var embeddedRules []byte

// Rule represents a single categorization rule: a keyword set mapping to one
// category label. A rule matches when any keyword is a substring of the
// upper-cased transaction text.
//
// Rules should be created via YAML loading (NewEngine, LoadEmbedded,
// LoadFromFile), which validates all invariants:
//   - Category must not be empty after trimming
//   - Keywords must be non-empty and contain no empty entries
//
// The keyword lists are domain vocabulary (merchant and brand substrings),
// configuration data rather than logic; edit rules.yaml, not this file.
type Rule struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// RuleSet represents the top-level YAML structure
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Engine performs ordered first-match categorization. Rules keep their file
// order; evaluation order is part of the behavioral contract.
type Engine struct {
	rules []Rule
}

// NewEngine creates a rules engine from YAML data
func NewEngine(rulesData []byte) (*Engine, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(rulesData, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	for i, rule := range ruleSet.Rules {
		if strings.TrimSpace(rule.Category) == "" {
			return nil, fmt.Errorf("rule %d (%s): category cannot be empty", i, rule.Name)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): keyword list cannot be empty", i, rule.Name)
		}
		for j, kw := range rule.Keywords {
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("rule %d (%s): keyword %d is empty", i, rule.Name, j)
			}
		}
	}

	rules := make([]Rule, len(ruleSet.Rules))
	copy(rules, ruleSet.Rules)

	return &Engine{rules: rules}, nil
}

// LoadEmbedded loads the embedded rules.yaml file
func LoadEmbedded() (*Engine, error) {
	engine, err := NewEngine(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules (possible binary corruption): %w", err)
	}
	return engine, nil
}

// LoadFromFile loads rules from a filesystem path
func LoadFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	engine, err := NewEngine(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return engine, nil
}

// Categorize maps a transaction's free text to a category label. Description
// and counterparty name are concatenated and upper-cased, then tested against
// the rules in file order; the first keyword hit wins. Total and
// deterministic: falls through to Άλλο when nothing matches.
func (e *Engine) Categorize(description, counterpartyName string) string {
	text := strings.ToUpper(description + " " + counterpartyName)

	for _, rule := range e.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule.Category
			}
		}
	}

	return domain.CategoryOther
}

// Match reports which rule matched (for diagnostics). Returns false when the
// text falls through to the catch-all.
func (e *Engine) Match(description, counterpartyName string) (Rule, bool) {
	text := strings.ToUpper(description + " " + counterpartyName)

	for _, rule := range e.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule, true
			}
		}
	}

	return Rule{}, false
}

// GetRules returns a copy of the rules for inspection/debugging, in
// evaluation order.
func (e *Engine) GetRules() []Rule {
	result := make([]Rule, len(e.rules))
	copy(result, e.rules)
	return result
}
