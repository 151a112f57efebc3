// Package categorize assigns category labels to transactions by ordered
// keyword matching over the cleaned description. Rules are external
// configuration: loaded from YAML, immutable after load, evaluated in file
// order with first match winning.
package categorize

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Uncategorized is the fallback label when no rule matches.
const Uncategorized = "Uncategorized"

// Rule maps a set of keywords to one category label. Keywords are matched
// case-insensitively as substrings of the cleaned description.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

//go:embed rules/default.yaml
var defaultRulesYAML []byte

// LoadRules reads an ordered rule list from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("categorize: reading rules file: %w", err)
	}
	return ParseRules(data)
}

// DefaultRules returns the built-in rule table shipped with the binary.
func DefaultRules() []Rule {
	rules, err := ParseRules(defaultRulesYAML)
	if err != nil {
		// The embedded file is validated by tests; a parse failure here is
		// a packaging bug.
		panic(fmt.Sprintf("categorize: embedded default rules invalid: %v", err))
	}
	return rules
}

// ParseRules decodes and validates a YAML rule list, preserving order.
func ParseRules(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("categorize: parsing rules: %w", err)
	}
	for i, r := range rules {
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("categorize: rule %d has no category", i)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("categorize: rule %q has no keywords", r.Category)
		}
	}
	return rules, nil
}
