package categorize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.NotEmpty(t, rules)

	// Specific vendor rules must come before the generic ones they would
	// otherwise lose to.
	var softwareIdx, shoppingIdx int
	for i, r := range rules {
		switch r.Category {
		case "Software":
			softwareIdx = i
		case "Shopping":
			shoppingIdx = i
		}
	}
	assert.Less(t, softwareIdx, shoppingIdx, "Software must be evaluated before Shopping")
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `- category: Coffee
  keywords:
    - espresso
    - latte
- category: Books
  keywords:
    - bookstore
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Coffee", rules[0].Category)
	assert.Equal(t, []string{"espresso", "latte"}, rules[0].Keywords)
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not a list", "category: foo"},
		{"empty category", "- category: \"\"\n  keywords: [x]"},
		{"no keywords", "- category: Foo\n  keywords: []"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
