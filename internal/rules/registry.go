package rules

import (
	"fmt"
	"sort"
	"sync"

	"stylesense/internal/logging"
)

// Registry holds rules by name.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule. Names must be unique.
func (r *Registry) Register(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := rule.Name()
	if _, exists := r.rules[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, name)
	}
	r.rules[name] = rule
	logging.RulesDebug("registered rule %s (default %s)", name, rule.DefaultSeverity())
	return nil
}

// Lookup finds a rule by name.
func (r *Registry) Lookup(name string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRule, name)
	}
	return rule, nil
}

// All returns every rule sorted by name.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Builtin returns fresh instances of every built-in rule.
func Builtin() []Rule {
	return []Rule{
		newSpaceBeforeEquals(),
		newSpaceAfterEquals(),
		newSpaceAroundBinaryOperator(),
		newSpaceAfterKeyword(),
		newSpaceBeforeBrace(),
		newSpaceAfterComma(),
		newNoTrailingWhitespace(),
	}
}

// Default returns a registry populated with the built-in rules.
func Default() *Registry {
	r := NewRegistry()
	for _, rule := range Builtin() {
		// Built-in names are unique; a failure here is a programming error.
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}
