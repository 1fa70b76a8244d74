package linter

import (
	"fmt"
	"sort"

	"github.com/formancehq/apistd/internal/diag"
	"github.com/formancehq/apistd/internal/typegraph"
)

// Library prefixes fully qualified rule names.
const Library = "apistd"

// Rule is a stateless check. Create is called once per run and returns the
// callbacks the linter dispatches declarations to.
type Rule interface {
	Name() string
	Description() string
	Create(r diag.Reporter) typegraph.Listener
}

// Rule set names.
const (
	SetRecommended = "recommended"
	SetAll         = "all"
)

var registry = []Rule{
	NoInterfaces{},
}

var ruleSets = map[string][]string{
	SetRecommended: {NoInterfaces{}.Name()},
	SetAll:         {NoInterfaces{}.Name()},
}

// Rules returns every registered rule.
func Rules() []Rule {
	return append([]Rule(nil), registry...)
}

// QualifiedName is the rule name as users write it in configuration.
func QualifiedName(r Rule) string {
	return Library + "/" + r.Name()
}

// Linter runs the enabled rules over a program.
type Linter struct {
	enabled map[string]Rule
}

// New returns a linter with the given rule set enabled. An empty set name
// enables nothing.
func New(set string) (*Linter, error) {
	l := &Linter{enabled: map[string]Rule{}}
	if set == "" {
		return l, nil
	}
	names, ok := ruleSets[set]
	if !ok {
		return nil, fmt.Errorf("linter: unknown rule set %q", set)
	}
	for _, n := range names {
		if err := l.Enable(n); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func lookup(name string) (Rule, bool) {
	for _, r := range registry {
		if r.Name() == name || QualifiedName(r) == name {
			return r, true
		}
	}
	return nil, false
}

// Enable turns on a rule by short or qualified name.
func (l *Linter) Enable(name string) error {
	r, ok := lookup(name)
	if !ok {
		return fmt.Errorf("linter: unknown rule %q", name)
	}
	l.enabled[r.Name()] = r
	return nil
}

// Disable turns off a rule by short or qualified name.
func (l *Linter) Disable(name string) error {
	r, ok := lookup(name)
	if !ok {
		return fmt.Errorf("linter: unknown rule %q", name)
	}
	delete(l.enabled, r.Name())
	return nil
}

// Enabled lists enabled rule names, sorted.
func (l *Linter) Enabled() []string {
	out := make([]string, 0, len(l.enabled))
	for name := range l.enabled {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lint walks p once per enabled rule, in rule name order.
func (l *Linter) Lint(p *typegraph.Program, r diag.Reporter) {
	for _, name := range l.Enabled() {
		p.Walk(l.enabled[name].Create(r))
	}
}
