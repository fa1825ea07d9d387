package cleaner

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Selector is a compiled CSS selector group. The zero value matches nothing.
type Selector struct {
	raw string
	m   cascadia.Selector
}

// CompileSelector parses a comma-separated selector group.
func CompileSelector(sel string) (Selector, error) {
	m, err := cascadia.Compile(sel)
	if err != nil {
		return Selector{}, fmt.Errorf("cleaner: compile selector %q: %w", sel, err)
	}
	return Selector{raw: sel, m: m}, nil
}

// MustSelector is like CompileSelector but panics on a malformed selector.
// It is meant for package-level selector tables.
func MustSelector(sel string) Selector {
	s, err := CompileSelector(sel)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Selector) String() string { return s.raw }

func (s Selector) valid() bool { return s.m != nil }
