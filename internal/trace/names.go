package trace

import (
	"fmt"
	"strings"
)

// names maps the small enums of this package to their spellings; the
// index is the value.
type names[T ~uint8] []string

func (n names[T]) of(v T) string {
	if int(v) < len(n) && n[v] != "" {
		return n[v]
	}
	return "unknown"
}

func (n names[T]) parse(what, s string) (T, error) {
	for i, name := range n {
		if name != "" && strings.EqualFold(name, s) {
			return T(i), nil
		}
	}
	var valid []string
	for _, name := range n {
		if name != "" {
			valid = append(valid, name)
		}
	}
	return 0, fmt.Errorf("unknown %s %q (expected: %s)", what, s, strings.Join(valid, "|"))
}
