package registry

import (
	"fmt"
	"regexp"
)

// SelectMode names how a run narrows the registry.
type SelectMode int

const (
	// SelectAll runs every implementation in registry order.
	SelectAll SelectMode = iota
	// SelectSingle runs one implementation: the named one, or the first.
	SelectSingle
	// SelectFilter runs every implementation whose name matches a pattern.
	SelectFilter
)

// Selection describes the command-line intent.
type Selection struct {
	Mode    SelectMode
	Name    string
	Pattern *regexp.Regexp
}

// Select returns the ordered subset of reg to execute. Only a named single
// selection that does not exist is an error; a filter matching nothing yields
// an empty, valid selection.
func Select[In, Out any](reg *Registry[In, Out], sel Selection) ([]Implementation[In, Out], error) {
	switch sel.Mode {
	case SelectAll:
		return reg.All(), nil
	case SelectSingle:
		if sel.Name == "" {
			if reg.Len() == 0 {
				return nil, nil
			}
			return reg.All()[:1], nil
		}
		impl, ok := reg.Lookup(sel.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, sel.Name)
		}
		return []Implementation[In, Out]{impl}, nil
	case SelectFilter:
		if sel.Pattern == nil {
			return nil, fmt.Errorf("filter selection requires a pattern")
		}
		var selected []Implementation[In, Out]
		for _, impl := range reg.impls {
			if sel.Pattern.MatchString(impl.Name) {
				selected = append(selected, impl)
			}
		}
		return selected, nil
	default:
		return nil, fmt.Errorf("unsupported selection mode %d", sel.Mode)
	}
}
