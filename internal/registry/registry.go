// Package registry holds the ordered set of implementations under test and
// narrows it to the ones a run executes.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a named implementation is not registered.
var ErrNotFound = errors.New("implementation not found")

// Implementation is one candidate transform identified by name.
type Implementation[In, Out any] struct {
	Name string
	Func func(In) (Out, error)
}

// Invoke runs the transform once.
func (i Implementation[In, Out]) Invoke(in In) (Out, error) {
	return i.Func(in)
}

// Registry is an ordered list of uniquely named implementations.
type Registry[In, Out any] struct {
	impls []Implementation[In, Out]
	index map[string]int
}

// New builds a registry, rejecting empty or duplicate names and missing funcs.
func New[In, Out any](impls ...Implementation[In, Out]) (*Registry[In, Out], error) {
	r := &Registry[In, Out]{index: make(map[string]int, len(impls))}
	for _, impl := range impls {
		if err := r.Add(impl); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends an implementation to the end of the registry.
func (r *Registry[In, Out]) Add(impl Implementation[In, Out]) error {
	name := strings.TrimSpace(impl.Name)
	if name == "" {
		return fmt.Errorf("implementation at index %d has no name", len(r.impls))
	}
	if impl.Func == nil {
		return fmt.Errorf("implementation %q has no transform", name)
	}
	if prev, ok := r.index[name]; ok {
		return fmt.Errorf("implementation %q already registered at index %d", name, prev)
	}
	impl.Name = name
	r.index[name] = len(r.impls)
	r.impls = append(r.impls, impl)
	return nil
}

// Len returns the number of registered implementations.
func (r *Registry[In, Out]) Len() int {
	return len(r.impls)
}

// All returns the implementations in registry order.
func (r *Registry[In, Out]) All() []Implementation[In, Out] {
	return append([]Implementation[In, Out](nil), r.impls...)
}

// Names returns the implementation names in registry order.
func (r *Registry[In, Out]) Names() []string {
	names := make([]string, len(r.impls))
	for i, impl := range r.impls {
		names[i] = impl.Name
	}
	return names
}

// Lookup returns the implementation with exactly the given name.
func (r *Registry[In, Out]) Lookup(name string) (Implementation[In, Out], bool) {
	idx, ok := r.index[name]
	if !ok {
		return Implementation[In, Out]{}, false
	}
	return r.impls[idx], true
}
