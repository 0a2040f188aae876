// Package config provides configuration loading and parsing for codecbench.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// fileSection is one level of a decoded config file. Keys match regardless of
// case and of '-' or '_' separators: png-speed, png_speed and pngSpeed are the
// same key. The first conversion error is kept and later reads become no-ops.
type fileSection struct {
	path   string
	values map[string]any
	err    *error
}

func newFileSection(settings map[string]any) *fileSection {
	var err error
	return &fileSection{values: normalizeKeys(settings), err: &err}
}

func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[settingKey(k)] = v
	}
	return out
}

var keySeparators = strings.NewReplacer("-", "", "_", "")

func settingKey(k string) string {
	return keySeparators.Replace(strings.ToLower(strings.TrimSpace(k)))
}

// Err returns the first error met while reading this section or any of its
// subsections.
func (s *fileSection) Err() error {
	return *s.err
}

func (s *fileSection) qualify(key string) string {
	if s.path == "" {
		return key
	}
	return s.path + "." + key
}

func (s *fileSection) lookup(key string) (any, bool) {
	if *s.err != nil {
		return nil, false
	}
	v, ok := s.values[settingKey(key)]
	return v, ok
}

func (s *fileSection) fail(key string, err error) {
	if *s.err == nil {
		*s.err = fmt.Errorf("%s: %w", s.qualify(key), err)
	}
}

// section returns the nested map under key, or nil when the key is absent.
func (s *fileSection) section(key string) *fileSection {
	raw, ok := s.lookup(key)
	if !ok {
		return nil
	}
	m, err := cast.ToStringMapE(raw)
	if err != nil {
		s.fail(key, fmt.Errorf("expected a map, got %T", raw))
		return nil
	}
	return &fileSection{path: s.qualify(key), values: normalizeKeys(m), err: s.err}
}

// read converts the value under key into dst. It reports whether dst was set.
func read[T any](s *fileSection, key string, dst *T, conv func(any) (T, error)) bool {
	raw, ok := s.lookup(key)
	if !ok {
		return false
	}
	v, err := conv(raw)
	if err != nil {
		s.fail(key, err)
		return false
	}
	*dst = v
	return true
}

func trimmed(v any) (string, error) {
	s, err := cast.ToStringE(v)
	return strings.TrimSpace(s), err
}

func lowered(v any) (string, error) {
	s, err := trimmed(v)
	return strings.ToLower(s), err
}

// stringList keeps a scalar string as a single entry; thresholds contain spaces.
func stringList(v any) ([]string, error) {
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	return cast.ToStringSliceE(v)
}
