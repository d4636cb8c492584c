package config

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"time"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
)

// Settings is a flat set of dotted keys, e.g. "converter.money.format".
// A nil Settings behaves as empty.
type Settings map[string]string

// Resolve returns the value for key, or def when unset.
func (s Settings) Resolve(key, def string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

// Get returns the value for key and whether it is set.
func (s Settings) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Int returns key as an int, or def when unset.
func (s Settings) Int(key string, def int) (int, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, malformed(key, v, "an integer", err)
	}
	return n, nil
}

// Float returns key as a float64, or def when unset.
func (s Settings) Float(key string, def float64) (float64, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def, malformed(key, v, "a number", err)
	}
	return f, nil
}

// Bool returns key as a bool, or def when unset.
func (s Settings) Bool(key string, def bool) (bool, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, malformed(key, v, "a boolean", err)
	}
	return b, nil
}

// Duration returns key as a time.Duration, or def when unset.
func (s Settings) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def, malformed(key, v, "a duration", err)
	}
	return d, nil
}

// Group splits every key under prefix into named groups.
// "converter.money.type" under prefix "converter" lands in
// groups["money"]["type"]. A key with no setting after the group name is
// malformed.
func (s Settings) Group(prefix string) (map[string]map[string]string, error) {
	head := prefix + "."
	groups := make(map[string]map[string]string)
	for _, key := range s.Keys() {
		if !strings.HasPrefix(key, head) {
			continue
		}
		name, setting, ok := strings.Cut(strings.TrimPrefix(key, head), ".")
		if !ok || name == "" || setting == "" {
			return nil, scerrors.New(scerrors.ErrCodeSettingMalformed,
				fmt.Sprintf("setting %q must look like %s<name>.<setting>", key, head), nil).WithPath(key)
		}
		if groups[name] == nil {
			groups[name] = make(map[string]string)
		}
		groups[name][setting] = s[key]
	}
	return groups, nil
}

// With returns a copy of s with key set to value.
func (s Settings) With(key, value string) Settings {
	out := maps.Clone(s)
	if out == nil {
		out = Settings{}
	}
	out[key] = value
	return out
}

// Keys returns the keys in order.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func malformed(key, value, want string, cause error) error {
	return scerrors.New(scerrors.ErrCodeSettingMalformed,
		fmt.Sprintf("setting %s=%q is not %s", key, value, want), cause).WithPath(key)
}
