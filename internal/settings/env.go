package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override stored settings, e.g.
// STORE_SETTING_SHIPPING_RATE_USPS=8.99.
const EnvPrefix = "STORE_SETTING_"

// EnvOverrides holds settings taken from the process environment.
type EnvOverrides struct {
	k *koanf.Koanf
}

// LoadEnvOverrides snapshots every STORE_SETTING_* variable.
func LoadEnvOverrides() (*EnvOverrides, error) {
	k := koanf.New("|")
	transform := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, "|", transform), nil); err != nil {
		return nil, fmt.Errorf("load setting overrides: %w", err)
	}
	return &EnvOverrides{k: k}, nil
}

// NewEnvOverrides builds overrides from an explicit map. Keys are matched
// case-insensitively.
func NewEnvOverrides(values map[string]string) *EnvOverrides {
	k := koanf.New("|")
	for key, value := range values {
		_ = k.Set(strings.ToLower(strings.TrimSpace(key)), value)
	}
	return &EnvOverrides{k: k}
}

// Keys lists the overridden setting keys. Blank overrides are not listed.
func (e *EnvOverrides) Keys() []string {
	if e == nil || e.k == nil {
		return nil
	}
	var keys []string
	for _, key := range e.k.Keys() {
		if strings.TrimSpace(e.k.String(key)) != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Setting implements pricing.SettingsSource. A blank override counts as unset
// so the stored value still applies.
func (e *EnvOverrides) Setting(_ context.Context, key string) (string, bool, error) {
	if e == nil || e.k == nil {
		return "", false, nil
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if !e.k.Exists(key) {
		return "", false, nil
	}
	value := e.k.String(key)
	if strings.TrimSpace(value) == "" {
		return "", false, nil
	}
	return value, true, nil
}
