// Package settings provides the business settings consumed by the pricing engine.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

// Querier is the subset of pgxpool.Pool used by the settings store.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const settingByKey = `SELECT value FROM business_settings WHERE key = $1 ORDER BY category LIMIT 1`

// PGStore reads key/value settings from the business_settings table.
type PGStore struct {
	DB Querier
}

var _ pricing.SettingsSource = PGStore{}

// Setting returns the raw value for key. Absent rows and NULL values report ok=false.
func (s PGStore) Setting(ctx context.Context, key string) (string, bool, error) {
	if s.DB == nil {
		return "", false, errors.New("settings: database not configured")
	}
	var value *string
	if err := s.DB.QueryRow(ctx, settingByKey, strings.TrimSpace(key)).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query setting %s: %w", key, err)
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// Chain consults each source in order and returns the first value found.
type Chain []pricing.SettingsSource

var _ pricing.SettingsSource = Chain{}

// Setting implements pricing.SettingsSource.
func (c Chain) Setting(ctx context.Context, key string) (string, bool, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		value, ok, err := src.Setting(ctx, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return value, true, nil
		}
	}
	return "", false, nil
}
