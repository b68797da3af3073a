package taxrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Querier is the subset of pgxpool.Pool used by the store.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const recordByZip = `SELECT zip, state, combined_rate::text FROM zip_tax_rates WHERE zip = $1`

// PGStore reads ZIP tax data from the zip_tax_rates table.
type PGStore struct {
	DB Querier
}

// Lookup implements Lookup.
func (s PGStore) Lookup(ctx context.Context, zip string) (Record, bool, error) {
	if s.DB == nil {
		return Record{}, false, errors.New("taxrate: database not configured")
	}
	var (
		rec   Record
		state *string
		rate  *string
	)
	if err := s.DB.QueryRow(ctx, recordByZip, zip).Scan(&rec.Zip, &state, &rate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("query zip %s: %w", zip, err)
	}
	if state != nil {
		rec.State = *state
	}
	rec.Rate = decimal.Zero
	if rate != nil {
		parsed, err := decimal.NewFromString(*rate)
		if err != nil {
			return Record{}, false, fmt.Errorf("parse rate for zip %s: %w", zip, err)
		}
		rec.Rate = parsed
	}
	return rec, true, nil
}
