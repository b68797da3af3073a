package taxrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/checkout-pricing/internal/resilience"
)

// HTTPProvider looks up rates from a remote rate API at GET {BaseURL}/rates/{zip}.
// When the API fails or the breaker is open the Fallback lookup answers instead.
type HTTPProvider struct {
	BaseURL  string
	Client   resilience.HTTPClient
	Fallback Lookup
}

type rateResponse struct {
	Zip   string `json:"zip"`
	State string `json:"state"`
	Rate  string `json:"rate"`
}

// NewHTTPProvider builds a provider with a traced transport, three attempts per
// lookup and a breaker that opens after half of five calls fail.
func NewHTTPProvider(baseURL string, timeout time.Duration, fallback Lookup, logger zerolog.Logger) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Client: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("tax_api").WithLogger(logger),
			BaseBackoff: 50 * time.Millisecond,
			MaxAttempts: 3,
			Jitter:      0.2,
			Timeout:     timeout,
		},
		Fallback: fallback,
	}
}

// Lookup implements Lookup.
func (p *HTTPProvider) Lookup(ctx context.Context, zip string) (Record, bool, error) {
	rec, found, err := p.fetch(ctx, zip)
	if err == nil {
		return rec, found, nil
	}
	if p.Fallback == nil {
		return Record{}, false, err
	}
	zerolog.Ctx(ctx).Warn().Err(err).Str("zip", zip).Msg("tax_api_fallback")
	return p.Fallback.Lookup(ctx, zip)
}

func (p *HTTPProvider) fetch(ctx context.Context, zip string) (Record, bool, error) {
	if p.BaseURL == "" {
		return Record{}, false, errors.New("taxrate: api url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/rates/"+url.PathEscape(zip), nil)
	if err != nil {
		return Record{}, false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.Client.Do(ctx, req)
	if err != nil {
		return Record{}, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Record{}, false, nil
	case resp.StatusCode != http.StatusOK:
		return Record{}, false, fmt.Errorf("tax api status %s", resp.Status)
	}

	var payload rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Record{}, false, fmt.Errorf("decode tax api response: %w", err)
	}
	rate := decimal.Zero
	if strings.TrimSpace(payload.Rate) != "" {
		rate, err = decimal.NewFromString(strings.TrimSpace(payload.Rate))
		if err != nil {
			return Record{}, false, fmt.Errorf("parse tax api rate: %w", err)
		}
	}
	rec := Record{Zip: zip, State: strings.ToUpper(strings.TrimSpace(payload.State)), Rate: rate}
	return rec, true, nil
}
