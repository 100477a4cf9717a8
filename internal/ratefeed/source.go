// Package ratefeed fetches currency rates from an HTTP provider and feeds them into the engine,
// once or on a cron schedule.
package ratefeed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/donis3/costcalc/internal/common"
	"github.com/donis3/costcalc/internal/service"
)

// Quote is the value of one unit of Currency in the base currency.
type Quote struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// Source provides rates for codes against base.
type Source interface {
	Fetch(ctx context.Context, base string, codes []string) ([]Quote, error)
}

// latestResponse is the provider payload: how many units of each code one base unit buys.
type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
	Base  string             `json:"base"`
	Date  string             `json:"date"`
}

// HTTPSource queries a "latest rates" endpoint.
type HTTPSource struct {
	client *resty.Client
	retry  service.RetryOptions
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithRetry overrides the retry policy of failed requests.
func WithRetry(opts service.RetryOptions) Option {
	return func(s *HTTPSource) {
		s.retry = opts
	}
}

// NewHTTPSource creates a source for the endpoint at baseURL. apiKey is sent as the apikey header
// when set.
func NewHTTPSource(baseURL, apiKey string, timeout time.Duration, opts ...Option) *HTTPSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if apiKey != "" {
		client.SetHeader("apikey", apiKey)
	}

	s := &HTTPSource{
		client: client,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns one quote per requested code that the provider knows, expressed as the value of one
// unit of that code in base. Provider rates are inverted from "units per base".
func (s *HTTPSource) Fetch(ctx context.Context, base string, codes []string) ([]Quote, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	symbols := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" && code != base {
			symbols = append(symbols, code)
		}
	}
	if len(symbols) == 0 {
		return nil, nil
	}

	var body latestResponse
	err := common.WithRetry(ctx, func() error {
		body = latestResponse{}
		return s.get(ctx, base, symbols, &body)
	}, s.retry)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(body.Base, base) {
		return nil, fmt.Errorf("%w: provider answered for base %q, wanted %q", common.ErrRateSource, body.Base, base)
	}
	return invert(body.Rates, symbols), nil
}

func (s *HTTPSource) get(ctx context.Context, base string, symbols []string, dst *latestResponse) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"base":    base,
			"symbols": strings.Join(symbols, ","),
		}).
		SetResult(dst).
		Get("/latest")
	if err != nil {
		if ctx.Err() != nil {
			return &common.RetryableError{Err: ctx.Err(), Retryable: false}
		}
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrRateSource, err), Retryable: true}
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateSource,
			&common.RateLimitError{RetryAfter: retryAfter(resp.Header().Get("Retry-After"))})
	case code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: fmt.Errorf("%w: status %d", common.ErrRateSource, code), Retryable: true}
	case resp.IsError():
		return &common.RetryableError{Err: fmt.Errorf("%w: status %d: %s", common.ErrRateSource, code, resp.String()), Retryable: false}
	}
	return nil
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// invert turns "units of code per base" into "base per unit of code", sorted by code. Codes the
// provider did not return or quoted at zero are skipped.
func invert(rates map[string]float64, symbols []string) []Quote {
	byCode := make(map[string]float64, len(rates))
	for code, rate := range rates {
		byCode[strings.ToUpper(code)] = rate
	}

	quotes := make([]Quote, 0, len(symbols))
	for _, code := range symbols {
		rate, ok := byCode[code]
		if !ok || rate <= 0 {
			slog.Debug("No usable rate from provider", "currency", code, "rate", rate)
			continue
		}
		inverted := decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(rate), 6)
		quotes = append(quotes, Quote{Currency: code, Rate: inverted.InexactFloat64()})
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Currency < quotes[j].Currency })
	return quotes
}
