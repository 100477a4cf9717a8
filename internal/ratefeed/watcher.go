package ratefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donis3/costcalc/internal/common"
)

const runTimeout = 2 * time.Minute

// ErrNoCurrencies is returned when a watcher has nothing to fetch.
var ErrNoCurrencies = errors.New("no currencies to fetch")

// Sink receives fetched rates, typically the cost engine.
type Sink interface {
	DefaultCurrency() string
	AddRates(ctx context.Context, rates map[string]float64) (int, error)
}

// Watcher pulls rates from a Source into a Sink on a cron schedule.
type Watcher struct {
	source   Source
	sink     Sink
	cron     *cron.Cron
	schedule string
	codes    []string
	mu       sync.Mutex
	started  bool
}

// NewWatcher creates a watcher fetching codes on schedule, which accepts standard cron expressions
// and descriptors such as "@every 6h". Overlapping runs are skipped.
func NewWatcher(source Source, sink Sink, schedule string, codes []string) *Watcher {
	logger := slogCron{}
	return &Watcher{
		source:   source,
		sink:     sink,
		schedule: schedule,
		codes:    codes,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// RunOnce fetches the configured currencies against the sink's default currency and stores them.
// It returns how many rates changed.
func (w *Watcher) RunOnce(ctx context.Context) (int, error) {
	base := w.sink.DefaultCurrency()
	codes := make([]string, 0, len(w.codes))
	for _, code := range w.codes {
		if code != base {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return 0, ErrNoCurrencies
	}

	quotes, err := w.source.Fetch(ctx, base, codes)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rates: %w", err)
	}
	if len(quotes) == 0 {
		slog.Warn("Rate provider returned no usable quotes", "base", base, "requested", codes)
		return 0, nil
	}

	rates := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		rates[q.Currency] = q.Rate
	}
	changed, err := w.sink.AddRates(ctx, rates)
	slog.Info("Fetched currency rates", "base", base, "received", len(quotes), "changed", changed)
	if err != nil {
		return changed, fmt.Errorf("some rates were rejected: %w", err)
	}
	return changed, nil
}

// Start schedules RunOnce and starts the cron loop in the background.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	_, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := w.RunOnce(ctx); err != nil {
			common.LogError(err, "Scheduled rate fetch failed", common.Fields{"schedule": w.schedule})
		}
	})
	if err != nil {
		return fmt.Errorf("invalid rates schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()
	w.started = true
	slog.Info("Rate watcher started", "schedule", w.schedule, "currencies", w.codes)
	return nil
}

// Stop halts the schedule. The returned context is done once a running fetch finishes.
func (w *Watcher) Stop() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.started = false
	return w.cron.Stop()
}

// slogCron routes cron's logging through slog.
type slogCron struct{}

func (slogCron) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogCron) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
