package ratefeed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	err    error
	quotes []Quote
	base   string
	codes  []string
}

func (f *fakeSource) Fetch(_ context.Context, base string, codes []string) ([]Quote, error) {
	f.base = base
	f.codes = codes
	return f.quotes, f.err
}

type fakeSink struct {
	err      error
	received map[string]float64
	base     string
}

func (f *fakeSink) DefaultCurrency() string { return f.base }

func (f *fakeSink) AddRates(_ context.Context, rates map[string]float64) (int, error) {
	f.received = rates
	return len(rates), f.err
}

func TestWatcher_RunOnce(t *testing.T) {
	src := &fakeSource{quotes: []Quote{{Currency: "EUR", Rate: 33}, {Currency: "USD", Rate: 30}}}
	sink := &fakeSink{base: "TRY"}

	w := NewWatcher(src, sink, "@every 1h", []string{"TRY", "USD", "EUR"})
	changed, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, changed)
	assert.Equal(t, "TRY", src.base)
	assert.Equal(t, []string{"USD", "EUR"}, src.codes)
	assert.Equal(t, map[string]float64{"EUR": 33, "USD": 30}, sink.received)
}

func TestWatcher_RunOnceFailures(t *testing.T) {
	errProvider := errors.New("provider down")
	errRejected := errors.New("rejected")

	tests := []struct {
		name    string
		source  *fakeSource
		sink    *fakeSink
		codes   []string
		wantErr error
		want    int
	}{
		{
			name:    "only the default currency",
			source:  &fakeSource{},
			sink:    &fakeSink{base: "TRY"},
			codes:   []string{"TRY"},
			wantErr: ErrNoCurrencies,
		},
		{
			name:    "source error",
			source:  &fakeSource{err: errProvider},
			sink:    &fakeSink{base: "TRY"},
			codes:   []string{"USD"},
			wantErr: errProvider,
		},
		{
			name:   "no quotes",
			source: &fakeSource{},
			sink:   &fakeSink{base: "TRY"},
			codes:  []string{"USD"},
		},
		{
			name:    "sink rejects some",
			source:  &fakeSource{quotes: []Quote{{Currency: "USD", Rate: 30}}},
			sink:    &fakeSink{base: "TRY", err: errRejected},
			codes:   []string{"USD"},
			wantErr: errRejected,
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWatcher(tt.source, tt.sink, "@every 1h", tt.codes)
			changed, err := w.RunOnce(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, changed)
		})
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := NewWatcher(&fakeSource{}, &fakeSink{base: "TRY"}, "@every 1h", []string{"USD"})
	require.NoError(t, w.Start())
	require.NoError(t, w.Start(), "second start is a no-op")
	<-w.Stop().Done()
}

func TestWatcher_InvalidSchedule(t *testing.T) {
	w := NewWatcher(&fakeSource{}, &fakeSink{base: "TRY"}, "every now and then", []string{"USD"})
	assert.Error(t, w.Start())
}
