package currency

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donis3/costcalc/internal/model"
)

// tickingClock returns a clock that advances one minute per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(tickingClock()), WithEnabled("TRY", "USD", "EUR", "GBP")}, opts...)
	s := NewStore("TRY", opts...)

	_, err := s.AddObservation("USD", "TRY", 30)
	require.NoError(t, err)
	_, err = s.AddObservation("EUR", "TRY", 33)
	require.NoError(t, err)
	return s
}

func TestStore_CurrentRate(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, 30.0, s.CurrentRate("USD"))
	assert.Equal(t, 30.0, s.CurrentRate(" usd "))
	assert.Equal(t, 1.0, s.CurrentRate("TRY"), "default currency")
	assert.Equal(t, 1.0, s.CurrentRate("JPY"), "unknown currency")
	assert.Equal(t, 1.0, s.CurrentRate(""), "empty code")
}

func TestStore_AddObservationValidation(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		from    string
		to      string
		rate    float64
	}{
		{name: "negative rate", from: "USD", to: "TRY", rate: -1, wantErr: ErrInvalidRate},
		{name: "nan rate", from: "USD", to: "TRY", rate: math.NaN(), wantErr: ErrInvalidRate},
		{name: "infinite rate", from: "USD", to: "TRY", rate: math.Inf(1), wantErr: ErrInvalidRate},
		{name: "empty from", from: "", to: "TRY", rate: 1, wantErr: model.ErrInvalidCurrency},
		{name: "one letter code", from: "U", to: "TRY", rate: 1, wantErr: model.ErrInvalidCurrency},
		{name: "not iso", from: "ZZZ", to: "TRY", rate: 1, wantErr: ErrUnknownCurrency},
		{name: "target not default", from: "USD", to: "EUR", rate: 1, wantErr: ErrNotDefault},
		{name: "from default", from: "TRY", to: "TRY", rate: 1, wantErr: ErrIsDefault},
		{name: "disabled", from: "JPY", to: "TRY", rate: 0.2, wantErr: ErrDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			before := s.Snapshot()

			changed, err := s.AddObservation(tt.from, tt.to, tt.rate)
			assert.False(t, changed)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			assert.Equal(t, before, s.Snapshot(), "state must be unchanged after a rejected observation")
		})
	}
}

func TestStore_NoOpWriteSuppression(t *testing.T) {
	s := newTestStore(t)

	changed, err := s.AddObservation("USD", "TRY", 31)
	require.NoError(t, err)
	require.True(t, changed)
	lengthBefore := len(s.Snapshot()["USD"])

	changed, err = s.AddObservation("USD", "TRY", 31)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, s.Snapshot()["USD"], lengthBefore)

	// Rates are stored at two decimals, so sub-cent noise is also a no-op
	changed, err = s.AddObservation("USD", "TRY", 31.001)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestStore_HistoryBound(t *testing.T) {
	const limit = 4
	s := NewStore("TRY", WithMaxHistory(limit), WithClock(tickingClock()))

	for i := 1; i <= 10; i++ {
		changed, err := s.AddObservation("USD", "TRY", float64(20+i))
		require.NoError(t, err)
		require.True(t, changed)
		assert.LessOrEqual(t, len(s.Snapshot()["USD"]), limit)
	}

	history := s.Snapshot()["USD"]
	require.Len(t, history, limit)
	for i, want := range []float64{30, 29, 28, 27} {
		assert.Equal(t, want, history[i].Rate, "entry %d", i)
	}
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].Date.After(history[i].Date), "history must be newest first")
	}
}

func TestStore_RateWithHistory(t *testing.T) {
	s := NewStore("TRY", WithClock(tickingClock()))
	for _, rate := range []float64{27, 28, 29, 30} {
		_, err := s.AddObservation("USD", "TRY", rate)
		require.NoError(t, err)
	}

	info := s.RateWithHistory("USD", 2)
	assert.Equal(t, 30.0, info.Rate)
	assert.False(t, info.Date.IsZero())
	require.Len(t, info.History, 2)
	assert.Equal(t, 28.0, info.History[0].Rate, "oldest first")
	assert.Equal(t, 29.0, info.History[1].Rate)

	all := s.RateWithHistory("USD", 10)
	assert.Len(t, all.History, 3)

	none := s.RateWithHistory("USD", 0)
	assert.Empty(t, none.History)

	def := s.RateWithHistory("TRY", 3)
	assert.Equal(t, 1.0, def.Rate)
	assert.Empty(t, def.History)

	unknown := s.RateWithHistory("GBP", 3)
	assert.Equal(t, 1.0, unknown.Rate)
	assert.True(t, unknown.Date.IsZero())
}

func TestStore_Convert(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name string
		want Conversion
		amt  float64
		from string
		to   string
	}{
		{name: "to default", amt: 1.2, from: "USD", to: "TRY", want: Conversion{Currency: "TRY", Amount: 36}},
		{name: "empty target means default", amt: 2, from: "EUR", to: "", want: Conversion{Currency: "TRY", Amount: 66}},
		{name: "from default", amt: 60, from: "TRY", to: "USD", want: Conversion{Currency: "USD", Amount: 2}},
		{name: "cross through pivot", amt: 11, from: "EUR", to: "USD", want: Conversion{Currency: "USD", Amount: 12.1}},
		{name: "same currency", amt: 5, from: "USD", to: "USD", want: Conversion{Currency: "USD", Amount: 5}},
		{name: "unknown source", amt: 5, from: "JPY", to: "TRY", want: Conversion{Currency: "JPY", Amount: 5}},
		{name: "unknown target", amt: 5, from: "USD", to: "JPY", want: Conversion{Currency: "USD", Amount: 5}},
		{name: "enabled without rate", amt: 5, from: "GBP", to: "TRY", want: Conversion{Currency: "GBP", Amount: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Convert(tt.amt, tt.from, tt.to, true)
			assert.Equal(t, tt.want.Currency, got.Currency)
			assert.InDelta(t, tt.want.Amount, got.Amount, 1e-9)
		})
	}
}

func TestStore_ConvertRounding(t *testing.T) {
	s := NewStore("TRY")
	_, err := s.AddObservation("USD", "TRY", 30.33)
	require.NoError(t, err)

	assert.Equal(t, 10.31, s.Convert(0.34, "USD", "TRY", true).Amount)
	assert.InDelta(t, 10.3122, s.Convert(0.34, "USD", "TRY", false).Amount, 1e-9)
}

func TestStore_ConversionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	pairs := [][2]string{{"USD", "TRY"}, {"TRY", "EUR"}, {"EUR", "USD"}, {"USD", "EUR"}}

	for _, pair := range pairs {
		for _, amt := range []float64{0, 1, 12.34, 999.99, 123456.78} {
			t.Run(fmt.Sprintf("%s-%s-%v", pair[0], pair[1], amt), func(t *testing.T) {
				there := s.Convert(amt, pair[0], pair[1], true)
				back := s.Convert(there.Amount, pair[1], pair[0], true)
				assert.Equal(t, pair[0], back.Currency)
				assert.InDelta(t, amt, back.Amount, 0.01)
			})
		}
	}
}

func TestStore_PivotConsistency(t *testing.T) {
	s := newTestStore(t)
	codes := []string{"TRY", "USD", "EUR"}

	for _, a := range codes {
		for _, b := range codes {
			direct := s.Convert(100, a, b, false)
			viaDefault := s.Convert(s.Convert(100, a, "TRY", false).Amount, "TRY", b, false)
			assert.Equal(t, direct.Currency, viaDefault.Currency, "%s->%s", a, b)
			assert.InDelta(t, direct.Amount, viaDefault.Amount, 0.01, "%s->%s", a, b)
		}
	}
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t)
	require.NotEmpty(t, s.Snapshot())

	s.Reset("USD")
	assert.Equal(t, "USD", s.Default())
	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 1.0, s.CurrentRate("EUR"))

	_, err := s.AddObservation("TRY", "USD", 0.03)
	require.NoError(t, err)
	assert.Equal(t, 0.03, s.CurrentRate("TRY"))
}

func TestStore_WithHistorySanitizes(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	seed := model.CurrencyHistory{
		"usd": {
			{Date: day(1), From: "USD", To: "TRY", Rate: 28},
			{Date: day(3), From: "USD", To: "TRY", Rate: 30},
			{Date: day(2), From: "USD", To: "TRY", Rate: 29},
			{Date: day(4), From: "USD", To: "EUR", Rate: 0.9},
		},
		"TRY": {{Date: day(1), From: "TRY", To: "TRY", Rate: 1}},
	}

	s := NewStore("TRY", WithHistory(seed), WithMaxHistory(2))
	snap := s.Snapshot()

	require.Len(t, snap, 1)
	require.Len(t, snap["USD"], 2)
	assert.Equal(t, 30.0, snap["USD"][0].Rate)
	assert.Equal(t, 29.0, snap["USD"][1].Rate)

	// The seed must not be aliased
	seed["usd"][0].Rate = 1
	assert.Equal(t, 30.0, s.CurrentRate("USD"))
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()
	snap["USD"][0].Rate = 999
	delete(snap, "EUR")

	assert.Equal(t, 30.0, s.CurrentRate("USD"))
	assert.Equal(t, 33.0, s.CurrentRate("EUR"))
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := newTestStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i == 0 {
					_, _ = s.AddObservation("USD", "TRY", float64(30+j%3))
					continue
				}
				got := s.Convert(1, "USD", "TRY", true)
				assert.Equal(t, "TRY", got.Currency)
			}
		}(i)
	}
	wg.Wait()
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,234.50", Format(1234.5, "usd"))
	assert.Equal(t, "12.00 XXQ", Format(12, "XXQ"))
	assert.Equal(t, 0, Fraction("JPY"))
	assert.Equal(t, 2, Fraction("XXQ"))
}

func TestStore_ReadOnly(t *testing.T) {
	s := newTestStore(t)
	view := s.ReadOnly()

	_, isStore := view.(*Store)
	assert.False(t, isStore, "the view does not expose the store")

	assert.Equal(t, "TRY", view.Default())
	assert.Equal(t, []string{"EUR", "USD"}, view.Codes())
	assert.Equal(t, 300.0, view.Convert(10, "USD", "", true).Amount)
	assert.True(t, view.Convertible("EUR"))
	assert.Equal(t, 33.0, view.RateWithHistory("EUR", 3).Rate)

	snap := view.Snapshot()
	snap["USD"][0].Rate = 99
	assert.Equal(t, 30.0, view.CurrentRate("USD"), "snapshots are copies")

	_, err := s.AddObservation("USD", "TRY", 31)
	require.NoError(t, err)
	assert.Equal(t, 31.0, view.CurrentRate("USD"), "the view follows store writes")
}
