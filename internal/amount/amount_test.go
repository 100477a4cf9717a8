package amount

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name   string
		in     float64
		places int32
		want   float64
	}{
		{name: "half up", in: 1.005, places: 2, want: 1.01},
		{name: "float noise", in: 0.1 + 0.2, places: 2, want: 0.3},
		{name: "negative", in: -2.345, places: 2, want: -2.35},
		{name: "four places", in: 0.033333, places: 4, want: 0.0333},
		{name: "nan", in: math.NaN(), places: 2, want: 0},
		{name: "inf", in: math.Inf(1), places: 2, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.in, tt.places))
		})
	}
}

func TestEqual2(t *testing.T) {
	assert.True(t, Equal2(36, 36.0000001))
	assert.True(t, Equal2(3.5999999, 3.6))
	assert.False(t, Equal2(36, 36.01))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 1.8, Float(Percent(36, 5)))
	assert.Equal(t, 0.0, Float(Percent(36, math.NaN())))
}
