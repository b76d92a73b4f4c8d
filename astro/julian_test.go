package astro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJulianDayKnownValues(t *testing.T) {
	tests := []struct {
		name string
		when time.Time
		want float64
	}{
		{
			name: "J2000 epoch",
			when: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			want: 2451545.0,
		},
		{
			// Midnight opening the J2000 day sits exactly half a day before
			// the noon epoch.
			name: "J2000 midnight",
			when: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			want: 2451544.5,
		},
		{
			name: "unix epoch",
			when: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			want: 2440587.5,
		},
		{
			name: "gregorian reform",
			when: time.Date(1582, 10, 15, 0, 0, 0, 0, time.UTC),
			want: 2299160.5,
		},
		{
			name: "mid 1962",
			when: time.Date(1962, 7, 3, 4, 33, 0, 0, time.UTC),
			want: 2437848.68958333,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, JulianDay(tt.when), 1e-6)
		})
	}
}

func TestJulianDayRoundTrip(t *testing.T) {
	times := []time.Time{
		time.Date(1900, 3, 14, 6, 7, 8, 0, time.UTC),
		time.Date(1962, 7, 3, 4, 33, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, want := range times {
		got := JulianDayToTime(JulianDay(want))
		require.True(t, got.Equal(want), "round trip of %v gave %v", want, got)
	}
}

func TestJulianCenturies(t *testing.T) {
	assert.Equal(t, 0.0, JulianCenturies(J2000))
	assert.InDelta(t, 1.0, JulianCenturies(J2000+JulianCentury), 1e-12)
	assert.InDelta(t, -1.0, JulianCenturies(J2000-JulianCentury), 1e-12)
}
