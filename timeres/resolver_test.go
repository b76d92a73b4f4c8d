package timeres

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fortKnoxLat = 37.840347
	fortKnoxLon = -85.949127
)

func resolve(t *testing.T, in Input) *Result {
	t.Helper()
	res, err := New(nil).Resolve(in)
	require.NoError(t, err)
	return res
}

func TestResolveFortKnox1962ViaIANA(t *testing.T) {
	// The 1962 date falls after the Fort Knox patch window closed, so the
	// IANA history for the Louisville area applies: EST year-round.
	res := resolve(t, Input{
		LocalDatetime: "1962-07-02T23:33:00",
		Lat:           fortKnoxLat,
		Lon:           fortKnoxLon,
		Profile:       StrictHistory,
	})
	assert.Equal(t, "1962-07-03T04:33:00Z", res.UTCString)
	assert.Equal(t, "America/Kentucky/Louisville", res.ZoneID)
	assert.Equal(t, -5*3600, res.OffsetSeconds)
	assert.Empty(t, res.PatchesApplied)
	assert.Contains(t, []Confidence{ConfidenceHigh, ConfidenceMedium}, res.Confidence)
}

func TestResolveFortKnoxPatchEra(t *testing.T) {
	// Inside the patch window the region keeps Central time with the
	// conventional summer DST scheme: June 1943 is CDT, UTC-5.
	res := resolve(t, Input{
		LocalDatetime: "1943-06-01T12:00:00",
		Lat:           fortKnoxLat,
		Lon:           fortKnoxLon,
		Profile:       StrictHistory,
	})
	require.Equal(t, []string{"us_ky_fort_knox_1943"}, res.PatchesApplied)
	assert.Equal(t, "America/Chicago", res.ZoneID)
	assert.Equal(t, -5*3600, res.OffsetSeconds)
	assert.True(t, res.DSTActive)
	assert.Equal(t, "1943-06-01T17:00:00Z", res.UTC.Format("2006-01-02T15:04:05Z"))
	assert.Equal(t, ConfidenceMedium, res.Confidence)
}

func TestResolveFortKnoxPatchEraWinter(t *testing.T) {
	// January sits outside the us_standard DST span: CST, UTC-6.
	res := resolve(t, Input{
		LocalDatetime: "1943-01-15T12:00:00",
		Lat:           fortKnoxLat,
		Lon:           fortKnoxLon,
		Profile:       StrictHistory,
	})
	require.NotEmpty(t, res.PatchesApplied)
	assert.Equal(t, -6*3600, res.OffsetSeconds)
	assert.False(t, res.DSTActive)
	assert.Equal(t, "1943-01-15T18:00:00Z", res.UTC.Format("2006-01-02T15:04:05Z"))
}

func TestCompatibilityProfilesSuppressPatches(t *testing.T) {
	for _, profile := range []Profile{AstroCom, Clairvision} {
		res := resolve(t, Input{
			LocalDatetime: "1943-06-01T12:00:00",
			Lat:           fortKnoxLat,
			Lon:           fortKnoxLon,
			Profile:       profile,
		})
		assert.Empty(t, res.PatchesApplied, profile)
		require.NotEmpty(t, res.Notes, profile)
		assert.Contains(t, res.Notes[0], string(profile))
	}
}

func TestResolveFallBackFold(t *testing.T) {
	// 1955-10-30 01:30 in New York happened twice. Deterministic choice:
	// the first occurrence (the EDT side), with a warning, never an error.
	res := resolve(t, Input{
		LocalDatetime: "1955-10-30T01:30:00",
		Lat:           40.7128,
		Lon:           -74.0060,
		Profile:       StrictHistory,
	})
	assert.Equal(t, "America/New_York", res.ZoneID)
	assert.Equal(t, -4*3600, res.OffsetSeconds)
	assert.Equal(t, "1955-10-30T05:30:00Z", res.UTCString)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "ambiguous")
}

func TestResolveSpringForwardGap(t *testing.T) {
	// 2023-03-12 02:30 in New York never existed; resolution advances to
	// 03:30 EDT with a warning.
	res := resolve(t, Input{
		LocalDatetime: "2023-03-12T02:30:00",
		Lat:           40.7128,
		Lon:           -74.0060,
		Profile:       StrictHistory,
	})
	assert.Equal(t, "2023-03-12T07:30:00Z", res.UTCString)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "does not exist")
}

func TestResolveDeterministic(t *testing.T) {
	in := Input{
		LocalDatetime: "1936-06-15T08:00:00",
		Lat:           41.8781,
		Lon:           -87.6298,
		Profile:       StrictHistory,
	}
	r := New(nil)
	first, err := r.Resolve(in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveAsEnteredAbbreviation(t *testing.T) {
	res := resolve(t, Input{
		LocalDatetime: "1990-05-01T10:00:00",
		Lat:           40.7128,
		Lon:           -74.0060,
		Profile:       AsEntered,
		UserZone:      "PST",
	})
	assert.Equal(t, "PST", res.ZoneID)
	assert.Equal(t, -8*3600, res.OffsetSeconds)
	assert.Equal(t, "1990-05-01T18:00:00Z", res.UTCString)
	assert.Equal(t, ConfidenceLow, res.Confidence)
	// PST disagrees with the computed New York offset; a warning says so.
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "disagrees")
}

func TestResolveAsEnteredOffset(t *testing.T) {
	off := 5 * 3600
	res := resolve(t, Input{
		LocalDatetime: "2000-01-01T00:00:00",
		Lat:           28.6139,
		Lon:           77.2090,
		Profile:       AsEntered,
		UserOffsetSec: &off,
	})
	assert.Equal(t, 5*3600, res.OffsetSeconds)
	assert.Equal(t, "1999-12-31T19:00:00Z", res.UTCString)
	assert.Equal(t, ConfidenceLow, res.Confidence)
}

func TestResolveAsEnteredAmbiguousErrors(t *testing.T) {
	_, err := New(nil).Resolve(Input{
		LocalDatetime: "2023-11-05T01:30:00",
		Lat:           40.7128,
		Lon:           -74.0060,
		Profile:       AsEntered,
		UserZone:      "America/New_York",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousTime))

	// Supplying a DST preference picks a side instead of failing.
	dst := true
	res := resolve(t, Input{
		LocalDatetime: "2023-11-05T01:30:00",
		Lat:           40.7128,
		Lon:           -74.0060,
		Profile:       AsEntered,
		UserZone:      "America/New_York",
		UserAssumeDST: &dst,
	})
	assert.Equal(t, -4*3600, res.OffsetSeconds)

	std := false
	res = resolve(t, Input{
		LocalDatetime: "2023-11-05T01:30:00",
		Lat:           40.7128,
		Lon:           -74.0060,
		Profile:       AsEntered,
		UserZone:      "America/New_York",
		UserAssumeDST: &std,
	})
	assert.Equal(t, -5*3600, res.OffsetSeconds)
}

func TestResolveAsEnteredNonexistentErrors(t *testing.T) {
	_, err := New(nil).Resolve(Input{
		LocalDatetime: "2023-03-12T02:30:00",
		Lat:           40.7128,
		Lon:           -74.0060,
		Profile:       AsEntered,
		UserZone:      "America/New_York",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonexistentTime))
}

func TestResolveAsEnteredUnknownZone(t *testing.T) {
	_, err := New(nil).Resolve(Input{
		LocalDatetime: "2023-01-01T00:00:00",
		Lat:           40.7128,
		Lon:           -74.0060,
		Profile:       AsEntered,
		UserZone:      "Mars/Olympus_Mons",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownZone))
}

func TestResolveCoarseFallbackLowConfidence(t *testing.T) {
	// Middle of the south Atlantic: no region override, no city in range.
	res := resolve(t, Input{
		LocalDatetime: "2000-06-01T12:00:00",
		Lat:           -35.0,
		Lon:           -20.0,
		Profile:       StrictHistory,
	})
	assert.Equal(t, ConfidenceLow, res.Confidence)
	assert.Contains(t, res.ZoneID, "Etc/GMT")
}

func TestResolveRejectsZonedInput(t *testing.T) {
	_, err := New(nil).Resolve(Input{
		LocalDatetime: "2000-06-01T12:00:00Z",
		Lat:           0, Lon: 0,
		Profile: StrictHistory,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimezoneSuffix))
}

func TestResolveRejectsYearOutOfRange(t *testing.T) {
	for _, dt := range []string{"0999-12-31T23:59:59", "3001-01-01T00:00:00"} {
		_, err := New(nil).Resolve(Input{LocalDatetime: dt, Lat: 0, Lon: 0, Profile: StrictHistory})
		require.Error(t, err, dt)
		assert.True(t, errors.Is(err, ErrYearRange), dt)
	}
}

func TestUTCCandidates(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Normal time: exactly one candidate.
	c := civil{year: 2023, month: time.June, day: 1, hour: 12}
	assert.Len(t, utcCandidates(c, ny), 1)

	// Fold: two candidates, ascending.
	c = civil{year: 2023, month: time.November, day: 5, hour: 1, min: 30}
	cands := utcCandidates(c, ny)
	require.Len(t, cands, 2)
	assert.True(t, cands[0].Before(cands[1]))

	// Gap: none.
	c = civil{year: 2023, month: time.March, day: 12, hour: 2, min: 30}
	assert.Empty(t, utcCandidates(c, ny))
}
