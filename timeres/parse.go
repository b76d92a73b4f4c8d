package timeres

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrBadDatetime is returned when no accepted layout matches.
var ErrBadDatetime = errors.New("could not parse local datetime")

// ErrTimezoneSuffix is returned when the local datetime carries a zone
// designator; zoned input belongs on the UTC path.
var ErrTimezoneSuffix = errors.New("local datetime must be naive, timezone designators are not accepted")

// ErrYearRange is returned for years outside [1000, 3000].
var ErrYearRange = errors.New("year outside supported range [1000, 3000]")

// civil is a naive local datetime: wall-clock fields with no zone attached.
type civil struct {
	year              int
	month             time.Month
	day, hour, min, s int
}

// asUTC returns the civil fields laid onto UTC, used as an arithmetic carrier.
func (c civil) asUTC() time.Time {
	return time.Date(c.year, c.month, c.day, c.hour, c.min, c.s, 0, time.UTC)
}

// date returns the calendar date at midnight, for patch-rule range checks.
func (c civil) date() time.Time {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, time.UTC)
}

// ISO renders the civil datetime at seconds precision.
func (c civil) ISO() string {
	return c.asUTC().Format("2006-01-02T15:04:05")
}

var zoneSuffixRe = regexp.MustCompile(`(?i)(z|[+-]\d{2}:?\d{2}|[+-]\d{4})$`)

// Accepted layouts, most specific first. Fractional seconds are truncated by
// the trailing layouts; everything normalizes to seconds precision.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseLocal parses a naive civil datetime. A zone designator anywhere after
// the date portion is rejected outright: callers with an absolute instant
// must use the UTC input path instead.
func parseLocal(s string) (civil, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return civil{}, errors.Wrap(ErrBadDatetime, "empty input")
	}
	// The date itself contains dashes; only look for designators past it.
	if len(trimmed) > len("2006-01-02") && zoneSuffixRe.MatchString(trimmed) {
		return civil{}, ErrTimezoneSuffix
	}
	for _, layout := range localLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		if t.Year() < 1000 || t.Year() > 3000 {
			return civil{}, ErrYearRange
		}
		return civil{
			year:  t.Year(),
			month: t.Month(),
			day:   t.Day(),
			hour:  t.Hour(),
			min:   t.Minute(),
			s:     t.Second(),
		}, nil
	}
	return civil{}, errors.Wrapf(ErrBadDatetime, "%q", s)
}
