// Package timeres converts naive local civil datetimes plus coordinates into
// UTC instants. Resolution runs a fixed pipeline: zone lookup through a
// prioritized override stack, IANA conversion with deterministic fold/gap
// handling, historical patch-rule overrides, and parity-profile semantics
// reproducing the conventions of other astrological ecosystems.
//
// The resolver is strictly deterministic: identical inputs against the same
// rule-set version and profile always produce the same output.
package timeres

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "timeres")

// Profile selects which resolution layers apply.
type Profile string

const (
	StrictHistory Profile = "strict_history"
	AstroCom      Profile = "astro_com"
	Clairvision   Profile = "clairvision"
	AsEntered     Profile = "as_entered"
)

// ParseProfile resolves a profile name; empty input yields the zero Profile
// so callers can substitute their configured default.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case StrictHistory:
		return StrictHistory, nil
	case AstroCom:
		return AstroCom, nil
	case Clairvision:
		return Clairvision, nil
	case AsEntered:
		return AsEntered, nil
	case "":
		return "", nil
	}
	return "", errors.Errorf("unknown parity profile %q", s)
}

// Confidence grades how certain the resolution is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ErrAmbiguousTime is returned only under as_entered when the user-supplied
// zone makes the local time ambiguous and no DST preference was given.
var ErrAmbiguousTime = errors.New("local time is ambiguous in the provided zone")

// ErrNonexistentTime is the gap-side counterpart of ErrAmbiguousTime.
var ErrNonexistentTime = errors.New("local time does not exist in the provided zone")

// ErrUnknownZone is returned when a user-supplied zone resolves neither as an
// IANA identifier nor as a known abbreviation.
var ErrUnknownZone = errors.New("unknown timezone identifier")

// Input is one resolution request.
type Input struct {
	LocalDatetime string
	Lat           float64
	Lon           float64
	Profile       Profile
	UserZone      string
	UserOffsetSec *int
	UserAssumeDST *bool
}

// Result mirrors the TimeResolutionResult reported in provenance.
type Result struct {
	UTC            time.Time  `json:"-"`
	UTCString      string     `json:"utc"`
	ZoneID         string     `json:"zone_id"`
	OffsetSeconds  int        `json:"offset_seconds"`
	DSTActive      bool       `json:"dst_active"`
	Confidence     Confidence `json:"confidence"`
	Reason         string     `json:"reason"`
	Notes          []string   `json:"notes"`
	Warnings       []string   `json:"warnings"`
	PatchesApplied []string   `json:"patches_applied"`
}

// Resolver owns the immutable lookup structures. Safe for concurrent use.
type Resolver struct {
	patches  *PatchSet
	cities   *spatialIndex
	radiusKm float64
}

// New builds a resolver over the given patch set.
func New(patches *PatchSet) *Resolver {
	if patches == nil {
		patches = DefaultPatches()
	}
	return &Resolver{
		patches:  patches,
		cities:   newSpatialIndex(),
		radiusKm: 100,
	}
}

// RuleSetVersion identifies the active patch rules for provenance.
func (r *Resolver) RuleSetVersion() string {
	return r.patches.Version()
}

// Resolve runs the full pipeline.
func (r *Resolver) Resolve(in Input) (*Result, error) {
	c, err := parseLocal(in.LocalDatetime)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Notes:          []string{},
		Warnings:       []string{},
		PatchesApplied: []string{},
	}

	// Layer 1: coordinate -> zone through the override stack.
	zone, source, coarse := r.lookupZone(in.Lat, in.Lon, res)

	// Layer 2: patch-rule hits. Only strict_history applies them, but the
	// compatibility profiles still report what they are ignoring.
	var hit *Rule
	var alsoHit []*Rule
	if in.Profile != AsEntered {
		hit, alsoHit = r.patches.Match(in.Lat, in.Lon, c.date())
	}

	// Layer 3: raw IANA conversion.
	loc, locErr := time.LoadLocation(zone)
	if locErr != nil {
		// A zone from the embedded tables failing to load means the host tz
		// database is unusable; fall back to the longitude band as a fixed
		// offset so resolution still terminates deterministically.
		log.WithError(locErr).WithField("zone", zone).Error("Could not load zone, using fixed band offset")
		res.Warnings = append(res.Warnings, fmt.Sprintf("zone %s unavailable, used longitude-band offset", zone))
		loc = time.FixedZone(zone, bandOffsetSeconds(in.Lon))
		coarse = true
	}
	utc, offset, dst := r.attach(c, loc, res)

	res.ZoneID = zone
	res.UTC = utc
	res.OffsetSeconds = offset
	res.DSTActive = dst
	res.Reason = fmt.Sprintf("IANA rules for %s via %s", zone, source)

	// Layer 4: overrides plus profile semantics.
	switch in.Profile {
	case StrictHistory:
		if hit != nil {
			r.applyPatch(c, hit, alsoHit, res)
		}
	case AstroCom, Clairvision:
		if hit != nil {
			res.Notes = append(res.Notes,
				fmt.Sprintf("profile %s: historical patch %s suppressed, raw IANA result kept", in.Profile, hit.ID))
		}
	case AsEntered:
		if err := r.applyUserEntered(c, in, res); err != nil {
			return nil, err
		}
	}

	// Layer 5: confidence.
	r.assignConfidence(in, coarse, res)

	res.UTCString = res.UTC.Format("2006-01-02T15:04:05Z")
	return res, nil
}

// lookupZone walks the override stack: regional boxes, nearest city, then the
// coarse longitude band. Returns the zone, a human-readable source label, and
// whether resolution fell through to the coarse layer.
func (r *Resolver) lookupZone(lat, lon float64, res *Result) (zone, source string, coarse bool) {
	if z, region, ok := lookupRegion(lat, lon); ok {
		return z, "region override " + region, false
	}
	if c, dist, ok := r.cities.nearest(lat, lon, r.radiusKm); ok {
		return c.zone, fmt.Sprintf("nearest city %s (%.0f km)", c.name, dist), false
	}
	z := lookupBand(lon)
	res.Notes = append(res.Notes, "no reference city within radius, used longitude band")
	return z, "longitude band", true
}

// attach converts the civil datetime to UTC under loc, handling folds and
// gaps deterministically: folds take the first occurrence, gaps advance to
// the first valid subsequent instant. Both add warnings, never errors.
func (r *Resolver) attach(c civil, loc *time.Location, res *Result) (utc time.Time, offsetSec int, dst bool) {
	cands := utcCandidates(c, loc)
	switch len(cands) {
	case 0:
		// Spring-forward gap: convert with the pre-transition offset, which
		// lands on the first valid instant after the gap.
		before := preTransitionOffset(c, loc)
		utc = c.asUTC().Add(-time.Duration(before) * time.Second)
		local := utc.In(loc)
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"local time %s does not exist in %s (spring-forward gap), advanced to %s",
			c.ISO(), loc.String(), local.Format("15:04:05")))
	case 1:
		utc = cands[0]
	default:
		utc = cands[0] // earliest UTC = first occurrence
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"local time %s is ambiguous in %s (fall-back fold), using first occurrence",
			c.ISO(), loc.String()))
	}
	_, offsetSec = utc.In(loc).Zone()
	return utc, offsetSec, offsetSec > standardOffset(loc, c.year)
}

// applyPatch replaces the raw IANA result with the override of the winning
// rule and records provenance.
func (r *Resolver) applyPatch(c civil, hit *Rule, alsoHit []*Rule, res *Result) {
	ov := hit.Override
	switch {
	case ov.ZoneID != "" && ov.DSTRules != "" && ov.DSTRules != SchemeNone:
		// Named historical scheme over the override zone's standard offset.
		base := overrideStandardOffset(ov.ZoneID)
		active := schemeActive(ov.DSTRules, c)
		offset := base
		if active {
			offset += 3600
		}
		res.UTC = c.asUTC().Add(-time.Duration(offset) * time.Second)
		res.ZoneID = ov.ZoneID
		res.OffsetSeconds = offset
		res.DSTActive = active
	case ov.ZoneID != "":
		if loc, err := time.LoadLocation(ov.ZoneID); err == nil {
			res.UTC, res.OffsetSeconds, res.DSTActive = r.attach(c, loc, res)
			res.ZoneID = ov.ZoneID
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("patch zone %s unavailable, raw IANA result kept", ov.ZoneID))
			return
		}
	case ov.OffsetSeconds != nil:
		offset := *ov.OffsetSeconds
		res.UTC = c.asUTC().Add(-time.Duration(offset) * time.Second)
		res.OffsetSeconds = offset
		res.DSTActive = false
	}
	res.Reason = "historical patch " + hit.ID
	res.PatchesApplied = append(res.PatchesApplied, hit.ID)
	for _, extra := range alsoHit {
		res.Notes = append(res.Notes, fmt.Sprintf("patch %s also matched but was shadowed by %s", extra.ID, hit.ID))
	}
}

// applyUserEntered honors user-supplied zone hints verbatim, warning when
// they disagree with the computed result.
func (r *Resolver) applyUserEntered(c civil, in Input, res *Result) error {
	computedOffset := res.OffsetSeconds
	used := false

	if in.UserZone != "" {
		if ab, ok := lookupAbbrev(in.UserZone); ok {
			offset := ab.offsetSeconds
			dst := ab.dst
			if in.UserAssumeDST != nil && *in.UserAssumeDST && !dst {
				offset += 3600
				dst = true
			}
			res.UTC = c.asUTC().Add(-time.Duration(offset) * time.Second)
			res.ZoneID = strings.ToUpper(strings.TrimSpace(in.UserZone))
			res.OffsetSeconds = offset
			res.DSTActive = dst
			used = true
		} else if loc, err := time.LoadLocation(in.UserZone); err == nil {
			cands := utcCandidates(c, loc)
			switch len(cands) {
			case 0:
				if in.UserAssumeDST == nil {
					return errors.Wrapf(ErrNonexistentTime, "%s in %s", c.ISO(), in.UserZone)
				}
				sub := &Result{}
				res.UTC, res.OffsetSeconds, res.DSTActive = r.attach(c, loc, sub)
				res.Warnings = append(res.Warnings, sub.Warnings...)
			case 1:
				res.UTC = cands[0]
				_, res.OffsetSeconds = cands[0].In(loc).Zone()
				res.DSTActive = res.OffsetSeconds > standardOffset(loc, c.year)
			default:
				if in.UserAssumeDST == nil {
					return errors.Wrapf(ErrAmbiguousTime, "%s in %s", c.ISO(), in.UserZone)
				}
				// DST side is the larger offset, i.e. the earlier UTC.
				pick := cands[0]
				if !*in.UserAssumeDST {
					pick = cands[len(cands)-1]
				}
				res.UTC = pick
				_, res.OffsetSeconds = pick.In(loc).Zone()
				res.DSTActive = res.OffsetSeconds > standardOffset(loc, c.year)
			}
			res.ZoneID = in.UserZone
			used = true
		} else {
			return errors.Wrapf(ErrUnknownZone, "%q", in.UserZone)
		}
	}

	if in.UserOffsetSec != nil {
		offset := *in.UserOffsetSec
		res.UTC = c.asUTC().Add(-time.Duration(offset) * time.Second)
		res.OffsetSeconds = offset
		if in.UserZone == "" {
			res.ZoneID = fmt.Sprintf("UTC%+d:%02d", offset/3600, abs(offset%3600)/60)
			res.DSTActive = false
		}
		used = true
	}

	if used {
		res.Reason = "as entered by user"
		if res.OffsetSeconds != computedOffset {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"user-provided zone/offset (%+ds) disagrees with computed offset (%+ds)",
				res.OffsetSeconds, computedOffset))
		}
	}
	return nil
}

func (r *Resolver) assignConfidence(in Input, coarse bool, res *Result) {
	switch {
	case in.Profile == AsEntered && (in.UserZone != "" || in.UserOffsetSec != nil):
		res.Confidence = ConfidenceLow
	case coarse:
		res.Confidence = ConfidenceLow
	case len(res.PatchesApplied) > 0:
		res.Confidence = ConfidenceMedium
	default:
		res.Confidence = ConfidenceHigh
	}
}

// utcCandidates returns every UTC instant whose wall clock in loc matches the
// civil datetime, ascending. Zero candidates means a gap, two means a fold.
func utcCandidates(c civil, loc *time.Location) []time.Time {
	approx := c.asUTC()
	seen := map[int]bool{}
	var cands []time.Time
	for _, probe := range []time.Time{approx.Add(-26 * time.Hour), approx, approx.Add(26 * time.Hour)} {
		_, off := probe.In(loc).Zone()
		if seen[off] {
			continue
		}
		seen[off] = true
		cand := approx.Add(-time.Duration(off) * time.Second)
		if sameClock(cand.In(loc), c) {
			cands = append(cands, cand)
		}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].Before(cands[j]) })
	// Dedupe: distinct probe offsets can produce the same instant.
	out := cands[:0]
	for i, t := range cands {
		if i == 0 || !t.Equal(cands[i-1]) {
			out = append(out, t)
		}
	}
	return out
}

func sameClock(t time.Time, c civil) bool {
	return t.Year() == c.year && t.Month() == c.month && t.Day() == c.day &&
		t.Hour() == c.hour && t.Minute() == c.min && t.Second() == c.s
}

// preTransitionOffset returns the zone offset in force just before a gap.
// Gaps occur when the offset increases, so this is the smaller of the
// adjacent offsets.
func preTransitionOffset(c civil, loc *time.Location) int {
	approx := c.asUTC()
	_, before := approx.Add(-26 * time.Hour).In(loc).Zone()
	_, after := approx.Add(26 * time.Hour).In(loc).Zone()
	if before < after {
		return before
	}
	return after
}

// standardOffset estimates the zone's standard (non-DST) offset for a year as
// the smaller of the January and July offsets. Zones with negative DST would
// defeat this heuristic; none of the embedded gazetteer zones use it.
func standardOffset(loc *time.Location, year int) int {
	_, jan := time.Date(year, time.January, 1, 12, 0, 0, 0, time.UTC).In(loc).Zone()
	_, jul := time.Date(year, time.July, 1, 12, 0, 0, 0, time.UTC).In(loc).Zone()
	if jan < jul {
		return jan
	}
	return jul
}

// overrideStandardOffset resolves a patch zone's conventional standard
// offset. Sampled at a fixed post-war reference year: during 1942-1945 the tz
// database records year-round War Time, which would poison the min(Jan, Jul)
// heuristic for exactly the era most patch rules cover.
func overrideStandardOffset(zoneID string) int {
	if loc, err := time.LoadLocation(zoneID); err == nil {
		return standardOffset(loc, 1950)
	}
	return 0
}

func bandOffsetSeconds(lon float64) int {
	return int(math.Round(lon/15.0)) * 3600
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
