package serving

import (
	"fmt"
	"strings"
	"time"

	"github.com/involution-sh/involution/astro"
	"github.com/involution-sh/involution/ayanamsha"
	"github.com/involution-sh/involution/timeres"
)

// Place locates the observer for local-time requests and the topocentric
// correction.
type Place struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// When carries exactly one of a UTC instant or a naive local datetime plus
// place. The user_* fields only matter under the as_entered parity profile.
type When struct {
	UTC           string `json:"utc,omitempty"`
	LocalDatetime string `json:"local_datetime,omitempty"`
	Place         *Place `json:"place,omitempty"`

	UserZone      string `json:"user_zone,omitempty"`
	UserOffsetSec *int   `json:"user_offset_seconds,omitempty"`
	UserAssumeDST *bool  `json:"user_assume_dst,omitempty"`
}

// AyanamshaRef names the sidereal offset system.
type AyanamshaRef struct {
	ID string `json:"id"`
}

// FrameRef names the reporting coordinate frame.
type FrameRef struct {
	Type string `json:"type"`
}

// PositionsRequest is the wire shape of POST /v1/positions.
type PositionsRequest struct {
	When          When          `json:"when"`
	System        string        `json:"system"`
	Ayanamsha     *AyanamshaRef `json:"ayanamsha,omitempty"`
	Frame         *FrameRef     `json:"frame,omitempty"`
	Epoch         string        `json:"epoch,omitempty"`
	Bodies        []string      `json:"bodies"`
	ParityProfile string        `json:"parity_profile,omitempty"`
}

// ResolveRequest is the wire shape of POST /v1/time/resolve.
type ResolveRequest struct {
	LocalDatetime string `json:"local_datetime"`
	Place         *Place `json:"place"`
	ParityProfile string `json:"parity_profile,omitempty"`

	UserZone      string `json:"user_zone,omitempty"`
	UserOffsetSec *int   `json:"user_offset_seconds,omitempty"`
	UserAssumeDST *bool  `json:"user_assume_dst,omitempty"`
}

// request is a fully validated, normalized positions request. All enum fields
// hold canonical values and the ayanamsha is resolved.
type request struct {
	utc       time.Time // zero when local must be resolved
	local     *timeres.Input
	place     *Place
	system    astro.ZodiacSystem
	ayan      *ayanamsha.Record
	frame     astro.Frame
	epoch     astro.Epoch
	bodies    []astro.Body // request order, duplicates removed
	profile   timeres.Profile
	elevation *float64
}

// validate applies every compatibility rule before any other work is done.
func validate(in *PositionsRequest, reg *ayanamsha.Registry, defaultProfile timeres.Profile) (*request, *Error) {
	out := &request{}

	// System x ayanamsha come first: these rejections must win regardless of
	// what else is wrong with the request.
	switch astro.ZodiacSystem(strings.ToLower(strings.TrimSpace(in.System))) {
	case astro.Tropical:
		out.system = astro.Tropical
		if in.Ayanamsha != nil {
			return nil, errSystemIncompatible.
				withDetail("tropical system does not take an ayanamsha").
				withTip("Omit the ayanamsha field, or request system=sidereal.")
		}
	case astro.Sidereal:
		out.system = astro.Sidereal
		if in.Ayanamsha == nil || strings.TrimSpace(in.Ayanamsha.ID) == "" {
			return nil, errAyanamshaRequired.
				withTip(fmt.Sprintf("Supply ayanamsha.id, one of: %s.", strings.Join(reg.IDs(), ", ")))
		}
		rec, err := reg.Resolve(in.Ayanamsha.ID)
		if err != nil {
			return nil, errAyanamshaUnknown.withDetail(err.Error())
		}
		out.ayan = rec
	case "":
		return nil, errInputMissing.withDetail("system is required").
			withTip(`Set system to "tropical" or "sidereal".`)
	default:
		return nil, errInputInvalid.withDetail(fmt.Sprintf("unknown system %q", in.System))
	}

	// Frame and epoch, with per-frame defaults, then the legality rule.
	out.frame = astro.EclipticOfDate
	if in.Frame != nil && in.Frame.Type != "" {
		switch astro.Frame(strings.ToLower(strings.TrimSpace(in.Frame.Type))) {
		case astro.EclipticOfDate:
			out.frame = astro.EclipticOfDate
		case astro.Equatorial:
			out.frame = astro.Equatorial
		default:
			return nil, errInputInvalid.withDetail(fmt.Sprintf("unknown frame %q", in.Frame.Type))
		}
	}
	switch strings.TrimSpace(in.Epoch) {
	case "":
		if out.frame == astro.Equatorial {
			out.epoch = astro.EpochJ2000
		} else {
			out.epoch = astro.OfDate
		}
	case string(astro.OfDate):
		out.epoch = astro.OfDate
	case string(astro.EpochJ2000):
		out.epoch = astro.EpochJ2000
	default:
		return nil, errInputInvalid.withDetail(fmt.Sprintf("unknown epoch %q", in.Epoch))
	}
	if !astro.LegalFramePair(out.frame, out.epoch) {
		return nil, errInputInvalid.
			withDetail(fmt.Sprintf("frame %q cannot be combined with epoch %q", out.frame, out.epoch)).
			withTip("Legal pairs: (ecliptic_of_date, of_date) and (equatorial, J2000).")
	}

	// Bodies: at least one, all known, duplicates collapsed but order kept.
	if len(in.Bodies) == 0 {
		return nil, errInputMissing.withDetail("bodies must name at least one celestial body")
	}
	seen := make(map[astro.Body]bool, len(in.Bodies))
	for _, name := range in.Bodies {
		b, err := astro.ParseBody(name)
		if err != nil {
			return nil, errBodiesUnsupported.
				withDetail(fmt.Sprintf("unknown body %q", name)).
				withTip(fmt.Sprintf("Supported bodies: %s.", joinBodies(astro.All())))
		}
		if !seen[b] {
			seen[b] = true
			out.bodies = append(out.bodies, b)
		}
	}

	// Parity profile.
	profile, err := timeres.ParseProfile(in.ParityProfile)
	if err != nil {
		return nil, errInputInvalid.withDetail(err.Error())
	}
	if profile == "" {
		profile = defaultProfile
	}
	out.profile = profile

	// The when block: exactly one input path.
	hasUTC := strings.TrimSpace(in.When.UTC) != ""
	hasLocal := strings.TrimSpace(in.When.LocalDatetime) != ""
	switch {
	case hasUTC && hasLocal:
		return nil, errInputInvalid.withDetail("when accepts either utc or local_datetime, not both")
	case hasUTC:
		t, err := parseUTC(in.When.UTC)
		if err != nil {
			return nil, errInputInvalid.withDetail(err.Error()).
				withTip("utc must be ISO 8601 with a Z or offset designator, e.g. 1962-07-03T04:33:00Z.")
		}
		out.utc = t
	case hasLocal:
		if in.When.Place == nil {
			return nil, errInputMissing.withDetail("local_datetime requires when.place with lat and lon")
		}
		if perr := validatePlace(in.When.Place); perr != nil {
			return nil, perr
		}
		out.place = in.When.Place
		out.elevation = in.When.Place.Elevation
		out.local = &timeres.Input{
			LocalDatetime: in.When.LocalDatetime,
			Lat:           in.When.Place.Lat,
			Lon:           in.When.Place.Lon,
			Profile:       profile,
			UserZone:      in.When.UserZone,
			UserOffsetSec: in.When.UserOffsetSec,
			UserAssumeDST: in.When.UserAssumeDST,
		}
	default:
		return nil, errInputMissing.withDetail("when requires utc or local_datetime")
	}

	return out, nil
}

func validatePlace(p *Place) *Error {
	if p.Lat < -90 || p.Lat > 90 {
		return errInputInvalid.withDetail(fmt.Sprintf("lat %v outside [-90, 90]", p.Lat))
	}
	if p.Lon < -180 || p.Lon > 180 {
		return errInputInvalid.withDetail(fmt.Sprintf("lon %v outside [-180, 180]", p.Lon))
	}
	return nil
}

// parseUTC accepts ISO 8601 instants with an explicit designator and
// normalizes them to UTC.
func parseUTC(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse utc instant %q", s)
}

func joinBodies(bs []astro.Body) string {
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}
