// Package ayanamsha computes sidereal offsets. An ayanamsha is the angular
// difference between the tropical and sidereal zodiacs for a given instant;
// sidereal longitudes are tropical longitudes minus the offset, normalized to
// [0, 360).
//
// Systems come in two kinds: formula systems evaluate a named polynomial in
// Julian centuries from J2000, fixed systems carry a constant. The registry is
// loaded once at startup (from YAML, or a built-in default set) and is
// immutable thereafter.
package ayanamsha

import (
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/involution-sh/involution/astro"
)

// Kind discriminates the two record variants.
type Kind string

const (
	KindFormula Kind = "formula"
	KindFixed   Kind = "fixed"
)

// Record is one named ayanamsha system.
type Record struct {
	ID   string
	Kind Kind
	// Formula names the coefficient set for formula records.
	Formula string
	// ValueDeg is the constant offset for fixed records.
	ValueDeg float64
}

// generalPrecession accumulates ecliptic precession from J2000: 5029.0966
// arcsec per Julian century plus the small secular term, in degrees.
func generalPrecession(T float64) float64 {
	return (5029.0966*T + 1.11113*T*T) / 3600.0
}

// formulas is the closed set of formula coefficient tables, each giving the
// offset at J2000; all drift at the general precession rate.
var formulas = map[string]float64{
	"lahiri":        23.85236,
	"fagan_bradley": 24.73629,
	"krishnamurti":  23.75702,
	"raman":         22.46030,
	"yukteshwar":    22.72699,
}

// OffsetDeg evaluates the record at a Julian day. Fixed records ignore the
// instant entirely.
func (r *Record) OffsetDeg(jd float64) float64 {
	if r.Kind == KindFixed {
		return r.ValueDeg
	}
	base := formulas[r.Formula]
	return base + generalPrecession(astro.JulianCenturies(jd))
}

// Apply converts a tropical ecliptic longitude to sidereal.
func Apply(tropicalLonDeg, offsetDeg float64) float64 {
	return astro.Norm360(tropicalLonDeg - offsetDeg)
}

// ErrUnsupported wraps unknown-id failures; the message carries the supported
// identifiers so error payloads can surface them directly.
var ErrUnsupported = errors.New("unsupported ayanamsha")

// Registry is an ordered, case-insensitive set of systems. Immutable after
// construction; safe for concurrent use.
type Registry struct {
	order   []string
	records map[string]*Record
}

// Default returns the built-in registry.
func Default() *Registry {
	r := &Registry{records: make(map[string]*Record)}
	for _, rec := range []*Record{
		{ID: "lahiri", Kind: KindFormula, Formula: "lahiri"},
		{ID: "fagan_bradley", Kind: KindFormula, Formula: "fagan_bradley"},
		{ID: "fagan_bradley_fixed", Kind: KindFixed, ValueDeg: 24.73629},
		{ID: "krishnamurti", Kind: KindFormula, Formula: "krishnamurti"},
		{ID: "raman", Kind: KindFormula, Formula: "raman"},
		{ID: "yukteshwar", Kind: KindFormula, Formula: "yukteshwar"},
	} {
		r.add(rec)
	}
	return r
}

func (r *Registry) add(rec *Record) {
	r.order = append(r.order, rec.ID)
	r.records[rec.ID] = rec
}

// registryEntry is the YAML shape of one record in a registry file.
type registryEntry struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	Parameters struct {
		Formula  string   `json:"formula"`
		ValueDeg *float64 `json:"value_deg"`
	} `json:"parameters"`
}

// Load reads a registry file. The file fully defines the registry; defaults
// apply only when no file is configured.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read ayanamsha registry")
	}
	var entries []registryEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrapf(err, "could not parse ayanamsha registry %s", path)
	}
	if len(entries) == 0 {
		return nil, errors.Errorf("ayanamsha registry %s defines no systems", path)
	}

	r := &Registry{records: make(map[string]*Record, len(entries))}
	for _, e := range entries {
		id := strings.ToLower(strings.TrimSpace(e.ID))
		if id == "" {
			return nil, errors.New("ayanamsha record with empty id")
		}
		if _, dup := r.records[id]; dup {
			return nil, errors.Errorf("duplicate ayanamsha id %q", id)
		}
		rec := &Record{ID: id, Kind: e.Kind}
		switch e.Kind {
		case KindFormula:
			if _, known := formulas[e.Parameters.Formula]; !known {
				return nil, errors.Errorf("ayanamsha %q: unknown formula %q", id, e.Parameters.Formula)
			}
			rec.Formula = e.Parameters.Formula
		case KindFixed:
			if e.Parameters.ValueDeg == nil {
				return nil, errors.Errorf("ayanamsha %q: fixed record requires value_deg", id)
			}
			rec.ValueDeg = *e.Parameters.ValueDeg
		default:
			return nil, errors.Errorf("ayanamsha %q: unknown kind %q", id, e.Kind)
		}
		r.add(rec)
	}
	return r, nil
}

// Resolve finds a record by identifier, case-insensitively.
func (r *Registry) Resolve(id string) (*Record, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if rec, ok := r.records[key]; ok {
		return rec, nil
	}
	return nil, errors.Wrapf(ErrUnsupported, "%q (supported: %s)", id, strings.Join(r.IDs(), ", "))
}

// IDs returns the registered identifiers in registry order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// List returns every record in registry order.
func (r *Registry) List() []*Record {
	out := make([]*Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id])
	}
	return out
}
