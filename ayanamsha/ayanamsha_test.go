package ayanamsha

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/involution-sh/involution/astro"
)

const (
	j2000    = 2451545.0
	yearDays = 365.25
)

func TestFixedRecordConstantEverywhere(t *testing.T) {
	reg := Default()
	rec, err := reg.Resolve("fagan_bradley_fixed")
	require.NoError(t, err)

	for _, jd := range []float64{j2000 - 100*yearDays, j2000, j2000 + 500*yearDays} {
		assert.Equal(t, 24.73629, rec.OffsetDeg(jd), "jd %v", jd)
	}
}

func TestFormulaRecordDriftRate(t *testing.T) {
	reg := Default()
	for _, id := range []string{"lahiri", "fagan_bradley", "krishnamurti", "raman", "yukteshwar"} {
		rec, err := reg.Resolve(id)
		require.NoError(t, err)

		// Precession accumulates roughly 50 arcsec per year; over a decade
		// the offset grows by a small but strictly positive amount.
		perYear := (rec.OffsetDeg(j2000+10*yearDays) - rec.OffsetDeg(j2000)) / 10
		assert.Greater(t, perYear, 0.010, id)
		assert.Less(t, perYear, 0.020, id)
	}
}

func TestLahiriAtJ2000(t *testing.T) {
	rec, err := Default().Resolve("lahiri")
	require.NoError(t, err)
	assert.InDelta(t, 23.85236, rec.OffsetDeg(j2000), 1e-9)
}

func TestApplyWrapsIntoRange(t *testing.T) {
	assert.InDelta(t, 336.14764, Apply(0, 23.85236), 1e-9)
	assert.InDelta(t, 100.0, Apply(123.5, 23.5), 1e-9)

	// Round trip through astro.Norm360.
	sid := Apply(359.9, 24.0)
	assert.InDelta(t, 359.9, astro.Norm360(sid+24.0), 1e-9)
}

func TestResolveCaseInsensitive(t *testing.T) {
	reg := Default()
	for _, id := range []string{"lahiri", "LAHIRI", " Lahiri "} {
		rec, err := reg.Resolve(id)
		require.NoError(t, err, id)
		assert.Equal(t, "lahiri", rec.ID)
	}
}

func TestResolveUnsupportedListsIDs(t *testing.T) {
	_, err := Default().Resolve("sassanian")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), "lahiri")
	assert.Contains(t, err.Error(), "fagan_bradley")
}

func TestDefaultOrderStable(t *testing.T) {
	assert.Equal(t, []string{
		"lahiri", "fagan_bradley", "fagan_bradley_fixed",
		"krishnamurti", "raman", "yukteshwar",
	}, Default().IDs())
	assert.Len(t, Default().List(), 6)
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ayanamshas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: lahiri
  kind: formula
  parameters:
    formula: lahiri
- id: galactic_fixed
  kind: fixed
  parameters:
    value_deg: 26.95
`), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lahiri", "galactic_fixed"}, reg.IDs())

	rec, err := reg.Resolve("galactic_fixed")
	require.NoError(t, err)
	assert.Equal(t, 26.95, rec.OffsetDeg(j2000))

	// The file fully defines the registry: builtin ids not listed are gone.
	_, err = reg.Resolve("raman")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestLoadRegistryRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"unknown formula": `[{"id": "x", "kind": "formula", "parameters": {"formula": "nope"}}]`,
		"fixed no value":  `[{"id": "x", "kind": "fixed", "parameters": {}}]`,
		"unknown kind":    `[{"id": "x", "kind": "tabular", "parameters": {}}]`,
		"empty id":        `[{"id": "", "kind": "fixed", "parameters": {"value_deg": 1}}]`,
		"duplicate id":    `[{"id": "a", "kind": "fixed", "parameters": {"value_deg": 1}}, {"id": "A", "kind": "fixed", "parameters": {"value_deg": 2}}]`,
		"empty list":      `[]`,
	}
	dir := t.TempDir()
	for name, raw := range cases {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}
