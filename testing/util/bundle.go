// Package util provides shared test fixtures. The bundle generator fits a
// smooth reference model of geocentric motion into real kernel files so that
// compute-path tests exercise the exact binary format served in production.
package util

import (
	"math"
	"path/filepath"

	"github.com/involution-sh/involution/astro"
	"github.com/involution-sh/involution/ephemeris"
	"github.com/involution-sh/involution/kernel"
)

// Reference model parameters per body. Mean motions approximate real
// geocentric rates; oscillation amplitudes are tuned so that every planet
// exhibits retrograde intervals, as the real sky does.
type modelParams struct {
	lon0     float64 // longitude at J2000, degrees
	rate     float64 // mean motion, degrees/day
	lonAmp   float64 // longitude oscillation amplitude, degrees
	lonPer   float64 // oscillation period, days
	latAmp   float64 // latitude amplitude, degrees
	latPer   float64 // latitude period, days
	distBase float64 // mean geocentric distance, AU
	distAmp  float64 // distance amplitude, AU
}

var models = map[astro.Body]modelParams{
	astro.Sun:      {280.46, 0.9856474, 1.915, 365.25, 0, 365.25, 1.000, 0.0167},
	astro.Moon:     {218.32, 13.17640, 6.289, 27.554, 5.128, 27.212, 0.00257, 0.00014},
	astro.Mercury:  {281.18, 0.9856474, 23.0, 115.88, 4.2, 115.88, 1.04, 0.39},
	astro.Venus:    {260.88, 0.9856474, 95.0, 583.92, 6.1, 583.92, 1.14, 0.72},
	astro.Mars:     {355.45, 0.5240208, 35.0, 779.94, 1.5, 686.98, 1.82, 0.68},
	astro.Jupiter:  {34.35, 0.0830853, 11.0, 398.88, 1.1, 4332.6, 5.20, 0.54},
	astro.Saturn:   {50.08, 0.0334442, 6.5, 378.09, 2.3, 10759.2, 9.54, 1.01},
	astro.Uranus:   {314.05, 0.0117258, 2.8, 369.66, 0.7, 30685.4, 19.19, 1.00},
	astro.Neptune:  {304.35, 0.0059810, 1.9, 367.49, 1.6, 60190.0, 30.07, 1.00},
	astro.Pluto:    {238.96, 0.0039757, 1.7, 366.73, 15.6, 90560.0, 39.48, 1.00},
	astro.MeanNode: {125.0445479, -0.0529539, 0, 6798.4, 0, 6798.4, 0.00257, 0},
	astro.TrueNode: {125.0445479, -0.0529539, 1.5, 173.31, 0, 173.31, 0.00257, 0},
}

// ModelSeries returns the reference series the generated kernels are fitted
// from, letting tests compare interpolated output against ground truth.
func ModelSeries(b astro.Body) ephemeris.SeriesFunc {
	p := models[b]
	return func(jd float64) (lonDeg, latDeg, distAU float64) {
		d := jd - astro.J2000
		lon := p.lon0 + p.rate*d
		if p.lonAmp != 0 {
			lon += p.lonAmp * math.Sin(2*math.Pi*d/p.lonPer)
		}
		lat := p.latAmp * math.Sin(2*math.Pi*d/p.latPer)
		dist := p.distBase + p.distAmp*math.Cos(2*math.Pi*d/p.lonPer)
		return lon, lat, dist
	}
}

// BundleOpts controls generated bundle coverage.
type BundleOpts struct {
	StartJD  float64
	EndJD    float64
	StepDays float64
	NCoeff   int
	Tags     []kernel.TagWindow
	Bodies   []astro.Body
}

// DefaultBundleOpts covers 1900-2100 with a 16-day step, enough for every
// model component to interpolate well below an arcsecond.
func DefaultBundleOpts() BundleOpts {
	return BundleOpts{
		StartJD:  2415020.5, // 1900-01-01
		EndJD:    2488069.5, // 2100-01-01
		StepDays: 16,
		NCoeff:   14,
		Bodies:   astro.All(),
	}
}

// GenerateBundle writes a complete kernel bundle (kernels plus manifest)
// into dir.
func GenerateBundle(dir string, opts BundleOpts) error {
	if opts.NCoeff == 0 {
		opts.NCoeff = 14
	}
	if opts.StepDays == 0 {
		opts.StepDays = 16
	}
	if len(opts.Bodies) == 0 {
		opts.Bodies = astro.All()
	}
	files := make([]string, 0, len(opts.Bodies))
	for _, b := range opts.Bodies {
		name := kernelFileName(b)
		path := filepath.Join(dir, name)
		if err := ephemeris.WriteKernel(path, b.ID(), opts.StartJD, opts.EndJD, opts.StepDays, opts.NCoeff, ModelSeries(b)); err != nil {
			return err
		}
		files = append(files, name)
	}
	return kernel.WriteManifest(dir, files, opts.Tags)
}

func kernelFileName(b astro.Body) string {
	switch b {
	case astro.MeanNode:
		return "mean_node" + ephemeris.KernelExt
	case astro.TrueNode:
		return "true_node" + ephemeris.KernelExt
	default:
		return lower(string(b)) + ephemeris.KernelExt
	}
}

func lower(s string) string {
	out := []byte(s)
	for i := range out {
		if out[i] >= 'A' && out[i] <= 'Z' {
			out[i] += 'a' - 'A'
		}
	}
	return string(out)
}
