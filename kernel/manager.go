// Package kernel manages ephemeris kernel bundles: locating a named bundle on
// disk, verifying every file against its expected-hash manifest, and exposing
// per-body coverage windows plus the bundle-tag policy. Initialization happens
// exactly once per process; a bundle change requires a restart.
package kernel

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/involution-sh/involution/astro"
	"github.com/involution-sh/involution/ephemeris"
)

var log = logrus.WithField("prefix", "kernel")

var kernelVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "involution_kernel_verifications_total",
	Help: "Kernel file checksum verifications, partitioned by outcome.",
}, []string{"valid"})

// VerificationError identifies the file that failed manifest verification.
type VerificationError struct {
	File   string
	Reason string
}

func (e *VerificationError) Error() string {
	return "kernel verification failed for " + e.File + ": " + e.Reason
}

// Manager owns the verified bundle. Read-only after Initialize.
type Manager struct {
	once sync.Once

	bundleName string
	dir        string
	manifest   *Manifest
	coverage   map[astro.Body]ephemeris.Coverage
	checksums  map[string]bool
	initErr    error
}

// NewManager creates an uninitialized manager for a named bundle rooted under
// kernelsPath.
func NewManager(kernelsPath, bundleName string) *Manager {
	return &Manager{
		bundleName: bundleName,
		dir:        filepath.Join(kernelsPath, bundleName),
		coverage:   make(map[astro.Body]ephemeris.Coverage),
		checksums:  make(map[string]bool),
	}
}

// Initialize verifies the bundle and records per-body coverage. Checksum
// verification is mandatory; any mismatch or missing file fails the process
// startup. Safe to call more than once; only the first call does work.
func (m *Manager) Initialize() error {
	m.once.Do(func() { m.initErr = m.initialize() })
	return m.initErr
}

func (m *Manager) initialize() error {
	if _, err := os.Stat(m.dir); err != nil {
		return errors.Wrapf(err, "kernel bundle %q not found under %s", m.bundleName, filepath.Dir(m.dir))
	}
	manifest, err := LoadManifest(m.dir)
	if err != nil {
		return err
	}
	m.manifest = manifest

	for _, name := range manifest.sortedFiles() {
		want := manifest.Files[name]
		got, err := FileChecksum(filepath.Join(m.dir, name))
		if err != nil {
			kernelVerifications.WithLabelValues("false").Inc()
			m.checksums[name] = false
			return &VerificationError{File: name, Reason: "missing or unreadable"}
		}
		if got != want {
			kernelVerifications.WithLabelValues("false").Inc()
			m.checksums[name] = false
			return &VerificationError{File: name, Reason: "checksum mismatch"}
		}
		kernelVerifications.WithLabelValues("true").Inc()
		m.checksums[name] = true
	}

	// Probe the bundle once to record coverage windows. Workers open their
	// own engines afterwards.
	probe, err := ephemeris.Open(m.dir)
	if err != nil {
		return errors.Wrap(err, "bundle verified but failed to load")
	}
	defer probe.Close()
	for _, id := range probe.BodyIDs() {
		body, ok := astro.FromID(id)
		if !ok {
			log.WithField("bodyID", id).Warn("Bundle carries a series for an unsupported body, ignoring")
			continue
		}
		cov, _ := probe.Coverage(id)
		m.coverage[body] = cov
	}

	log.WithFields(logrus.Fields{
		"bundle": m.bundleName,
		"files":  len(manifest.Files),
		"bodies": len(m.coverage),
	}).Info("Kernel bundle verified and loaded")
	return nil
}

// BundleName returns the configured bundle name.
func (m *Manager) BundleName() string {
	return m.bundleName
}

// Dir returns the bundle directory workers open their engines from.
func (m *Manager) Dir() string {
	return m.dir
}

// Coverage returns the covered span for a body, if the bundle carries it.
func (m *Manager) Coverage(body astro.Body) (ephemeris.Coverage, bool) {
	cov, ok := m.coverage[body]
	return cov, ok
}

// Covers reports whether jd lies inside the coverage of every listed body.
func (m *Manager) Covers(jd float64, bodies []astro.Body) bool {
	for _, b := range bodies {
		cov, ok := m.coverage[b]
		if !ok || jd < cov.StartJD || jd > cov.EndJD {
			return false
		}
	}
	return true
}

// Policy attributes a bundle tag to an instant. Manifests may subdivide their
// span into tag windows (short-range high-precision vs long-range series);
// instants outside every window fall back to the bundle name.
func (m *Manager) Policy(jd float64) string {
	if m.manifest != nil {
		for _, w := range m.manifest.Tags {
			if jd >= w.StartJD && jd <= w.EndJD {
				return w.Tag
			}
		}
	}
	return m.bundleName
}

// ChecksumReport returns per-file verification outcomes for health reporting.
func (m *Manager) ChecksumReport() map[string]bool {
	out := make(map[string]bool, len(m.checksums))
	for k, v := range m.checksums {
		out[k] = v
	}
	return out
}
