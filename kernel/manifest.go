package kernel

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ManifestName is the expected-hash manifest accompanying a bundle directory.
const ManifestName = "manifest.json"

// TagWindow attributes a bundle tag to a span of Julian days. Bundles built
// from mixed sources use this to report which underlying series covers a
// given instant.
type TagWindow struct {
	Tag     string  `json:"tag"`
	StartJD float64 `json:"start_jd"`
	EndJD   float64 `json:"end_jd"`
}

// Manifest lists every kernel file in a bundle with its expected SHA-256.
type Manifest struct {
	Files map[string]string `json:"files"`
	Tags  []TagWindow       `json:"tags,omitempty"`
}

// LoadManifest reads and decodes the manifest of a bundle directory.
func LoadManifest(bundleDir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(bundleDir, ManifestName))
	if err != nil {
		return nil, errors.Wrap(err, "could not read bundle manifest")
	}
	m := &Manifest{}
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, errors.Wrap(err, "could not parse bundle manifest")
	}
	if len(m.Files) == 0 {
		return nil, errors.New("bundle manifest lists no files")
	}
	return m, nil
}

// WriteManifest hashes the listed files under bundleDir and writes the
// resulting manifest. Bundle tooling and test fixtures use this.
func WriteManifest(bundleDir string, files []string, tags []TagWindow) error {
	m := Manifest{Files: make(map[string]string, len(files)), Tags: tags}
	for _, rel := range files {
		sum, err := FileChecksum(filepath.Join(bundleDir, rel))
		if err != nil {
			return err
		}
		m.Files[rel] = sum
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(bundleDir, ManifestName), raw, 0o644)
}

// FileChecksum returns the lowercase hex SHA-256 of a file.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "could not open %s", path)
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "could not hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// sortedFiles returns the manifest file names in deterministic order so that
// verification failures are reported stably.
func (m *Manifest) sortedFiles() []string {
	names := make([]string, 0, len(m.Files))
	for name := range m.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
