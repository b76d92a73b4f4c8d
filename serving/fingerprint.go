package serving

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/involution-sh/involution/astro"
)

// fingerprint canonicalizes the request tuple and hashes it to a 16-hex
// digest. The digest is both the cache key and the response ETag. Body order
// is irrelevant: the canonical form sorts the deduplicated set, so requests
// differing only in body order share a fingerprint.
func fingerprint(utc time.Time, system astro.ZodiacSystem, ayanID string, frame astro.Frame, epoch astro.Epoch, bodies []astro.Body) string {
	names := make([]string, len(bodies))
	for i, b := range bodies {
		names[i] = string(b)
	}
	sort.Strings(names)

	if ayanID == "" {
		ayanID = "null"
	}
	canonical := strings.Join([]string{
		utc.UTC().Format(time.RFC3339),
		string(system),
		ayanID,
		string(frame),
		string(epoch),
		strings.Join(names, ","),
	}, "|")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}
