package serving

import (
	"github.com/involution-sh/involution/timeres"
)

// BodyPosition is one computed body in a positions response. Longitude is
// ecliptic (sidereal-adjusted when requested); ra_hours and dec_deg appear
// only under the equatorial frame.
type BodyPosition struct {
	Body           string   `json:"body"`
	LongitudeDeg   float64  `json:"longitude_deg"`
	LatitudeDeg    float64  `json:"latitude_deg"`
	DistanceAU     *float64 `json:"distance_au,omitempty"`
	SpeedDegPerDay *float64 `json:"speed_deg_per_day,omitempty"`
	RAHours        *float64 `json:"ra_hours,omitempty"`
	DecDeg         *float64 `json:"dec_deg,omitempty"`
	Sign           string   `json:"sign"`
	DegreeInSign   float64  `json:"degree_in_sign"`
	Degrees        int      `json:"degrees"`
	Minutes        int      `json:"minutes"`
	Seconds        int      `json:"seconds"`
	IsRetrograde   bool     `json:"is_retrograde"`
}

// AyanamshaProvenance records which sidereal offset was applied and its value
// at the computed instant.
type AyanamshaProvenance struct {
	ID       string  `json:"id"`
	ValueDeg float64 `json:"value_deg"`
}

// Provenance explains how the response was produced.
type Provenance struct {
	KernelBundleTag string               `json:"kernel_bundle_tag"`
	EphemerisTag    string               `json:"ephemeris_tag_for_instant"`
	Frame           string               `json:"frame"`
	Epoch           string               `json:"epoch"`
	Ayanamsha       *AyanamshaProvenance `json:"ayanamsha,omitempty"`
	TimeResolver    *timeres.Result      `json:"time_resolver,omitempty"`
	RuleSetVersion  string               `json:"rule_set_version"`
}

// PositionsResponse is the success payload of POST /v1/positions. Struct
// field order fixes the serialized byte layout, so identical fingerprints
// yield byte-identical bodies.
type PositionsResponse struct {
	UTC        string         `json:"utc"`
	Bodies     []BodyPosition `json:"bodies"`
	Provenance Provenance     `json:"provenance"`
	ETag       string         `json:"etag"`
}

// AyanamshaInfo is one entry of GET /v1/ayanamshas.
type AyanamshaInfo struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	CurrentValueDeg float64 `json:"current_value_deg"`
}

// Health is the GET /healthz payload.
type Health struct {
	Status          string          `json:"status"`
	KernelBundleTag string          `json:"kernel_bundle_tag"`
	KernelChecksums map[string]bool `json:"kernel_checksums"`
	WorkerPoolSize  int             `json:"worker_pool_size"`
	QueueDepth      int             `json:"queue_depth"`
	CacheEntries    int             `json:"cache_entries"`
	CacheHitRate    float64         `json:"cache_hit_rate"`
	L2Configured    bool            `json:"l2_configured"`
	L2Reachable     *bool           `json:"l2_reachable,omitempty"`
	RuleSetVersion  string          `json:"rule_set_version"`
	// Services maps each registered runtime service to "ok" or its failure.
	Services map[string]string `json:"services,omitempty"`
}
