package contracts

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CompsResponse is the MetaTFT comps_data payload
// Each level is a pointer so a missing key decodes to nil instead of a zero value.
type CompsResponse struct {
	Results *CompsResults `json:"results"`
}

// CompsResults wraps the data block
type CompsResults struct {
	Data *CompsData `json:"data"`
}

// CompsData holds the per-cluster composition records keyed by cluster id.
// Records stay undecoded until the Extractor asks for one.
type CompsData struct {
	ClusterDetails map[string]json.RawMessage `json:"cluster_details"`
}

// CompositionRecord is one cluster as returned by the API (read-only)
type CompositionRecord struct {
	Cluster     ClusterID         `json:"Cluster"`
	UnitsString *string           `json:"units_string"`
	Overall     *OverallStats     `json:"overall"`
	Builds      []ItemBuildRecord `json:"builds"`
	Difficulty  *string           `json:"difficulty,omitempty"`
	Levelling   *string           `json:"levelling,omitempty"`
}

// OverallStats are the aggregate performance numbers of a cluster
type OverallStats struct {
	Avg   float64 `json:"avg"`
	Count int64   `json:"count"`
}

// ItemBuildRecord is one per-unit item build entry
type ItemBuildRecord struct {
	Unit        string   `json:"unit"`
	BuildName   []string `json:"buildName"`
	Avg         float64  `json:"avg"`
	PlaceChange float64  `json:"place_change"`
	Count       int64    `json:"count"`
}

// ClusterID is the Cluster value exactly as the API sent it.
// It is written back unchanged, so a numeric id stays a JSON number.
type ClusterID struct {
	raw json.RawMessage
}

// NewClusterID wraps a raw JSON value, e.g. `381014` or `"381014"`
func NewClusterID(raw string) ClusterID {
	return ClusterID{raw: json.RawMessage(raw)}
}

// UnmarshalJSON implements json.Unmarshaler
func (c *ClusterID) UnmarshalJSON(data []byte) error {
	c.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// MarshalJSON implements json.Marshaler
func (c ClusterID) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

// IsSet reports whether the key was present in the payload (null counts as present)
func (c ClusterID) IsSet() bool {
	return len(c.raw) > 0
}

// Equal compares the raw values
func (c ClusterID) Equal(other ClusterID) bool {
	return bytes.Equal(c.raw, other.raw)
}

// String returns the id as text for logs, keys and metric labels
func (c ClusterID) String() string {
	if len(c.raw) == 0 || bytes.Equal(c.raw, []byte("null")) {
		return ""
	}
	if c.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(c.raw, &s); err == nil {
			return s
		}
	}
	return string(c.raw)
}

// Strategy carries the composition-specific literals injected into the transformer
type Strategy struct {
	CompID     string
	Name       string
	MainCarry  string
	UnitPrefix string
	ItemPrefix string
}

// NormalizedRecord is the agent-facing composition record
// ⭐ SSOT: this is the only shape that is persisted
type NormalizedRecord struct {
	CompID        ClusterID            `json:"comp_id"`
	CompName      string               `json:"comp_name"`
	Units         []string             `json:"units"`
	MainCarry     string               `json:"main_carry"`
	Performance   Performance          `json:"performance"`
	ItemBuilds    map[string]ItemBuild `json:"item_builds"`
	StrategyNotes StrategyNotes        `json:"strategy_notes"`
}

// Performance is the aggregate performance block
type Performance struct {
	AvgPlacement      float64 `json:"avg_placement"`
	SampleSize        int64   `json:"sample_size"`
	EstimatedTop4Rate float64 `json:"estimated_top4_rate"`
}

// ItemBuild is a cleaned item build for one unit
type ItemBuild struct {
	Items        []string `json:"items"`
	AvgPlacement float64  `json:"avg_placement"`
	PlaceChange  float64  `json:"place_change"`
	SampleSize   int64    `json:"sample_size"`
}

// StrategyNotes holds free-text play notes
type StrategyNotes struct {
	Difficulty string `json:"difficulty"`
	Levelling  string `json:"levelling"`
}

// CarryBuild returns the item build of the main carry, if one was recorded
func (r *NormalizedRecord) CarryBuild() (ItemBuild, bool) {
	build, ok := r.ItemBuilds[r.MainCarry]
	return build, ok
}

// FileStem returns the record name lowercased with spaces replaced by underscores
func (r *NormalizedRecord) FileStem() string {
	name := r.CompName
	if name == "" {
		name = "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
