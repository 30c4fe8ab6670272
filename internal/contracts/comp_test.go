package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterID_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantStr string
		wantSet bool
		wantOut string
	}{
		{"number", `{"Cluster":381014}`, "381014", true, `381014`},
		{"string", `{"Cluster":"381014"}`, "381014", true, `"381014"`},
		{"empty string", `{"Cluster":""}`, "", true, `""`},
		{"null", `{"Cluster":null}`, "", true, `null`},
		{"missing", `{}`, "", false, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec CompositionRecord
			require.NoError(t, json.Unmarshal([]byte(tt.input), &rec))

			assert.Equal(t, tt.wantStr, rec.Cluster.String())
			assert.Equal(t, tt.wantSet, rec.Cluster.IsSet())

			out, err := json.Marshal(rec.Cluster)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, string(out))
		})
	}
}

func TestNormalizedRecord_CompIDKeepsNumber(t *testing.T) {
	rec := NormalizedRecord{CompID: NewClusterID("381014")}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"comp_id":381014,`)

	var decoded NormalizedRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, rec.CompID.Equal(decoded.CompID))
}

func TestCompsResponse_MissingLevelsDecodeToNil(t *testing.T) {
	var resp CompsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"results":{"data":{}}}`), &resp))

	require.NotNil(t, resp.Results)
	require.NotNil(t, resp.Results.Data)
	assert.Nil(t, resp.Results.Data.ClusterDetails)

	require.NoError(t, json.Unmarshal([]byte(`{"results":{"data":{"cluster_details":{}}}}`), &resp))
	assert.NotNil(t, resp.Results.Data.ClusterDetails)
	assert.Empty(t, resp.Results.Data.ClusterDetails)
}

func TestNormalizedRecord_FileStem(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Piltover T-Hex", "piltover_t-hex"},
		{"Star Guardian Xayah", "star_guardian_xayah"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rec := &NormalizedRecord{CompName: tt.name}
			assert.Equal(t, tt.want, rec.FileStem())
		})
	}
}

func TestNormalizedRecord_CarryBuild(t *testing.T) {
	rec := &NormalizedRecord{
		MainCarry:  "THex",
		ItemBuilds: map[string]ItemBuild{"THex": {Items: []string{"InfinityEdge"}}},
	}

	build, ok := rec.CarryBuild()
	assert.True(t, ok)
	assert.Equal(t, []string{"InfinityEdge"}, build.Items)

	rec.MainCarry = "Jinx"
	_, ok = rec.CarryBuild()
	assert.False(t, ok)
}

func TestFailure_Is(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	f := NewFailure("fetch", KindTransport, "request failed", cause)

	assert.ErrorIs(t, f, ErrTransport)
	assert.ErrorIs(t, f, cause)
	assert.NotErrorIs(t, f, ErrNotFound)

	wrapped := fmt.Errorf("pipeline: %w", f)
	got, ok := AsFailure(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindTransport, got.Kind)
	assert.Contains(t, f.Error(), "connection refused")

	notFound := NewFailure("extract", KindNotFound, "comp 1 not found", nil)
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.NotErrorIs(t, notFound, ErrSchema)
	assert.Equal(t, "extract: comp 1 not found", notFound.Error())
}
