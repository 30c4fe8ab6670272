package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/compsync/internal/contracts"
)

func sampleRecord() *contracts.NormalizedRecord {
	return &contracts.NormalizedRecord{
		CompID:    contracts.NewClusterID("381014"),
		CompName:  "Piltover T-Hex",
		Units:     []string{"Jinx", "Vi", "THex"},
		MainCarry: "THex",
		Performance: contracts.Performance{
			AvgPlacement:      4.4567,
			SampleSize:        1234567,
			EstimatedTop4Rate: 50.6,
		},
		ItemBuilds: map[string]contracts.ItemBuild{
			"THex": {Items: []string{"InfinityEdge", "LastWhisper", "GuinsoosRageblade"}},
		},
	}
}

func TestReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).Report(sampleRecord())

	want := strings.Join([]string{
		"COMP SUMMARY",
		"Comp: Piltover T-Hex",
		"Units: Jinx, Vi, THex",
		"Avg Placement: 4.46",
		"Sample Size: 1,234,567 games",
		"Estimated Top 4 Rate: 50.6%",
		"",
		"Main carry: THex",
		"Best items: InfinityEdge, LastWhisper, GuinsoosRageblade",
		"",
	}, "\n")

	assert.Equal(t, want, buf.String())
}

func TestReporter_OmitsItemsWithoutCarryBuild(t *testing.T) {
	rec := sampleRecord()
	rec.ItemBuilds = map[string]contracts.ItemBuild{
		"Jinx": {Items: []string{"InfinityEdge"}},
	}

	var buf bytes.Buffer
	NewReporter(&buf).Report(rec)

	out := buf.String()
	assert.NotContains(t, out, "Best items")
	assert.True(t, strings.HasSuffix(out, "Main carry: THex\n"))
}

func TestReporter_WholeNumberRate(t *testing.T) {
	rec := sampleRecord()
	rec.Performance.EstimatedTop4Rate = 50
	rec.Performance.SampleSize = 999

	var buf bytes.Buffer
	NewReporter(&buf).Report(rec)

	assert.Contains(t, buf.String(), "Estimated Top 4 Rate: 50.0%\n")
	assert.Contains(t, buf.String(), "Sample Size: 999 games\n")
}
