// Package comp locates a composition inside the comps payload and reshapes it
// into the agent-facing record.
package comp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/pkg/logger"
)

const stageExtract = "extract"

// Extractor picks one composition out of results.data.cluster_details
type Extractor struct {
	logger *logger.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{logger: log.WithField("stage", stageExtract)}
}

// Extract decodes and returns the record for compID.
// A missing key along the path is KindSchema, a missing id is KindNotFound and
// a target record of the wrong shape is KindInvalidRecord.
func (e *Extractor) Extract(resp *contracts.CompsResponse, compID string) (*contracts.CompositionRecord, error) {
	if resp == nil || resp.Results == nil {
		return nil, e.schemaFailure("results")
	}
	if resp.Results.Data == nil {
		return nil, e.schemaFailure("data")
	}
	if resp.Results.Data.ClusterDetails == nil {
		return nil, e.schemaFailure("cluster_details")
	}

	raw, ok := resp.Results.Data.ClusterDetails[compID]
	if !ok || isNull(raw) {
		e.logger.WithField("comp_id", compID).Warnf("Comp %s not found", compID)
		return nil, contracts.NewFailure(stageExtract, contracts.KindNotFound,
			fmt.Sprintf("comp %s not found", compID), nil)
	}

	// Only the requested record is decoded; other clusters are never inspected
	var record contracts.CompositionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		e.logger.WithError(err).WithField("comp_id", compID).Errorf("Comp %s has an unexpected shape", compID)
		return nil, contracts.NewFailure(stageExtract, contracts.KindInvalidRecord,
			fmt.Sprintf("comp %s has an unexpected shape", compID), err)
	}

	e.logger.WithField("comp_id", compID).Infof("Found comp %s", compID)
	return &record, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (e *Extractor) schemaFailure(key string) *contracts.Failure {
	e.logger.WithField("missing_key", key).Errorf("Data structure error: missing %q", key)
	return contracts.NewFailure(stageExtract, contracts.KindSchema,
		fmt.Sprintf("missing key %q", key), nil)
}
