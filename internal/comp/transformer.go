package comp

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/pkg/logger"
)

const (
	stageTransform = "transform"

	unitSeparator = ", "

	defaultDifficulty = "Unknown"
	defaultLevelling  = "Standard"
)

// Transformer converts a raw composition into a NormalizedRecord
type Transformer struct {
	strategy contracts.Strategy
	logger   *logger.Logger
}

// NewTransformer creates a transformer for one strategy
func NewTransformer(strategy contracts.Strategy, log *logger.Logger) *Transformer {
	return &Transformer{
		strategy: strategy,
		logger:   log.WithField("stage", stageTransform),
	}
}

// Transform reshapes rec. Required fields are checked for presence only and
// reported as KindInvalidRecord; difficulty and levelling fall back to defaults.
// Cluster is copied through unchanged, keeping its JSON type.
func (t *Transformer) Transform(rec *contracts.CompositionRecord) (*contracts.NormalizedRecord, error) {
	if err := validateRecord(rec); err != nil {
		t.logger.WithError(err).Error("Composition record is incomplete")
		return nil, err
	}

	units := make([]string, 0)
	for _, unit := range strings.Split(*rec.UnitsString, unitSeparator) {
		units = append(units, t.cleanUnit(unit))
	}

	// Later entries for the same unit overwrite earlier ones (last write wins)
	itemBuilds := make(map[string]contracts.ItemBuild, len(rec.Builds))
	for _, build := range rec.Builds {
		items := make([]string, 0, len(build.BuildName))
		for _, item := range build.BuildName {
			items = append(items, t.cleanItem(item))
		}

		itemBuilds[t.cleanUnit(build.Unit)] = contracts.ItemBuild{
			Items:        items,
			AvgPlacement: build.Avg,
			PlaceChange:  build.PlaceChange,
			SampleSize:   build.Count,
		}
	}

	record := &contracts.NormalizedRecord{
		CompID:    rec.Cluster,
		CompName:  t.strategy.Name,
		Units:     units,
		MainCarry: t.strategy.MainCarry,
		Performance: contracts.Performance{
			AvgPlacement:      rec.Overall.Avg,
			SampleSize:        rec.Overall.Count,
			EstimatedTop4Rate: EstimatedTop4Rate(rec.Overall.Avg),
		},
		ItemBuilds: itemBuilds,
		StrategyNotes: contracts.StrategyNotes{
			Difficulty: stringOr(rec.Difficulty, defaultDifficulty),
			Levelling:  stringOr(rec.Levelling, defaultLevelling),
		},
	}

	t.logger.WithFields(map[string]interface{}{
		"comp_id": record.CompID.String(),
		"units":   len(record.Units),
		"builds":  len(record.ItemBuilds),
	}).Info("Parsed successfully")

	return record, nil
}

// EstimatedTop4Rate maps an average placement linearly onto 1 → 100% and 8 → 0%,
// rounded to one decimal place.
func EstimatedTop4Rate(avgPlacement float64) float64 {
	rate := (8 - avgPlacement) / 7 * 100
	return math.Round(rate*10) / 10
}

func (t *Transformer) cleanUnit(name string) string {
	return strings.TrimPrefix(name, t.strategy.UnitPrefix)
}

func (t *Transformer) cleanItem(name string) string {
	return strings.TrimPrefix(name, t.strategy.ItemPrefix)
}

func validateRecord(rec *contracts.CompositionRecord) error {
	var missing []string

	switch {
	case rec == nil:
		missing = append(missing, "record")
	default:
		if !rec.Cluster.IsSet() {
			missing = append(missing, "Cluster")
		}
		if rec.UnitsString == nil {
			missing = append(missing, "units_string")
		}
		if rec.Overall == nil {
			missing = append(missing, "overall")
		}
		if rec.Builds == nil {
			missing = append(missing, "builds")
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return contracts.NewFailure(stageTransform, contracts.KindInvalidRecord,
		fmt.Sprintf("missing required field(s): %s", strings.Join(missing, ", ")), nil)
}

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
