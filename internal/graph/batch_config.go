package graph

import "github.com/rohankatakam/actorgraph/internal/batch"

// BatchConfig holds UNWIND chunk sizes per batch kind. Each chunk is one
// write transaction.
//
// Node kinds carry few properties and tolerate large chunks. Relationship
// kinds do two index lookups per row, so they use smaller ones.
type BatchConfig struct {
	ProductionBatchSize  int // movies, episodes, series
	ActorBatchSize       int
	CreditBatchSize      int
	EpisodeLinkBatchSize int
}

// DefaultBatchConfig returns the chunk sizes used when nothing is configured
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		ProductionBatchSize:  1000,
		ActorBatchSize:       1000,
		CreditBatchSize:      500,
		EpisodeLinkBatchSize: 500,
	}
}

// SmallBatchConfig is for stores with little heap, such as a local
// test container
func SmallBatchConfig() BatchConfig {
	return BatchConfig{
		ProductionBatchSize:  200,
		ActorBatchSize:       200,
		CreditBatchSize:      100,
		EpisodeLinkBatchSize: 100,
	}
}

// WithDefaults replaces non-positive sizes with the defaults
func (bc BatchConfig) WithDefaults() BatchConfig {
	def := DefaultBatchConfig()
	if bc.ProductionBatchSize <= 0 {
		bc.ProductionBatchSize = def.ProductionBatchSize
	}
	if bc.ActorBatchSize <= 0 {
		bc.ActorBatchSize = def.ActorBatchSize
	}
	if bc.CreditBatchSize <= 0 {
		bc.CreditBatchSize = def.CreditBatchSize
	}
	if bc.EpisodeLinkBatchSize <= 0 {
		bc.EpisodeLinkBatchSize = def.EpisodeLinkBatchSize
	}
	return bc
}

// GetBatchSizeForKind returns the chunk size for a batch kind
func (bc BatchConfig) GetBatchSizeForKind(kind batch.Kind) int {
	switch kind {
	case batch.KindMovie, batch.KindEpisode, batch.KindSeries:
		return bc.ProductionBatchSize
	case batch.KindActor:
		return bc.ActorBatchSize
	case batch.KindCredit:
		return bc.CreditBatchSize
	case batch.KindEpisodeLink:
		return bc.EpisodeLinkBatchSize
	default:
		return 500
	}
}
