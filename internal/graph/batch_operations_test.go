package graph

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/actorgraph/internal/batch"
)

func appliedRecord(idx ...int64) []*neo4j.Record {
	list := make([]any, len(idx))
	for i, v := range idx {
		list[i] = v
	}
	return []*neo4j.Record{{Keys: []string{"applied"}, Values: []any{list}}}
}

func TestChunkResult(t *testing.T) {
	tests := []struct {
		name        string
		applied     []int64
		submitted   int
		wantApplied int
		wantMissing []int
	}{
		{name: "all applied", applied: []int64{0, 1, 2}, submitted: 3, wantApplied: 3},
		{name: "middle missing", applied: []int64{0, 2}, submitted: 3, wantApplied: 2, wantMissing: []int{1}},
		{name: "none applied", applied: nil, submitted: 2, wantApplied: 0, wantMissing: []int{0, 1}},
		{name: "duplicates counted once", applied: []int64{1, 1, 0}, submitted: 2, wantApplied: 2},
		{name: "out of range ignored", applied: []int64{0, 7}, submitted: 2, wantApplied: 1, wantMissing: []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := chunkResult(appliedRecord(tt.applied...), tt.submitted)
			require.NoError(t, err)
			assert.Equal(t, tt.submitted, res.Submitted)
			assert.Equal(t, tt.wantApplied, res.Applied)
			assert.Equal(t, tt.wantMissing, res.Missing)
			assert.Equal(t, tt.submitted-tt.wantApplied, res.Skipped())
		})
	}
}

func TestChunkResult_NoRecord(t *testing.T) {
	_, err := chunkResult(nil, 3)
	assert.Error(t, err)
}

func TestBatchResult_Add(t *testing.T) {
	var total BatchResult
	total.Add(BatchResult{Submitted: 3, Applied: 2, Missing: []int{1}}, 0)
	total.Add(BatchResult{Submitted: 3, Applied: 1, Missing: []int{0, 2}}, 3)

	assert.Equal(t, 6, total.Submitted)
	assert.Equal(t, 3, total.Applied)
	assert.Equal(t, []int{1, 3, 5}, total.Missing)
}

func TestBatchConfig(t *testing.T) {
	bc := DefaultBatchConfig()
	assert.Equal(t, bc.ProductionBatchSize, bc.GetBatchSizeForKind(batch.KindSeries))
	assert.Equal(t, bc.ActorBatchSize, bc.GetBatchSizeForKind(batch.KindActor))
	assert.Equal(t, bc.CreditBatchSize, bc.GetBatchSizeForKind(batch.KindCredit))
	assert.Equal(t, bc.EpisodeLinkBatchSize, bc.GetBatchSizeForKind(batch.KindEpisodeLink))

	partial := BatchConfig{CreditBatchSize: 42}.WithDefaults()
	assert.Equal(t, 42, partial.CreditBatchSize)
	assert.Equal(t, bc.ActorBatchSize, partial.ActorBatchSize)
}

func TestOptionalParams(t *testing.T) {
	var none *int64
	year := int64(1999)
	assert.Nil(t, optInt(none))
	assert.Equal(t, int64(1999), optInt(&year))

	var noRoles *string
	roles := "Neo"
	assert.Nil(t, optString(noRoles))
	assert.Equal(t, "Neo", optString(&roles))
}
