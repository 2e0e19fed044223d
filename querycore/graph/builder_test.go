package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSingleStageScan covers the graph side of spec §8 Scenario 1: one
// transaction, one stage whose only input is a ReadRangesSource(table="T"),
// and no sink; it expects exactly one task with one Source input.
func TestSingleStageScan(t *testing.T) {
	txs := []PhyTx{{
		Stages: []PhyStage{
			{
				Guid: "stage-0",
				Inputs: []PhyInput{
					{Source: &PhySource{Kind: SourceReadRanges, TableID: "T"}},
				},
				TaskCount: 1,
			},
		},
	}}

	b := NewBuilder(BuildOptions{})
	g, err := b.Build(txs)
	require.NoError(t, err)

	tasks := g.Tasks()
	require.Len(t, tasks, 1)
	require.Len(t, tasks[0].Inputs, 1)
	require.Equal(t, InputSource, tasks[0].Inputs[0].Kind)
}

// TestHashShuffleTwoStages covers spec §8 Scenario 2: S0 -> S1 HashShuffle,
// |S0.tasks|=3, |S1.tasks|=2; expect 6 channels, correct stage ids, and each
// S1 task sees 3 inbound channels on input 0.
func TestHashShuffleTwoStages(t *testing.T) {
	txs := []PhyTx{{
		Stages: []PhyStage{
			{
				Guid:      "S0",
				Inputs:    []PhyInput{{Source: &PhySource{Kind: SourceReadRanges, TableID: "T"}}},
				TaskCount: 3,
			},
			{
				Guid: "S1",
				Inputs: []PhyInput{{Connection: &PhyConnection{
					Kind:          ConnHashShuffle,
					SrcStageIndex: 0,
					HashKeys:      []string{"k"},
					HashKind:      HashV1,
				}}},
				TaskCount: 2,
			},
		},
	}}

	b := NewBuilder(BuildOptions{})
	g, err := b.Build(txs)
	require.NoError(t, err)
	require.Len(t, g.Channels(), 6)

	s0 := StageId{TxIndex: 0, StageIndex: 0}
	s1 := StageId{TxIndex: 0, StageIndex: 1}
	for _, c := range g.Channels() {
		require.Equal(t, s0, c.SrcStage)
		require.Equal(t, s1, c.DstStage)
	}
	for _, task := range g.StageTasks(s1) {
		require.Len(t, task.Inputs[0].Channels, 3)
	}
}

func TestStageReadsXorWritesInvariant(t *testing.T) {
	txs := []PhyTx{{
		Stages: []PhyStage{
			{
				Guid: "bad",
				Inputs: []PhyInput{
					{Source: &PhySource{Kind: SourceReadRanges, TableID: "T"}},
				},
				Sinks:     []PhySink{{Mode: SinkModeUpsert}},
				TaskCount: 1,
			},
		},
	}}
	_, err := NewBuilder(BuildOptions{}).Build(txs)
	require.Error(t, err)
}

func TestHashShuffleColumnShardV1ArityMismatch(t *testing.T) {
	txs := []PhyTx{{
		Stages: []PhyStage{
			{Guid: "S0", Inputs: []PhyInput{{Source: &PhySource{Kind: SourceReadRanges, TableID: "T"}}}, TaskCount: 1},
			{
				Guid: "S1",
				Inputs: []PhyInput{{Connection: &PhyConnection{
					Kind:            ConnHashShuffle,
					SrcStageIndex:   0,
					HashKeys:        []string{"a", "b"},
					HashKind:        HashColumnShardV1,
					HashColumnTypes: []KeyType{KeyTypeInt64},
				}}},
				TaskCount: 1,
			},
		},
	}}
	_, err := NewBuilder(BuildOptions{}).Build(txs)
	require.Error(t, err)
}

func TestMapRequiresEqualTaskCounts(t *testing.T) {
	txs := []PhyTx{{
		Stages: []PhyStage{
			{Guid: "S0", Inputs: []PhyInput{{Source: &PhySource{Kind: SourceReadRanges, TableID: "T"}}}, TaskCount: 2},
			{
				Guid:      "S1",
				Inputs:    []PhyInput{{Connection: &PhyConnection{Kind: ConnMap, SrcStageIndex: 0}}},
				TaskCount: 3,
			},
		},
	}}
	_, err := NewBuilder(BuildOptions{}).Build(txs)
	require.Error(t, err)
}

// TestChannelInMemoryWhenSingleUpstreamOutput covers spec §8 boundary
// behavior: a channel whose upstream stage outputs count == 1 is always
// in_memory = true, even with spilling enabled.
func TestChannelInMemoryWhenSingleUpstreamOutput(t *testing.T) {
	txs := []PhyTx{{
		Stages: []PhyStage{
			{Guid: "S0", Inputs: []PhyInput{{Source: &PhySource{Kind: SourceReadRanges, TableID: "T"}}}, TaskCount: 1},
			{
				Guid:      "S1",
				Inputs:    []PhyInput{{Connection: &PhyConnection{Kind: ConnMap, SrcStageIndex: 0}}},
				TaskCount: 1,
			},
		},
	}}
	g, err := NewBuilder(BuildOptions{EnableSpilling: true}).Build(txs)
	require.NoError(t, err)
	for _, c := range g.Channels() {
		require.True(t, c.InMemory)
	}
}
