package planjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSingleStageScan covers spec §8 Scenario 1: plan JSON Node Type ==
// "TableFullScan" with ReadType "FullScan", and a simplified plan is
// produced.
func TestSingleStageScan(t *testing.T) {
	q := QueryIn{
		Type:   "query",
		Tables: []string{"T"},
		Txs: []TxIn{{
			Results: []ResultRefIn{{Kind: ResultSet, StageIndex: 0}},
			Stages: []StageIn{{
				Guid: "stage-0",
				Operators: []OperatorIn{{
					Kind:  OpTableRead,
					Table: "T",
					Ranges: []ReadRangeDesc{
						{Column: "k", LowInf: true, HighInf: true},
					},
				}},
				Root: 0,
			}},
		}},
	}

	doc, err := Build(q)
	require.NoError(t, err)

	// Plan -> Phase -> ResultSet -> stage node
	phase := doc.Plan
	require.Equal(t, "Phase", phase.NodeType)
	resultSet := phase.Plans[0]
	require.Equal(t, "ResultSet", resultSet.NodeType)
	stageNode := resultSet.Plans[0]
	require.Equal(t, "TableFullScan", stageNode.NodeType)
	require.Equal(t, "FullScan", stageNode.Operators[0].ReadType)

	require.NotNil(t, doc.SimplifiedPlan)
}

func TestCTEDedupOnRevisit(t *testing.T) {
	q := QueryIn{
		Type: "query",
		Txs: []TxIn{{
			Results: []ResultRefIn{
				{Kind: ResultSet, StageIndex: 0},
				{Kind: ResultSet, StageIndex: 0},
			},
			Stages: []StageIn{{
				Guid:      "shared",
				Operators: []OperatorIn{{Kind: OpTableRead, Table: "T"}},
				Root:      0,
			}},
		}},
	}
	doc, err := Build(q)
	require.NoError(t, err)

	first := doc.Plan.Plans[0].Plans[0]
	second := doc.Plan.Plans[1].Plans[0]
	require.NotContains(t, first.NodeType, "CTE")
	require.Contains(t, second.NodeType, "CTE")
}

func TestTableLookupJoinSplit(t *testing.T) {
	q := QueryIn{
		Type: "query",
		Txs: []TxIn{{
			Results: []ResultRefIn{{Kind: ResultSet, StageIndex: 1}},
			Stages: []StageIn{
				{Guid: "src", Operators: []OperatorIn{{Kind: OpTableRead, Table: "T"}}, Root: 0},
				{
					Guid: "dst",
					Inputs: []StageInputIn{{
						IsConnection: true,
						ConnType:     "TableLookupJoin",
						KeyColumns:   []string{"id"},
						FromStage:    0,
					}},
					Operators: []OperatorIn{{Kind: OpFilter}, {Kind: OpAggregate}},
					Root:      1,
				},
			},
		}},
	}
	doc, err := Build(q)
	require.NoError(t, err)

	simplified := doc.SimplifiedPlan
	resultSet := simplified.Plans[0]
	stage := resultSet.Plans[0]
	lookupJoin := stage.Plans[0]
	require.Equal(t, "LookupJoin", lookupJoin.NodeType)
	require.Equal(t, "TableLookup", lookupJoin.Plans[0].NodeType)
}

func TestSimplifyIdempotent(t *testing.T) {
	q := QueryIn{
		Type: "query",
		Txs: []TxIn{{
			Results: []ResultRefIn{{Kind: ResultSet, StageIndex: 1}},
			Stages: []StageIn{
				{Guid: "s0", Operators: []OperatorIn{{Kind: OpTableRead, Table: "T"}}, Root: 0},
				{
					Guid: "s1",
					Inputs: []StageInputIn{{
						IsConnection: true,
						ConnType:     "HashShuffle",
						KeyColumns:   []string{"k"},
						HashFunc:     "HashV1",
						FromStage:    0,
					}},
					Operators: []OperatorIn{{Kind: OpAggregate, AggPhase: "Final"}},
					Root:      0,
				},
			},
		}},
	}
	doc, err := Build(q)
	require.NoError(t, err)

	once := Simplify(doc.Plan)
	twice := Simplify(once)
	require.Equal(t, once, twice)
}

func TestRoundTrip(t *testing.T) {
	q := QueryIn{
		Type:   "query",
		Tables: []string{"T"},
		Txs: []TxIn{{
			Results: []ResultRefIn{{Kind: ResultSet, StageIndex: 0}},
			Stages: []StageIn{{
				Guid:      "s0",
				Operators: []OperatorIn{{Kind: OpTableRead, Table: "T"}},
				Root:      0,
			}},
		}},
	}
	doc, err := Build(q)
	require.NoError(t, err)

	data, err := Marshal(doc)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, doc.Meta, back.Meta)
	require.Equal(t, doc.Plan.NodeType, back.Plan.NodeType)
}

func TestTArgContextResolvesThroughFrames(t *testing.T) {
	var c TArgContext
	c.Push(map[string]NodeRef{"row": {ID: 3}})
	ref, ok := c.Resolve("row")
	require.True(t, ok)
	require.Equal(t, 3, ref.ID)
	c.Pop()
	_, ok = c.Resolve("row")
	require.False(t, ok)
}
