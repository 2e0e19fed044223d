package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
)

func TestSerializeScanSourceTask(t *testing.T) {
	txs := []graph.PhyTx{{
		Stages: []graph.PhyStage{{
			Guid:      "s0",
			Inputs:    []graph.PhyInput{{Source: &graph.PhySource{Kind: graph.SourceReadRanges, TableID: "T"}}},
			TaskCount: 1,
		}},
	}}
	g, err := graph.NewBuilder(graph.BuildOptions{}).Build(txs)
	require.NoError(t, err)

	task := g.Tasks()[0]
	d, err := Serialize(g, task, SerializeOptions{})
	require.NoError(t, err)
	require.Len(t, d.Inputs, 1)
	require.NotNil(t, d.Inputs[0].Source)
}

func TestBuildOlapParamsRejectsUnsupportedType(t *testing.T) {
	opts := SerializeOptions{
		OlapProgramParamNames: []string{"$p1"},
		ParamTypes:            map[string]ParamType{"$p1": ParamUnsupported},
	}
	_, err := buildOlapParams(opts)
	require.Error(t, err)
}

func TestBuildOlapParamsEncodesKnownTypes(t *testing.T) {
	opts := SerializeOptions{
		OlapProgramParamNames: []string{"$a", "$b"},
		ParamTypes:            map[string]ParamType{"$a": ParamInt64, "$b": ParamString},
		ParamValues: map[string]ParamValue{
			"$a": {Int64: 42},
			"$b": {Str: "hi"},
		},
	}
	out, err := buildOlapParams(opts)
	require.NoError(t, err)
	require.NotEmpty(t, out.SchemaBytes)
	require.NotEmpty(t, out.BatchBytes)
}
