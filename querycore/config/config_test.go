package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
)

func TestLoadAppliesDefaultsOverYAML(t *testing.T) {
	cfg, err := Load([]byte(`
compile_timeout_ms: 5000
default_hash_shuffle_func_type: HashV2
block_channels_mode: force
mkql_memory_limit: 1GB
cluster: mycluster
`))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.CompileTimeout())
	require.Equal(t, graph.HashV2, cfg.DefaultHashShuffleFuncType)
	require.Equal(t, BlockChannelsForce, cfg.BlockChannelsMode)
	require.Equal(t, "mycluster", cfg.Cluster)
	require.EqualValues(t, 1000, cfg.ScriptResultRowsLimit, "omitted field keeps its default")
	require.EqualValues(t, 1<<30, cfg.MKQLMemoryLimit.Bytes())
}

func TestLoadRejectsUnknownHashShuffleFuncType(t *testing.T) {
	_, err := Load([]byte(`default_hash_shuffle_func_type: HashV3`))
	require.Error(t, err)
}

func TestLoadRejectsUnknownBlockChannelsMode(t *testing.T) {
	_, err := Load([]byte(`block_channels_mode: eager`))
	require.Error(t, err)
}
