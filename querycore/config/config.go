// Package config decodes the YAML configuration surface that governs the
// compile actor, the task graph builder and the ACA (spec §6). It mirrors
// the teacher's datadir/cache-size flag decoding: byte-size knobs use
// datasize.ByteSize so "512MB" and "1GB" parse the way operators actually
// write them in ops YAML, instead of requiring raw byte counts.
package config

import (
	"time"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

// BlockChannelsMode selects when block-layout (columnar, Arrow-friendly)
// channels are used instead of row-layout ones (spec §6).
type BlockChannelsMode string

const (
	BlockChannelsDisabled BlockChannelsMode = "disabled"
	BlockChannelsForce    BlockChannelsMode = "force"
)

// Config is the query-core process's static configuration, decoded from a
// single YAML document (spec §6 "Configuration surface").
type Config struct {
	// Compile actor (spec §4.E).
	CompileTimeoutMs                 int64  `yaml:"compile_timeout_ms"`
	ScriptResultRowsLimit            uint64 `yaml:"script_result_rows_limit"`
	EnablePerStatementQueryExecution bool   `yaml:"enable_per_statement_query_execution"`
	AllowCache                       bool   `yaml:"allow_cache"`
	EnableDiagnostics                bool   `yaml:"enable_diagnostics"`

	// Task graph builder / channel transport (spec §4.A, §6).
	BlockChannelsMode            BlockChannelsMode `yaml:"block_channels_mode"`
	DefaultHashShuffleFuncType   graph.HashKind    `yaml:"-"`
	HashShuffleFuncTypeName      string            `yaml:"default_hash_shuffle_func_type"`
	EnableArrowFormatAtDatashard bool              `yaml:"enable_arrow_format_at_datashard"`

	// Optimizer knobs threaded through to the compile Host (spec §4.E, §6).
	DefaultCostBasedOptimizationLevel int  `yaml:"default_cost_based_optimization_level"`
	DefaultEnableShuffleElimination   bool `yaml:"default_enable_shuffle_elimination"`
	EnableSpillingNodes               bool `yaml:"enable_spilling_nodes"`

	// ACA resource discipline (spec §5). MKQLMemoryLimit is resolved from
	// MKQLMemoryLimitStr (e.g. "512MB", "1GB") during Load.
	MKQLMemoryLimit    datasize.ByteSize `yaml:"-"`
	MKQLMemoryLimitStr string            `yaml:"mkql_memory_limit"`
	CPUMillisPerSec    int64             `yaml:"cpu_quota_millis_per_sec"`

	// Cluster/database identity, threaded into compile.Config (spec §4.E).
	Cluster  string `yaml:"cluster"`
	Database string `yaml:"database"`
}

// CompileTimeout is CompileTimeoutMs as a time.Duration.
func (c Config) CompileTimeout() time.Duration {
	return time.Duration(c.CompileTimeoutMs) * time.Millisecond
}

// Default returns the configuration the teacher's cmd/rpcdaemon ships as its
// built-in defaults equivalent: conservative limits, HashV1 shuffling,
// row-layout channels.
func Default() Config {
	return Config{
		CompileTimeoutMs:                  30_000,
		ScriptResultRowsLimit:             1000,
		EnablePerStatementQueryExecution:  false,
		AllowCache:                        true,
		BlockChannelsMode:                 BlockChannelsDisabled,
		DefaultHashShuffleFuncType:        graph.HashV1,
		HashShuffleFuncTypeName:           "HashV1",
		DefaultCostBasedOptimizationLevel: 0,
		MKQLMemoryLimit:                   512 * datasize.MB,
		MKQLMemoryLimitStr:                "512MB",
		CPUMillisPerSec:                   1000,
	}
}

// Load decodes YAML config bytes, applying Default() for any field the
// document omits, then resolves name-keyed fields (hash-shuffle function
// type) into the enums the rest of the module consumes.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, qerrors.Wrap(qerrors.CodeBadRequest, err)
	}
	switch cfg.HashShuffleFuncTypeName {
	case "", "HashV1":
		cfg.DefaultHashShuffleFuncType = graph.HashV1
	case "HashV2":
		cfg.DefaultHashShuffleFuncType = graph.HashV2
	default:
		return Config{}, qerrors.New(qerrors.CodeBadRequest, "unknown default_hash_shuffle_func_type %q", cfg.HashShuffleFuncTypeName)
	}
	switch cfg.BlockChannelsMode {
	case "", BlockChannelsDisabled, BlockChannelsForce:
	default:
		return Config{}, qerrors.New(qerrors.CodeBadRequest, "unknown block_channels_mode %q", cfg.BlockChannelsMode)
	}
	if cfg.MKQLMemoryLimitStr != "" {
		if err := cfg.MKQLMemoryLimit.UnmarshalText([]byte(cfg.MKQLMemoryLimitStr)); err != nil {
			return Config{}, qerrors.Wrap(qerrors.CodeBadRequest, err)
		}
	}
	if cfg.CPUMillisPerSec <= 0 {
		cfg.CPUMillisPerSec = 1000
	}
	return cfg, nil
}
