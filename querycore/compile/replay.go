package compile

import (
	"encoding/base64"
	"strconv"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ReplayRecord is the compact replay-log entry a successful compile emits
// (spec §4.E). Byte-blob fields are carried as already-serialized protobuf;
// this package never interprets them.
type ReplayRecord struct {
	QueryID            string            `json:"query_id"`
	QueryText          string            `json:"query_text"`
	QueryPlan          string            `json:"query_plan,omitempty"`
	TableMetadataB64   string            `json:"table_metadata"`
	ParameterTypesB64  map[string]string `json:"parameter_types"`
	Cluster            string            `json:"cluster"`
	Database           string            `json:"database"`
	QuerySyntaxVersion int               `json:"query_syntax_version"`
	CreatedAtSeconds   int64             `json:"created_at_seconds"`
}

// BuildReplayRecord assembles a ReplayRecord from a finished compile (spec
// §4.E). createdAtSeconds is supplied by the caller rather than sampled
// here.
func BuildReplayRecord(cfg Config, result *CompileResult, queryText string, planJSON []byte, tableMetadata []byte, paramTypes map[string][]byte, createdAtSeconds int64) *ReplayRecord {
	uid := result.UID
	if uid == "" {
		uid = uuid.NewString()
	}

	paramB64 := make(map[string]string, len(paramTypes))
	for name, b := range paramTypes {
		paramB64[name] = base64.StdEncoding.EncodeToString(b)
	}

	return &ReplayRecord{
		QueryID:            uid,
		QueryText:          strconv.Quote(queryText),
		QueryPlan:          string(planJSON),
		TableMetadataB64:   base64.StdEncoding.EncodeToString(tableMetadata),
		ParameterTypesB64:  paramB64,
		Cluster:            cfg.Cluster,
		Database:           cfg.Database,
		QuerySyntaxVersion: cfg.SQLVersion,
		CreatedAtSeconds:   createdAtSeconds,
	}
}

// MarshalCompact renders the record in its wire form.
func (r *ReplayRecord) MarshalCompact() ([]byte, error) {
	return gojson.Marshal(r)
}

// MarshalDiagnostics renders a human-readable variant, produced only when
// diagnostics are requested (spec §4.E).
func (r *ReplayRecord) MarshalDiagnostics() ([]byte, error) {
	return gojson.MarshalIndent(r, "", "  ")
}
