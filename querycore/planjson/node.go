// Package planjson walks the high-level expression tree the compile host
// hands back and emits the stable JSON plan spec §4.D and §6 describe: a
// full plan plus a derived "simplified" view, both consumed by EXPLAIN,
// ANALYZE and the admin UI (out of scope here — only the JSON they render
// is in scope).
package planjson

// Document is the top-level JSON artefact (spec §6).
type Document struct {
	Meta          Meta   `json:"meta"`
	Tables        []string `json:"tables"`
	Plan          *Node  `json:"Plan"`
	SimplifiedPlan *Node `json:"SimplifiedPlan,omitempty"`
}

// Meta is the {version, type} header.
type Meta struct {
	Version string `json:"version"`
	Type    string `json:"type"` // "query" | "script"
}

// Node is one plan-tree node. Field names are part of the wire contract
// (spec §6) and must not be renamed.
type Node struct {
	NodeType     string  `json:"Node Type"`
	PlanNodeId   int     `json:"PlanNodeId"`
	PlanNodeType string  `json:"PlanNodeType,omitempty"`
	Plans        []*Node `json:"Plans,omitempty"`
	Operators    []*Operator `json:"Operators,omitempty"`
	Stats        *Stats  `json:"Stats,omitempty"`

	StageGuid   string `json:"StageGuid,omitempty"`
	CTEName     string `json:"CTE Name,omitempty"`
	SubplanName string `json:"Subplan Name,omitempty"`

	KeyColumns  []string `json:"KeyColumns,omitempty"`
	SortColumns []string `json:"SortColumns,omitempty"`
	HashFunc    string   `json:"HashFunc,omitempty"`
	SourceType  string   `json:"SourceType,omitempty"`
	ExternalDataSource string `json:"ExternalDataSource,omitempty"`

	ACpu string `json:"A-Cpu,omitempty"` // rolled up by Simplify: self + Σ children
}

// Operator is one stage-body expression-tree operator (spec §4.D).
type Operator struct {
	Name    string  `json:"Name"`
	Inputs  []InputRef `json:"Inputs,omitempty"`
	Table   string  `json:"Table,omitempty"`
	ReadType string `json:"ReadType,omitempty"` // FullScan | Scan | Lookup | MultiLookup
	ReadRanges []string `json:"ReadRanges,omitempty"` // "col [a, b)" style renderings
	Condition string `json:"Condition,omitempty"`     // OLAP filter / generic predicate, SQL-ish
	AggPhase  string `json:"Phase,omitempty"`          // Aggregate only: Intermediate | Final
	JoinKind  string `json:"JoinKind,omitempty"`

	ERows string `json:"E-Rows,omitempty"`
	ECost string `json:"E-Cost,omitempty"`
	ESize string `json:"E-Size,omitempty"`

	ARows string `json:"A-Rows,omitempty"`
	ACpu  string `json:"A-Cpu,omitempty"`
	ASize string `json:"A-Size,omitempty"`

	internalID int // within-stage operator index, not serialized
}

// InputRef is an operator's reference to its feeding node: either an
// upstream plan-node id or an intra-stage operator index (spec §4.D).
type InputRef struct {
	ExternalPlanNodeId *int `json:"ExternalPlanNodeId,omitempty"`
	InternalOperatorId *int `json:"InternalOperatorId,omitempty"`
}

func extRef(id int) InputRef { return InputRef{ExternalPlanNodeId: &id} }
func intRef(id int) InputRef { return InputRef{InternalOperatorId: &id} }

// Stats is the per-stage/per-operator statistics overlay (spec §4.D's
// add_exec_stats_to_tx_plan).
type Stats struct {
	Rows  string `json:"Rows,omitempty"`
	Bytes string `json:"Bytes,omitempty"`

	Min, Max, Sum string `json:"-"` // not serialized; AttachStats does not set them or fold them into History
	Cnt           int64  `json:"-"`
	History       []float64 `json:"History,omitempty"`
	SelfCpuUs     int64  `json:"-"` // used by Simplify's A-Cpu rollup, not itself serialized

	Inputs  []AsyncStats `json:"Inputs,omitempty"`
	Outputs []AsyncStats `json:"Outputs,omitempty"`
	Tasks   []TaskStats  `json:"Tasks,omitempty"`
}

// AsyncStats is per-input/output channel statistics.
type AsyncStats struct {
	Bytes        int64 `json:"Bytes"`
	Rows         int64 `json:"Rows"`
	WaitTimeUs   int64 `json:"WaitTimeUs"`
	FirstMessageMs int64 `json:"FirstMessageMs"`
	LastMessageMs  int64 `json:"LastMessageMs"`
}

// TaskStats is per-task execution detail attached to a stage's Stats.
type TaskStats struct {
	TaskID uint64 `json:"TaskId"`
	Rows   int64  `json:"Rows"`
	Bytes  int64  `json:"Bytes"`
}
