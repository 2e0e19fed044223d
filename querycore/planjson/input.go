package planjson

// The types below are the neutral host-supplied input the Visitor walks to
// produce a Document (spec §4.D). They are independent of querycore/graph's
// physical-plan IR: the plan JSON is derived from the same logical tree the
// Task Graph Builder consumes, but the host hands it to this package
// directly rather than routing it through the built graph.

// OpKind is a recognised stage-body expression-tree operator.
type OpKind string

const (
	OpTableRead     OpKind = "TableRead" // resolved to one of the four Table* names by range classification
	OpFilter        OpKind = "Filter"
	OpAggregate     OpKind = "Aggregate"
	OpSort          OpKind = "Sort"
	OpTop           OpKind = "Top"
	OpTopSort       OpKind = "TopSort"
	OpLimit         OpKind = "Limit"
	OpOffset        OpKind = "Offset"
	OpUnion         OpKind = "Union"
	OpMapJoin       OpKind = "MapJoin"
	OpJoinDict      OpKind = "JoinDict"
	OpGraceJoin     OpKind = "GraceJoin"
	OpCrossJoin     OpKind = "CrossJoin"
	OpTableLookup   OpKind = "TableLookup"
	OpUpsert        OpKind = "Upsert"
	OpDelete        OpKind = "Delete"
	OpMember        OpKind = "Member"
	OpIterator      OpKind = "Iterator"
	OpToFlow        OpKind = "ToFlow"
	OpAssumeSorted  OpKind = "AssumeSorted"
	OpCombineByKey  OpKind = "CombineByKey"
	OpPartitionByKey OpKind = "PartitionByKey"
)

// NodeRef is an operator's reference to its feeding node.
type NodeRef struct {
	External   bool
	ID         int    // operator index (internal) or plan node id (external)
	ArgName    string // non-empty: resolve via the TArgContext instead of ID
}

// ReadRangeDesc describes one key column's bound in a read, enough to
// classify the read and render its range notation (spec §4.D).
type ReadRangeDesc struct {
	Column              string
	LowInf, HighInf      bool
	Point                bool
	Low, High            string
	LowIncl, HighIncl    bool
}

// CostEstimate is a CBO-supplied row/cost/size triple; nil means "no
// estimate available" (spec §4.D).
type CostEstimate struct {
	Rows, Cost, Size float64
}

// OperatorIn is one stage-body operator as the host hands it to the
// Visitor.
type OperatorIn struct {
	Kind     OpKind
	Table    string
	Ranges   []ReadRangeDesc
	PKLen    int // number of leading key columns covering the full primary key
	Filter   string
	AggPhase string
	JoinKind string
	Inputs   []NodeRef
	Binds    map[string]NodeRef // non-nil: this operator is a lambda body; binds these arg names for operators after it in the same stage, until the matching PopBind index
	PopBind  bool                // this operator closes the most recently opened Binds frame
	Cost     *CostEstimate
}

// SourceStats is optional read-side statistics attached to a Source input.
type SourceStats struct {
	Rows, Bytes int64
}

// StageInputIn is one stage input as the host hands it to the Visitor:
// either a Connection from an upstream stage, or a Source.
type StageInputIn struct {
	IsConnection bool

	// Connection fields.
	ConnType    string // UnionAll | Broadcast | Map | HashShuffle | Merge | TableLookup | TableLookupJoin | ParallelUnionAll | StreamLookup
	KeyColumns  []string
	SortColumns []string
	HashFunc    string
	FromStage   int // index, within the same Tx, of the upstream stage

	// Source fields.
	SourceType         string
	ExternalDataSource string
	Stats              *SourceStats
}

// StageIn is one stage as the host hands it to the Visitor.
type StageIn struct {
	Guid      string
	Inputs    []StageInputIn
	Operators []OperatorIn
	Root      int // index into Operators that is the stage's terminal operator; -1 if none
}

// ResultKind distinguishes a transaction's client-visible results from its
// internal CTE-style precomputes.
type ResultKind string

const (
	ResultSet   ResultKind = "ResultSet"
	Precompute  ResultKind = "Precompute"
)

// ResultRefIn is one of a transaction's result or precompute roots.
type ResultRefIn struct {
	Kind       ResultKind
	StageIndex int
	Name       string // subplan/CTE name, Precompute only
}

// TxIn is one transaction as the host hands it to the Visitor.
type TxIn struct {
	Results []ResultRefIn
	Effects []int // stage indices with a client-visible effect but no Result wrapper
	Stages  []StageIn
}

// QueryIn is the full query/script as the host hands it to the Visitor.
type QueryIn struct {
	Type     string // "query" | "script"
	Tables   []string
	Txs      []TxIn
	CBOLevel int
}
