package graph

// The types below are the neutral Go projection of the physical-plan
// protobuf (TKqpPhyTx / TKqpPhyStage / TKqpPhyConnection, spec §6) that the
// external compile Host hands the builder. They are not the wire bytes
// themselves — querycore/wire owns the wire projection in the other
// direction (graph -> dispatch protobuf); this is host -> graph.

// ConnectionKind is the tagged kind of a PhyConnection.
type ConnectionKind int

const (
	ConnUnionAll ConnectionKind = iota
	ConnHashShuffle
	ConnBroadcast
	ConnMap
	ConnMerge
	ConnSequencer
	ConnStreamLookup
	ConnParallelUnionAll
)

// PhyConnection describes how one stage input is fed from an upstream
// stage's output (spec §4.B).
type PhyConnection struct {
	Kind             ConnectionKind
	SrcStageIndex    int // index of the upstream stage within the same tx
	SrcOutputIdx     int
	HashKeys         []string
	HashKind         HashKind
	HashColumnTypes  []KeyType
	SortKeys         []string
	SeqSettings      SequencerSettings
	LookupSettings   StreamLookupSettings
}

// SequencerSettings carries the auto-increment metadata a Sequencer
// connection stamps onto its destination input (spec §4.B).
type SequencerSettings struct {
	KeyColumns         []string
	ValueColumns       []string
	DefaultKind        DefaultKind
	DefaultSequencePath string
}

// DefaultKind is the auto-increment default kind of a Sequencer.
type DefaultKind int

const (
	DefaultSequence DefaultKind = iota
	DefaultLiteral
)

// StreamLookupSettings carries the table column metadata a StreamLookup
// connection stamps onto its destination input.
type StreamLookupSettings struct {
	KeyColumns   []string
	ValueColumns []string
	Settings     []byte
}

// SourceKind tags a PhySource.
type SourceKind int

const (
	SourceReadRanges SourceKind = iota
	SourceExternal
)

// PhySource is a stage's source slot.
type PhySource struct {
	Kind     SourceKind
	TableID  string
	Settings []byte
	Embedded bool // ExternalSource marked "embedded": no dedicated slot
}

// PhyInput is one declared stage input: either a Connection to an upstream
// stage, or a Source.
type PhyInput struct {
	Connection *PhyConnection
	Source     *PhySource
}

// PhySink is a stage's sink slot.
type PhySink struct {
	Mode     SinkMode
	Type     string
	Settings []byte
}

// PhyTableOp is one table operation a stage's program performs.
type PhyTableOp struct {
	TableID string
	Op      TableOp
}

// PhyStage is the host's physical-plan projection of one stage.
type PhyStage struct {
	Guid          string
	Inputs        []PhyInput
	Sinks         []PhySink
	TableOps      []PhyTableOp
	ProgramParams []string
	TaskCount     int
	IsEffects     bool // stage has a client-visible effect but no sink
}

// PhyTx is one transaction's stage list.
type PhyTx struct {
	Stages []PhyStage
}

// BuildOptions toggles build_stage_channels behavior (spec §4.B, §5).
type BuildOptions struct {
	EnableSpilling            bool
	EnableShuffleElimination  bool
}
