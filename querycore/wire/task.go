// Package wire projects a built graph.Task into the shape of the dispatch
// wire protobuf (TDqTask, TChannelData — spec §4.C, §6). The wire protobufs
// themselves are reused bit-exact from the cluster's existing protocol in
// the source system; here they are modeled as plain Go structs carrying the
// same field shape, since regenerating the real .proto is out of scope for
// this excerpt.
package wire

import (
	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
)

// Endpoint is either an actor-id (compute tasks) or a shard-id (data-shard
// tasks).
type Endpoint struct {
	ActorID string
	ShardID string
}

// TableDataFormat selects the scan-task wire row format.
type TableDataFormat int

const (
	FormatCellVec TableDataFormat = iota
	FormatArrow
)

// ChannelDescriptor is the wire shape of one inter-task channel.
type ChannelDescriptor struct {
	ID               graph.ChannelId
	SrcStageID       graph.StageId
	DstStageID       graph.StageId
	TransportVersion graph.TransportVersion
	EnableSpilling   bool
	InMemory         bool
	IsPersistent     bool
}

// ReadDescriptor is one data-shard/scan-task read.
type ReadDescriptor struct {
	ShardID     string
	Ranges      graph.SerializedRanges
	Columns     []string
	ColumnTypes []graph.KeyType
	ItemsLimit  uint64
	Reverse     bool
}

// WriteDescriptor is one data-shard write.
type WriteDescriptor struct {
	Ranges            graph.SerializedRanges
	Columns           []string
	MaxValueSizeBytes map[string]uint64
	IsPureEraseOp     bool
}

// HashPartitionWire is the wire shape of a HashPartition output.
type HashPartitionWire struct {
	KeyColumns      []string
	Count           int
	HashKind        graph.HashKind
	ShardCount      int      // ColumnShardHashV1 only
	KeyColumnTypes  []graph.KeyType // ColumnShardHashV1 only
	TaskIndexByHash []int    // ColumnShardHashV1 only
}

// RangePartitionWire is the wire shape of a RangePartition output.
type RangePartitionWire struct {
	Partitions []graph.RangePartitionEntry
}

// SourceInputWire is the wire shape of a Source-kind input, including the
// read-your-writes lock stamp (spec SPEC_FULL §4).
type SourceInputWire struct {
	Settings     []byte
	Step, TxID   uint64
	Follower     bool
	LockTxID     uint64
	LockNodeID   uint32
	LockMode     string
	stamped      bool
}

// StampLock fills the read-your-writes lock fields, but only when the table
// is mutable and the read is under a snapshot (SPEC_FULL §4 "read-your-writes
// lock stamping").
func (s *SourceInputWire) StampLock(tableIsMutable, snapshotValid bool, step, txID uint64, lockTxID uint64, lockNodeID uint32, lockMode string) {
	if !tableIsMutable || !snapshotValid {
		return
	}
	s.Step, s.TxID = step, txID
	s.LockTxID, s.LockNodeID, s.LockMode = lockTxID, lockNodeID, lockMode
	s.stamped = true
}

// Stamped reports whether StampLock actually applied the lock fields.
func (s *SourceInputWire) Stamped() bool { return s.stamped }

// InputWire is the wire shape of one task input.
type InputWire struct {
	Channels  []graph.ChannelId
	Source    *SourceInputWire
	SortCols  []string // Merge
	Transform *TransformWire
}

// TransformWire is the wire shape of an input Transform.
type TransformWire struct {
	Type, InType, OutType string
	Settings              []byte
}

// OutputWire is the wire shape of one task output.
type OutputWire struct {
	Channels       []graph.ChannelId
	HashPartition  *HashPartitionWire
	RangePartition *RangePartitionWire
	SinkType       string
	SinkSettings   []byte
}

// OlapProgramParams is the (schema_bytes, batch_bytes) pair produced for
// Olap tasks (spec §4.C).
type OlapProgramParams struct {
	SchemaBytes []byte
	BatchBytes  []byte
}

// TaskDescriptor is the wire projection of one graph.Task.
type TaskDescriptor struct {
	ID       graph.TaskId
	Endpoint Endpoint
	Inputs   []InputWire
	Outputs  []OutputWire

	Reads  []ReadDescriptor
	Writes []WriteDescriptor

	IsScanTask      bool
	DataFormat      TableDataFormat
	ItemsLimit      uint64
	Reverse         bool
	SortColumns     []string
	GroupByColumns  []string
	OlapProgram     []byte
	KeyColumnTypes  []graph.KeyType
	Olap            *OlapProgramParams
}
