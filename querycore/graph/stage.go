package graph

// HashShuffleParams carries column-shard hash v1 partitioning (spec §3):
// once established for a stage, shuffle-elimination requires these be
// propagated to downstream stages unchanged.
type HashShuffleParams struct {
	SourceShardCount int
	TaskIndexByHash  []int
	KeyColumnTypes   []KeyType
}

// SinkDescriptor describes a stage's output sink (spec §3, §4.B).
type SinkDescriptor struct {
	Type     string
	Settings []byte
	Mode     SinkMode
}

// SinkMode is the write mode of an InternalSink<TableSinkSettings>.
type SinkMode int

const (
	SinkModeReplace SinkMode = iota
	SinkModeUpsert
	SinkModeInsert
	SinkModeDelete
	SinkModeUpdate
	SinkModeFillTable
)

// Ops returns the TableOp set a sink mode implies.
func (m SinkMode) Ops() TableOpSet {
	switch m {
	case SinkModeDelete:
		return TableOpSet(TableOpErase)
	default:
		return TableOpSet(TableOpUpdate)
	}
}

// SourceDescriptor describes a stage's external or read-ranges source.
type SourceDescriptor struct {
	Type     string
	Settings []byte
	Embedded bool // ExternalSource marked "embedded": no dedicated slot
}

// StageMeta carries the optional table identity and operation set a stage
// addresses, plus column-shard hash params and any sink/source descriptors.
type StageMeta struct {
	TableID         string
	Ops             TableOpSet
	HashShuffle     *HashShuffleParams
	Sinks           []SinkDescriptor
	Sources         []SourceDescriptor
	FusedWithScan   bool
	IsEffectsOnly   bool
}

// Stage is a parallel class of tasks sharing a program and schema.
type Stage struct {
	ID          StageId
	InputCount  int
	OutputCount int
	Meta        StageMeta
	Guid        string
}

// HasReads reports whether the stage's TableOps include Read.
func (s *Stage) HasReads() bool { return s.Meta.Ops.HasReads() }

// HasWrites reports whether the stage's TableOps include Update or Erase.
func (s *Stage) HasWrites() bool { return s.Meta.Ops.HasWrites() }

// CheckReadXorWrite enforces spec §3/§8 invariant 2.
func (s *Stage) CheckReadXorWrite() error {
	if s.HasReads() == s.HasWrites() && (s.HasReads() || s.HasWrites()) {
		return errReadsAndWrites(s.ID)
	}
	return nil
}
