// Package graph builds the distributed execution graph (stages, tasks,
// channels) from a physical-plan protobuf, and implements the shard
// key-range primitives it is built on (spec.md §3, §4.A, §4.B).
package graph

// StageId identifies a stage within a transaction: (TxIndex, StageIndex).
// It is immutable once assigned.
type StageId struct {
	TxIndex    int
	StageIndex int
}

// TaskId is unique within a graph.
type TaskId uint64

// ChannelId is unique within a graph.
type ChannelId uint64

// TableOp is one of the operations a stage may perform against a table.
type TableOp int

const (
	TableOpRead TableOp = 1 << iota
	TableOpUpdate
	TableOpErase
)

// TableOpSet is a small bitset of TableOp.
type TableOpSet int

func (s TableOpSet) Has(op TableOp) bool { return s&TableOpSet(op) != 0 }
func (s TableOpSet) With(op TableOp) TableOpSet { return s | TableOpSet(op) }

// HasReads reports whether the set contains Read.
func (s TableOpSet) HasReads() bool { return s.Has(TableOpRead) }

// HasWrites reports whether the set contains Update or Erase.
func (s TableOpSet) HasWrites() bool { return s.Has(TableOpUpdate) || s.Has(TableOpErase) }
