package compute

import "github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"

// CheckpointID totally orders checkpoints by (generation, id) (spec §5).
type CheckpointID struct {
	Generation uint64
	ID         uint64
}

// Less reports whether c sorts strictly before other.
func (c CheckpointID) Less(other CheckpointID) bool {
	if c.Generation != other.Generation {
		return c.Generation < other.Generation
	}
	return c.ID < other.ID
}

// Coordinator enforces spec §5's checkpoint ordering guarantee: a later
// checkpoint never commits before an earlier one.
type Coordinator struct {
	last    CheckpointID
	hasLast bool
}

// Commit records id as committed, failing if it doesn't strictly follow
// the last committed checkpoint.
func (co *Coordinator) Commit(id CheckpointID) error {
	if co.hasLast && !co.last.Less(id) {
		return qerrors.New(qerrors.CodeInternal, "checkpoint %+v committed out of order after %+v", id, co.last)
	}
	co.last = id
	co.hasLast = true
	return nil
}

// SourceState is one source's serialized checkpoint contribution.
type SourceState struct {
	SourceIndex int
	State       []byte
}

// SaveState implements spec §4.F "Checkpointing": copy the task-runner's
// program_state into the outgoing state and collect every source's own
// state.
func SaveState(programState []byte, sources []SourceState) *CheckpointSnapshot {
	return &CheckpointSnapshot{ProgramState: programState, Sources: sources}
}

// CheckpointSnapshot is the serialized state one checkpoint produced.
type CheckpointSnapshot struct {
	ProgramState []byte
	Sources      []SourceState
}
