package compute

// Sink is one async-output sink's bookkeeping (spec §4.F "Sinks").
type Sink struct {
	Index          int
	FreeSpace      int64
	OvercommitSize int64
	Finished       bool
}

// NewSink builds a Sink in its initial state.
func NewSink(index int, overcommit int64) *Sink {
	return &Sink{Index: index, OvercommitSize: overcommit}
}

// SendBudget returns the send budget DrainAsyncOutput computes before
// popping sink data (spec §4.F: "free_space + allowed_overcommit").
func (s *Sink) SendBudget() int64 {
	return s.FreeSpace + s.OvercommitSize
}

// SinkBatch is what a sink's data-pop produced.
type SinkBatch struct {
	Data       []byte
	Size       int64
	Checkpoint *CheckpointID
	Finished   bool
}

// Complete bookkeeps SendData having run against batch (spec §4.F).
func (s *Sink) Complete(batch SinkBatch) {
	if batch.Finished {
		s.Finished = true
	}
}
