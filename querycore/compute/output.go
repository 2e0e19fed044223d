package compute

import (
	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
)

// ChannelTracker answers the outbound flow-control questions an output
// channel needs before draining (spec §4.F "Outputs").
type ChannelTracker interface {
	ShouldSkipData(ch graph.ChannelId) bool
	HasFreeMemory(ch graph.ChannelId) bool
}

// OutputChannel is one task output's bookkeeping (spec §4.F "Outputs").
type OutputChannel struct {
	ChannelID   graph.ChannelId
	DstStageID  graph.StageId
	Finished    bool
	EarlyFinish bool
	PopStarted  bool

	hasDataToSend bool
}

// NewOutputChannel builds an OutputChannel in its initial state.
func NewOutputChannel(id graph.ChannelId, dst graph.StageId) *OutputChannel {
	return &OutputChannel{ChannelID: id, DstStageID: dst}
}

// PopRequest is what DrainOutputChannel asks the task-runner for.
type PopRequest struct {
	ChannelID      graph.ChannelId
	WasFinished    bool
	PeerFreeMemory int64
}

// DrainAction is DrainOutputChannel's decision.
type DrainAction struct {
	AlreadyPopping bool
	Deferred       bool
	Pop            *PopRequest
}

// DrainOutputChannel implements spec §4.F's drain decision tree.
func (o *OutputChannel) DrainOutputChannel(tracker ChannelTracker, peerFreeMemory int64) DrainAction {
	if o.PopStarted {
		return DrainAction{AlreadyPopping: true}
	}

	skip := tracker.ShouldSkipData(o.ChannelID)
	hasFreeMemory := tracker.HasFreeMemory(o.ChannelID)

	if !hasFreeMemory && !skip && !o.EarlyFinish {
		o.hasDataToSend = true
		return DrainAction{Deferred: true}
	}

	o.PopStarted = true
	return DrainAction{Pop: &PopRequest{ChannelID: o.ChannelID, WasFinished: o.Finished, PeerFreeMemory: peerFreeMemory}}
}

// OutputData is one chunk OutputChannelData splits a batch into; only the
// last chunk of a call carries the finished/watermark/checkpoint flags
// (spec §4.F).
type OutputData struct {
	Payload    []byte
	Watermark  *int64
	Checkpoint *CheckpointID
	Finished   bool
}

// OutputChannelResult is what processing one OutputChannelData event
// produced.
type OutputChannelResult struct {
	Chunks       []OutputData
	ResumeInputsForWatermark *int64
	JustFinished bool
}

// OutputChannelData implements spec §4.F's OutputChannelData handling: if
// the channel is already skipping, data is discarded and pop_started
// cleared; otherwise the payload splits into ordered chunks, the last
// carrying the terminal flags.
func (o *OutputChannel) OutputChannelData(tracker ChannelTracker, chunks [][]byte, watermark *int64, checkpoint *CheckpointID, finished, changed bool) OutputChannelResult {
	o.PopStarted = false

	if tracker.ShouldSkipData(o.ChannelID) {
		return OutputChannelResult{}
	}

	out := make([]OutputData, 0, len(chunks))
	for i, c := range chunks {
		last := i == len(chunks)-1
		d := OutputData{Payload: c}
		if last {
			d.Watermark, d.Checkpoint, d.Finished = watermark, checkpoint, finished
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		out = append(out, OutputData{Watermark: watermark, Checkpoint: checkpoint, Finished: finished})
	}

	res := OutputChannelResult{Chunks: out}
	if watermark != nil {
		res.ResumeInputsForWatermark = watermark
	}
	if finished {
		o.Finished = true
		res.JustFinished = true
	}
	return res
}
