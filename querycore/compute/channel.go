package compute

import (
	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

// CheckpointingMode is an input channel's checkpoint participation.
type CheckpointingMode int

const (
	CheckpointingDisabled CheckpointingMode = iota
	CheckpointingEnabled
)

// Batch is an opaque payload moved over a channel; this module only moves
// it around, never interprets it.
type Batch struct {
	Data       []byte
	Rows       int64
	Bytes      int64
	Watermark  *int64
	Checkpoint *CheckpointID
	Finished   bool
}

// pendingPush is what InputChannel remembers about one in-flight
// TakeInputChannelData call until it is acked.
type pendingPush struct {
	ack       bool
	channel   graph.ChannelId
	watermark *int64
}

// InputChannel is one task input's bookkeeping (spec §4.F "Inputs").
type InputChannel struct {
	ChannelID         graph.ChannelId
	SrcStageID        graph.StageId
	HasPeer           bool
	FreeSpace         int64
	WatermarksMode    WatermarkMode
	CheckpointingMode CheckpointingMode
	IsPaused          bool

	pendingByCookie map[uint64]pendingPush
	nextCookie      uint64
}

// NewInputChannel builds an InputChannel in its initial, unpaused state.
func NewInputChannel(id graph.ChannelId, src graph.StageId, wmMode WatermarkMode, ckMode CheckpointingMode) *InputChannel {
	return &InputChannel{
		ChannelID:         id,
		SrcStageID:        src,
		WatermarksMode:    wmMode,
		CheckpointingMode: ckMode,
		pendingByCookie:   make(map[uint64]pendingPush),
	}
}

// TakeResult is what TakeInputChannelData decided to do with a batch.
type TakeResult struct {
	Cookie         uint64
	ForwardToRunner bool
	PauseForWatermark *int64
	RegisterCheckpoint *CheckpointID
}

// TakeInputChannelData implements spec §4.F step 1-3: record any carried
// watermark, decide whether it pauses the channel, forward the batch to
// the task-runner under a fresh cookie, and register any carried
// checkpoint.
func (c *InputChannel) TakeInputChannelData(tracker *WatermarksTracker, batch Batch) TakeResult {
	res := TakeResult{}

	if batch.Watermark != nil {
		if tracker.Observe(c.ChannelID, *batch.Watermark) {
			c.IsPaused = true
			tracker.AddPendingTake(*batch.Watermark)
			res.PauseForWatermark = batch.Watermark
		}
	}

	cookie := c.nextCookie
	c.nextCookie++
	c.pendingByCookie[cookie] = pendingPush{ack: true, channel: c.ChannelID, watermark: batch.Watermark}
	res.Cookie = cookie
	res.ForwardToRunner = true

	if batch.Checkpoint != nil {
		c.IsPaused = true
		res.RegisterCheckpoint = batch.Checkpoint
	}

	return res
}

// AckResult is what InputChannelDataAck decided.
type AckResult struct {
	SendUpstreamAck bool
	NewFreeSpace    int64
	Resume          bool
}

// InputChannelDataAck implements spec §4.F's InputChannelDataAck handling.
func (c *InputChannel) InputChannelDataAck(tracker *WatermarksTracker, cookie uint64, freeSpace int64) (AckResult, error) {
	pending, ok := c.pendingByCookie[cookie]
	if !ok {
		return AckResult{}, qerrors.New(qerrors.CodeInternal, "input channel %d: ack for unknown cookie %d", c.ChannelID, cookie)
	}
	delete(c.pendingByCookie, cookie)

	if pending.watermark != nil {
		tracker.AckPendingTake(*pending.watermark)
	}
	c.FreeSpace = freeSpace
	c.IsPaused = false

	return AckResult{SendUpstreamAck: pending.ack, NewFreeSpace: freeSpace, Resume: true}, nil
}
