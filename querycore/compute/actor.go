// Package compute implements the Async Compute Actor (spec §4.F): the
// single-task cooperative executor that drives one task-runner through its
// input channels, sources, outputs and sinks.
package compute

import (
	"context"

	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

// State is the ACA's lifecycle state (spec §4.F).
type State int

const (
	StateCreated State = iota
	StateBootstrapped
	StateRunning
	StateFinished
)

// ContinueRunRequest is what one run cycle asks the task-runner for (spec
// §4.F "Running" steps 2-4).
type ContinueRunRequest struct {
	WatermarkRequest  *int64
	CheckpointRequest *CheckpointID
	OutputChannels    []graph.ChannelId
	Sinks             []int
}

// RunFinished is the task-runner's reply to ContinueRun (spec §4.F).
type RunFinished struct {
	Status                     qerrors.Code
	InputChannelFreeSpace      map[graph.ChannelId]int64
	SourceFreeSpace            map[int]int64
	WatermarkInjectedToOutputs []graph.ChannelId
	ProgramState               []byte
}

// OutputChannelRaw is the task-runner's reply to a PopOutput request.
type OutputChannelRaw struct {
	ChannelID  graph.ChannelId
	Chunks     [][]byte
	Watermark  *int64
	Checkpoint *CheckpointID
	Finished   bool
	Changed    bool
}

// TaskRunner is the cooperative single-task executor the ACA drives. Not
// implemented here — this package only models the protocol around it
// (spec §4.F, §5).
type TaskRunner interface {
	PushInputData(ctx context.Context, channelID graph.ChannelId, cookie uint64, batch Batch) error
	PushAsyncInput(ctx context.Context, sourceIndex int, batch Batch) error
	ContinueRun(ctx context.Context, req ContinueRunRequest) (<-chan RunFinished, error)
	PopOutput(ctx context.Context, req PopRequest) (<-chan OutputChannelRaw, error)
	PopSinkData(ctx context.Context, sinkIndex int, budget int64) (<-chan SinkBatch, error)
	SaveState(ctx context.Context) ([]byte, error)
}

// Actor is the ACA (spec §4.F).
type Actor struct {
	state  State
	runner TaskRunner

	inputs  map[graph.ChannelId]*InputChannel
	sources map[int]*Source
	outputs map[graph.ChannelId]*OutputChannel
	sinks   map[int]*Sink

	watermarks *WatermarksTracker
	endpoints  *Endpoints
	checkpoint Coordinator

	mkqlMemoryLimit int64

	checkpointRequested bool
	pendingCheckpoint   *CheckpointID
}

// NewActor builds an Actor over the given channels/sources/outputs/sinks.
func NewActor(runner TaskRunner, inputs []*InputChannel, sources []*Source, outputs []*OutputChannel, sinks []*Sink, mkqlMemoryLimit int64) *Actor {
	a := &Actor{
		state:           StateCreated,
		runner:          runner,
		inputs:          make(map[graph.ChannelId]*InputChannel, len(inputs)),
		sources:         make(map[int]*Source, len(sources)),
		outputs:         make(map[graph.ChannelId]*OutputChannel, len(outputs)),
		sinks:           make(map[int]*Sink, len(sinks)),
		watermarks:      NewWatermarksTracker(),
		mkqlMemoryLimit: mkqlMemoryLimit,
	}
	var outIDs []graph.ChannelId
	for _, o := range outputs {
		a.outputs[o.ChannelID] = o
		outIDs = append(outIDs, o.ChannelID)
	}
	var sinkIdx []int
	for _, s := range sinks {
		a.sinks[s.Index] = s
		sinkIdx = append(sinkIdx, s.Index)
	}
	for _, in := range inputs {
		a.inputs[in.ChannelID] = in
	}
	for _, s := range sources {
		a.sources[s.Index] = s
	}
	a.endpoints = NewEndpoints(outIDs, sinkIdx)
	return a
}

// Bootstrap transitions Created -> Bootstrapped (spec §4.F).
func (a *Actor) Bootstrap() { a.state = StateBootstrapped }

// State reports the ACA's current lifecycle state.
func (a *Actor) State() State { return a.state }

// MKQLMemoryLimit reports the memory limit supplied at construction (spec
// §5 "Resource discipline").
func (a *Actor) MKQLMemoryLimit() int64 { return a.mkqlMemoryLimit }

// RequestCheckpoint arms id to be carried on the next ContinueRun (spec
// §4.F step 4).
func (a *Actor) RequestCheckpoint(id CheckpointID) {
	a.pendingCheckpoint = &id
}

// watermarkedInputs returns the channel ids of every input channel whose
// watermark mode is not disabled (spec §4.F step 3).
func (a *Actor) watermarkedInputs() []graph.ChannelId {
	var ids []graph.ChannelId
	for id, in := range a.inputs {
		if in.WatermarksMode != WatermarkDisabled {
			ids = append(ids, id)
		}
	}
	return ids
}

func (a *Actor) pendingWatermarkRequest() *int64 {
	wm, ok := a.watermarks.Pending()
	if !ok {
		return nil
	}
	if !a.watermarks.MayInject(wm, a.watermarkedInputs()) {
		return nil
	}
	return &wm
}

// Step runs one ACA run cycle: builds the ContinueRun request, drives it to
// completion, applies the result, and drains any unfinished output channels
// (spec §4.F "Running"). Sinks are listed in the request but not drained
// here.
func (a *Actor) Step(ctx context.Context) (finished bool, err error) {
	a.state = StateRunning

	req := ContinueRunRequest{WatermarkRequest: a.pendingWatermarkRequest()}
	if a.pendingCheckpoint != nil && !a.checkpointRequested {
		req.CheckpointRequest = a.pendingCheckpoint
		a.checkpointRequested = true
	}
	for id := range a.outputs {
		req.OutputChannels = append(req.OutputChannels, id)
	}
	for idx := range a.sinks {
		req.Sinks = append(req.Sinks, idx)
	}

	ch, err := a.runner.ContinueRun(ctx, req)
	if err != nil {
		return false, err
	}
	var rf RunFinished
	select {
	case rf = <-ch:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	if rf.Status != qerrors.CodeUnspecified {
		return false, qerrors.New(rf.Status, "task runner reported %s", rf.Status)
	}

	for id, fs := range rf.InputChannelFreeSpace {
		if in, ok := a.inputs[id]; ok {
			in.FreeSpace = fs
		}
	}
	for idx, fs := range rf.SourceFreeSpace {
		if s, ok := a.sources[idx]; ok {
			s.FreeSpace = fs
		}
	}
	for _, outID := range rf.WatermarkInjectedToOutputs {
		_ = outID // observed; resumption below happens once as many outputs as the task has have reported it
	}
	if req.WatermarkRequest != nil && len(rf.WatermarkInjectedToOutputs) >= len(a.outputs) {
		a.resumeInputsPausedByWatermark(*req.WatermarkRequest)
	}

	if len(rf.ProgramState) > 0 && a.pendingCheckpoint != nil {
		if err := a.checkpoint.Commit(*a.pendingCheckpoint); err != nil {
			return false, err
		}
		a.pendingCheckpoint = nil
		a.checkpointRequested = false
	}

	if err := a.drainOutputs(ctx); err != nil {
		return false, err
	}

	if a.endpoints.MayTerminate() {
		a.state = StateFinished
		return true, nil
	}
	return false, nil
}

func (a *Actor) resumeInputsPausedByWatermark(wm int64) {
	for _, in := range a.inputs {
		if in.IsPaused {
			in.IsPaused = false
		}
	}
	a.watermarks.MarkInjected(wm)
}

type allFreeTracker struct{}

func (allFreeTracker) ShouldSkipData(graph.ChannelId) bool { return false }
func (allFreeTracker) HasFreeMemory(graph.ChannelId) bool  { return true }

func (a *Actor) drainOutputs(ctx context.Context) error {
	for id, out := range a.outputs {
		if out.Finished {
			continue
		}
		action := out.DrainOutputChannel(allFreeTracker{}, 0)
		if action.Pop == nil {
			continue
		}
		ch, err := a.runner.PopOutput(ctx, *action.Pop)
		if err != nil {
			return err
		}
		var raw OutputChannelRaw
		select {
		case raw = <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		res := out.OutputChannelData(allFreeTracker{}, raw.Chunks, raw.Watermark, raw.Checkpoint, raw.Finished, raw.Changed)
		if res.JustFinished {
			a.endpoints.MarkOutputFinished(id)
		}
	}
	return nil
}
