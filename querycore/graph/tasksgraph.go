package graph

import "sync/atomic"

// TasksGraph is the central arena that owns all stages, tasks and channels
// for one transaction set. Tasks refer to channels by id and channels refer
// to endpoints by id — there is no owning pointer graph (spec §9). It also
// hands out short-lived allocations for per-task wire-protobuf construction
// via Allocate, freed with the graph itself.
type TasksGraph struct {
	stages   map[StageId]*Stage
	tasks    map[TaskId]*Task
	channels map[ChannelId]*Channel

	stageOrder []StageId
	taskOrder  []TaskId

	nextTaskID    uint64
	nextChannelID uint64

	frozen bool
	arena  []any
}

// NewTasksGraph returns an empty, mutable graph.
func NewTasksGraph() *TasksGraph {
	return &TasksGraph{
		stages:   make(map[StageId]*Stage),
		tasks:    make(map[TaskId]*Task),
		channels: make(map[ChannelId]*Channel),
	}
}

// AddStage registers a stage. Build-time only.
func (g *TasksGraph) AddStage(s *Stage) {
	g.stages[s.ID] = s
	g.stageOrder = append(g.stageOrder, s.ID)
}

// Stage looks up a stage by id.
func (g *TasksGraph) Stage(id StageId) (*Stage, bool) {
	s, ok := g.stages[id]
	return s, ok
}

// Stages returns every stage in declaration order.
func (g *TasksGraph) Stages() []*Stage {
	out := make([]*Stage, 0, len(g.stageOrder))
	for _, id := range g.stageOrder {
		out = append(out, g.stages[id])
	}
	return out
}

// StageTasks returns the tasks belonging to stage, in declaration order.
func (g *TasksGraph) StageTasks(stage StageId) []*Task {
	var out []*Task
	for _, id := range g.taskOrder {
		t := g.tasks[id]
		if t.Stage == stage {
			out = append(out, t)
		}
	}
	return out
}

// NewTask allocates a fresh TaskId, registers the task, and returns it.
func (g *TasksGraph) NewTask(stage StageId, meta TaskMeta) *Task {
	id := TaskId(atomic.AddUint64(&g.nextTaskID, 1))
	t := &Task{ID: id, Stage: stage, Meta: meta}
	g.tasks[id] = t
	g.taskOrder = append(g.taskOrder, id)
	return t
}

// Task looks up a task by id.
func (g *TasksGraph) Task(id TaskId) (*Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// Tasks returns every task in the graph, in creation order.
func (g *TasksGraph) Tasks() []*Task {
	out := make([]*Task, 0, len(g.taskOrder))
	for _, id := range g.taskOrder {
		out = append(out, g.tasks[id])
	}
	return out
}

// NewChannel allocates a fresh ChannelId, registers ch (whose ID field is
// overwritten) and checks that its endpoint tasks belong to the stages it
// names. It does not add the id to the endpoint tasks' Input/Output channel
// lists; callers do that.
func (g *TasksGraph) NewChannel(ch Channel) (*Channel, error) {
	id := ChannelId(atomic.AddUint64(&g.nextChannelID, 1))
	ch.ID = id
	stored := &ch
	g.channels[id] = stored
	if err := stored.checkEndpoints(g); err != nil {
		return nil, err
	}
	return stored, nil
}

// Channel looks up a channel by id.
func (g *TasksGraph) Channel(id ChannelId) (*Channel, bool) {
	c, ok := g.channels[id]
	return c, ok
}

// Channels returns every channel in the graph.
func (g *TasksGraph) Channels() []*Channel {
	out := make([]*Channel, 0, len(g.channels))
	for _, c := range g.channels {
		out = append(out, c)
	}
	return out
}

// Allocate hands out a short-lived value owned by the graph's arena; it is
// released (GC-eligible) only when the graph itself is, mirroring the
// source's GetMeta().Allocate<T>() (spec §9).
func Allocate[T any](g *TasksGraph, v T) *T {
	p := new(T)
	*p = v
	g.arena = append(g.arena, p)
	return p
}

// Freeze marks the graph immutable: it must be built once per transaction
// set, then frozen before dispatch (spec §3 Lifecycle).
func (g *TasksGraph) Freeze() { g.frozen = true }

// Frozen reports whether Freeze has been called.
func (g *TasksGraph) Frozen() bool { return g.frozen }

// Validate checks the graph-wide invariants of spec §8: no non-effects stage
// has both reads and writes (a stage with neither passes), every task has
// its stage's input count, and every channel's endpoints belong to the
// stages it names.
func (g *TasksGraph) Validate() error {
	for _, s := range g.stages {
		if s.Meta.IsEffectsOnly {
			continue
		}
		if err := s.CheckReadXorWrite(); err != nil {
			return err
		}
	}
	for _, t := range g.tasks {
		stage, ok := g.Stage(t.Stage)
		if !ok {
			return qerrorsChannelEndpointMismatch(0, "task references unknown stage")
		}
		if err := t.checkInputCount(stage); err != nil {
			return err
		}
	}
	for _, c := range g.channels {
		if err := c.checkEndpoints(g); err != nil {
			return err
		}
	}
	return nil
}
