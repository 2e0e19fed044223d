package graph

// TransportVersion selects the wire pickling format of a channel (spec §6).
type TransportVersion int

const (
	TransportUVPickle10 TransportVersion = iota
	TransportOOBPickle10
)

// Channel is a one-way, ordered, in-order-acknowledged pipe between two
// tasks. Endpoints are referenced by id, never owned (spec §3).
type Channel struct {
	ID               ChannelId
	SrcStage         StageId
	SrcTask          TaskId
	SrcOutputIdx     int
	DstStage         StageId
	DstTask          TaskId
	DstInputIdx      int
	InMemory         bool
	TransportVersion TransportVersion
	IsPersistent     bool // crosses shards
}

// checkEndpoints enforces spec §8 invariant 1: a channel's src/dst tasks
// belong to the stages it names.
func (c *Channel) checkEndpoints(g *TasksGraph) error {
	srcTask, ok := g.Task(c.SrcTask)
	if !ok || srcTask.Stage != c.SrcStage {
		return qerrorsChannelEndpointMismatch(c.ID, "src")
	}
	dstTask, ok := g.Task(c.DstTask)
	if !ok || dstTask.Stage != c.DstStage {
		return qerrorsChannelEndpointMismatch(c.ID, "dst")
	}
	return nil
}
