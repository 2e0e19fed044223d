package compute

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
)

// Endpoints tracks which outputs/sinks a task must finish before it may
// terminate (spec §8 invariant 4: "finished_output_channels ∪
// finished_sinks == outputs ⇔ task may terminate").
type Endpoints struct {
	requiredOutputs mapset.Set[graph.ChannelId]
	requiredSinks   mapset.Set[int]

	finishedOutputs mapset.Set[graph.ChannelId]
	finishedSinks   mapset.Set[int]
}

// NewEndpoints builds an Endpoints tracker for the given required output
// channels and sink indices.
func NewEndpoints(outputs []graph.ChannelId, sinks []int) *Endpoints {
	return &Endpoints{
		requiredOutputs: mapset.NewSet(outputs...),
		requiredSinks:   mapset.NewSet(sinks...),
		finishedOutputs: mapset.NewSet[graph.ChannelId](),
		finishedSinks:   mapset.NewSet[int](),
	}
}

// MarkOutputFinished records ch as finished.
func (e *Endpoints) MarkOutputFinished(ch graph.ChannelId) { e.finishedOutputs.Add(ch) }

// MarkSinkFinished records sink as finished.
func (e *Endpoints) MarkSinkFinished(sink int) { e.finishedSinks.Add(sink) }

// MayTerminate implements spec §8 invariant 4.
func (e *Endpoints) MayTerminate() bool {
	return e.finishedOutputs.Equal(e.requiredOutputs) && e.finishedSinks.Equal(e.requiredSinks)
}
