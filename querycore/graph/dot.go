package graph

import (
	"fmt"

	"github.com/emicklei/dot"
)

// ToDOT renders the built graph as Graphviz DOT, a debugging companion to
// the EXPLAIN JSON plan (planjson.Visitor). One cluster per stage, one node
// per task, one edge per channel.
func (g *TasksGraph) ToDOT() string {
	d := dot.NewGraph(dot.Directed)
	d.Attr("rankdir", "LR")

	clusters := make(map[StageId]*dot.Graph)
	nodes := make(map[TaskId]dot.Node)

	for _, stage := range g.Stages() {
		cluster := d.Subgraph(fmt.Sprintf("stage_%d_%d", stage.ID.TxIndex, stage.ID.StageIndex), dot.ClusterOption{})
		cluster.Attr("label", fmt.Sprintf("Stage[%d,%d]", stage.ID.TxIndex, stage.ID.StageIndex))
		clusters[stage.ID] = cluster
	}

	for _, t := range g.Tasks() {
		cluster, ok := clusters[t.Stage]
		if !ok {
			cluster = d
		}
		n := cluster.Node(fmt.Sprintf("task_%d", t.ID))
		n.Attr("label", fmt.Sprintf("Task %d%s", t.ID, taskSuffix(t)))
		nodes[t.ID] = n
	}

	for _, c := range g.Channels() {
		src, okSrc := nodes[c.SrcTask]
		dst, okDst := nodes[c.DstTask]
		if !okSrc || !okDst {
			continue
		}
		e := d.Edge(src, dst)
		if c.IsPersistent {
			e.Attr("style", "dashed")
		}
		if !c.InMemory {
			e.Attr("color", "red")
		}
	}

	return d.String()
}

func taskSuffix(t *Task) string {
	if t.Meta.ScanTask {
		return " (scan)"
	}
	return ""
}
