package planjson

import "fmt"

// ExecStats is the host's DqExecutionStats projection, keyed by stage guid
// (spec §4.D's add_exec_stats_to_tx_plan).
type ExecStats struct {
	Stages map[string]StageExecStats
}

// StageExecStats is one stage's aggregate execution statistics.
type StageExecStats struct {
	Min, Max, Sum string
	Cnt           int64
	History       []float64
	SelfCpuUs     int64
	Inputs        []AsyncStats
	Outputs       []AsyncStats
	Tasks         []TaskStats
	Operators     map[int]OperatorExecStats // keyed by operator position within the stage
}

// OperatorExecStats is one operator's matched actual row/byte counts.
type OperatorExecStats struct {
	Rows, Bytes int64
}

// AttachStats joins exec into doc's full plan, mutating it in place, then
// re-derives SimplifiedPlan so the A-Cpu rollup reflects the attached
// figures (spec §4.D).
func AttachStats(doc *Document, exec ExecStats) {
	attachStatsNode(doc.Plan, exec)
	doc.SimplifiedPlan = Simplify(doc.Plan)
}

func attachStatsNode(n *Node, exec ExecStats) {
	if n == nil {
		return
	}
	if n.StageGuid != "" {
		if s, ok := exec.Stages[n.StageGuid]; ok {
			n.Stats = &Stats{
				Rows:      s.Sum,
				History:   s.History,
				SelfCpuUs: s.SelfCpuUs,
				Inputs:    s.Inputs,
				Outputs:   s.Outputs,
				Tasks:     s.Tasks,
			}
			for i, op := range n.Operators {
				if matched, ok := s.Operators[i]; ok {
					op.ARows = fmt.Sprintf("%d", matched.Rows)
					op.ASize = fmt.Sprintf("%d", matched.Bytes)
				}
			}
		}
	}
	for _, c := range n.Plans {
		attachStatsNode(c, exec)
	}
}
