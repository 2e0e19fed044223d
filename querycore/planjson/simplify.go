package planjson

import (
	"fmt"
	"strings"
)

// plumbingNodeTypes are wrapper Node Types that carry no information beyond
// "pass the child through" and are dropped by Simplify (spec §4.D step 3).
var plumbingNodeTypes = map[string]bool{
	"UnionAll": true, "Broadcast": true, "Map": true, "Merge": true,
	"Collect": true,
}

// plumbingOperatorNames are stage-body operators dropped from the
// simplified view's Operators list; they are expression-tree scaffolding
// with no user-visible meaning (spec §4.D step 3).
var plumbingOperatorNames = map[string]bool{
	"Iterator": true, "PartitionByKey": true, "ToFlow": true,
	"Member": true, "AssumeSorted": true, "CombineByKey": true,
}

// Simplify derives the SimplifiedPlan from a fully expanded Plan tree (spec
// §4.D). It is idempotent: Simplify(Simplify(p)) produces the same shape as
// Simplify(p), since every pass it performs is already a fixed point over
// its own output (plumbing removal, TableLookupJoin split and HashShuffle
// renaming all produce nodes outside their own trigger sets).
func Simplify(root *Node) *Node {
	if root == nil {
		return nil
	}
	out := simplifyNode(root)
	rollupCPU(out)
	return out
}

func simplifyNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Plans = nil

	for _, child := range n.Plans {
		s := simplifyNode(child)
		if s == nil {
			continue
		}
		if isPlumbing(s) && len(s.Plans) <= 1 {
			if len(s.Plans) == 1 {
				clone.Plans = append(clone.Plans, s.Plans[0])
			}
			continue
		}
		clone.Plans = append(clone.Plans, s)
	}

	switch clone.NodeType {
	case "TableLookupJoin":
		return splitTableLookupJoin(&clone)
	case "HashShuffle":
		clone.NodeType = hashShuffleLabel(&clone)
	}

	clone.Operators = filterPlumbingOperators(n.Operators)
	return &clone
}

// isPlumbing reports whether n is redundant and should be spliced out of
// its parent's Plans. A generic "Stage" node is plumbing only when its
// stage body carried no operators (a pure forwarding stage); one with an
// expression tree still attached is kept so its Operators aren't lost.
func isPlumbing(n *Node) bool {
	if n.NodeType == "Stage" {
		return len(n.Operators) == 0
	}
	if plumbingNodeTypes[n.NodeType] {
		return true
	}
	return strings.Contains(n.NodeType, "Precompute")
}

// splitTableLookupJoin special-cases a TableLookupJoin connection into a
// two-node (LookupJoin, TableLookup) pair (spec §4.D step 2).
func splitTableLookupJoin(n *Node) *Node {
	lookup := &Node{
		NodeType:   "TableLookup",
		PlanNodeId: n.PlanNodeId,
		KeyColumns: n.KeyColumns,
		Plans:      n.Plans,
	}
	return &Node{
		NodeType:    "LookupJoin",
		PlanNodeId:  n.PlanNodeId,
		PlanNodeType: n.PlanNodeType,
		StageGuid:   n.StageGuid,
		Plans:       []*Node{lookup},
	}
}

// hashShuffleLabel stringifies a HashShuffle node's type including its key
// columns and hash function (spec §4.D step 2).
func hashShuffleLabel(n *Node) string {
	return fmt.Sprintf("HashShuffle (KeyColumns: %s, HashFunc: %s)", n.KeyColumns, n.HashFunc)
}

func filterPlumbingOperators(ops []*Operator) []*Operator {
	if len(ops) == 0 {
		return nil
	}
	removed := make(map[int]bool, len(ops))
	for _, op := range ops {
		if plumbingOperatorNames[op.Name] {
			removed[op.internalID] = true
		}
	}
	if len(removed) == 0 {
		return ops
	}
	out := make([]*Operator, 0, len(ops))
	for _, op := range ops {
		if removed[op.internalID] {
			continue
		}
		out = append(out, op)
	}
	return out
}

// rollupCPU implements spec §4.D step 4: each node's A-Cpu is its own
// self-cpu plus the sum of its children's rolled-up A-Cpu.
func rollupCPU(n *Node) int64 {
	if n == nil {
		return 0
	}
	var self int64
	if n.Stats != nil {
		self = n.Stats.SelfCpuUs
	}
	total := self
	for _, c := range n.Plans {
		total += rollupCPU(c)
	}
	if total > 0 {
		n.ACpu = fmt.Sprintf("%dus", total)
	}
	return total
}
