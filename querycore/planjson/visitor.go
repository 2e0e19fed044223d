package planjson

import (
	"fmt"

	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

const recursionBudget = 10000

// TArgContext is a stack of lambda-argument frames, mapping an argument name
// to the operator/plan node that feeds it (spec §4.D).
type TArgContext struct {
	frames []map[string]NodeRef
}

// Push opens a new argument-binding frame.
func (c *TArgContext) Push(binds map[string]NodeRef) {
	c.frames = append(c.frames, binds)
}

// Pop closes the most recently opened frame.
func (c *TArgContext) Pop() {
	if len(c.frames) > 0 {
		c.frames = c.frames[:len(c.frames)-1]
	}
}

// Resolve looks an argument name up from the innermost frame outward.
func (c *TArgContext) Resolve(name string) (NodeRef, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if ref, ok := c.frames[i][name]; ok {
			return ref, true
		}
	}
	return NodeRef{}, false
}

// Visitor walks a QueryIn into a Document (spec §4.D).
type Visitor struct {
	q       QueryIn
	nextID  int
	visited map[string]*Node // StageGuid -> first-visit node, for CTE dedup
	args    TArgContext
	depth   int
}

// Build produces the full + simplified plan Document for q.
func Build(q QueryIn) (*Document, error) {
	v := &Visitor{q: q, visited: map[string]*Node{}}

	doc := &Document{
		Meta:   Meta{Version: "0.2", Type: q.Type},
		Tables: q.Tables,
	}

	phases := make([]*Node, 0, len(q.Txs))
	for i := range q.Txs {
		phase, err := v.visitTx(&q.Txs[i])
		if err != nil {
			return nil, err
		}
		phases = append(phases, phase)
	}

	switch len(phases) {
	case 0:
		doc.Plan = &Node{NodeType: "Query", PlanNodeId: v.alloc()}
	case 1:
		doc.Plan = phases[0]
	default:
		doc.Plan = &Node{NodeType: "Query", PlanNodeId: v.alloc(), Plans: phases}
	}

	doc.SimplifiedPlan = Simplify(doc.Plan)
	return doc, nil
}

func (v *Visitor) alloc() int {
	v.nextID++
	return v.nextID
}

func (v *Visitor) visitTx(tx *TxIn) (*Node, error) {
	phase := &Node{NodeType: "Phase", PlanNodeId: v.alloc()}

	for _, r := range tx.Results {
		n, err := v.visitResult(tx, r)
		if err != nil {
			return nil, err
		}
		phase.Plans = append(phase.Plans, n)
	}
	for _, idx := range tx.Effects {
		n, err := v.visitStage(tx, idx)
		if err != nil {
			return nil, err
		}
		phase.Plans = append(phase.Plans, n)
	}
	return phase, nil
}

func (v *Visitor) visitResult(tx *TxIn, r ResultRefIn) (*Node, error) {
	stageNode, err := v.visitStage(tx, r.StageIndex)
	if err != nil {
		return nil, err
	}
	wrapper := &Node{NodeType: string(r.Kind), PlanNodeId: v.alloc(), Plans: []*Node{stageNode}}
	if r.Kind == Precompute {
		wrapper.SubplanName = r.Name
		stageNode.CTEName = r.Name
	}
	return wrapper, nil
}

func (v *Visitor) visitStage(tx *TxIn, stageIdx int) (*Node, error) {
	v.depth++
	defer func() { v.depth-- }()
	if v.depth > recursionBudget {
		return nil, qerrors.New(qerrors.CodeInternal, "plan recursion budget exceeded")
	}
	if stageIdx < 0 || stageIdx >= len(tx.Stages) {
		return nil, qerrors.New(qerrors.CodeInternal, "plan references unknown stage index %d", stageIdx)
	}
	stage := &tx.Stages[stageIdx]

	if prior, ok := v.visited[stage.Guid]; ok {
		return &Node{
			NodeType:   fmt.Sprintf("CTE %s_%d", prior.NodeType, prior.PlanNodeId),
			PlanNodeId: v.alloc(),
		}, nil
	}

	node := &Node{
		PlanNodeType: "Stage",
		PlanNodeId:   v.alloc(),
		StageGuid:    stage.Guid,
	}
	v.visited[stage.Guid] = node

	for _, in := range stage.Inputs {
		child, err := v.visitStageInput(tx, in)
		if err != nil {
			return nil, err
		}
		node.Plans = append(node.Plans, child)
	}

	ops, err := v.buildOperators(stage.Operators)
	if err != nil {
		return nil, err
	}
	node.Operators = ops
	node.NodeType = stageNodeType(stage, ops)

	return node, nil
}

func (v *Visitor) visitStageInput(tx *TxIn, in StageInputIn) (*Node, error) {
	if !in.IsConnection {
		n := &Node{
			NodeType:           "Source",
			PlanNodeId:         v.alloc(),
			SourceType:         in.SourceType,
			ExternalDataSource: in.ExternalDataSource,
		}
		if in.Stats != nil {
			n.Stats = &Stats{
				Rows:  fmt.Sprintf("%d", in.Stats.Rows),
				Bytes: fmt.Sprintf("%d", in.Stats.Bytes),
			}
		}
		return n, nil
	}

	n := &Node{
		NodeType:    in.ConnType,
		PlanNodeId:  v.alloc(),
		KeyColumns:  in.KeyColumns,
		SortColumns: in.SortColumns,
		HashFunc:    in.HashFunc,
	}
	upstream, err := v.visitStage(tx, in.FromStage)
	if err != nil {
		return nil, err
	}
	n.Plans = append(n.Plans, upstream)
	return n, nil
}

// stageNodeType names the stage's own plan node: when the stage body is a
// single operator with no branching it takes that operator's resolved name
// directly (the common scan-only or write-only stage); otherwise "Stage".
func stageNodeType(stage *StageIn, ops []*Operator) string {
	if stage.Root >= 0 && len(ops) == 1 {
		return ops[0].Name
	}
	return "Stage"
}

func (v *Visitor) buildOperators(in []OperatorIn) ([]*Operator, error) {
	out := make([]*Operator, 0, len(in))
	for i, op := range in {
		o := &Operator{internalID: i}
		switch op.Kind {
		case OpTableRead:
			class := classifyRead(op.Ranges, op.PKLen)
			o.Name = readOpName(class)
			o.Table = op.Table
			o.ReadType = readTypeLabel(class)
			o.ReadRanges = renderRanges(op.Ranges)
		default:
			o.Name = string(op.Kind)
			o.Table = op.Table
		}
		o.Condition = op.Filter
		o.AggPhase = op.AggPhase
		o.JoinKind = op.JoinKind

		for _, ref := range op.Inputs {
			o.Inputs = append(o.Inputs, v.resolveRef(ref))
		}

		if op.Cost != nil && v.q.CBOLevel > 0 {
			o.ERows = fmt.Sprintf("%.2f", op.Cost.Rows)
			o.ECost = fmt.Sprintf("%.2f", op.Cost.Cost)
			o.ESize = fmt.Sprintf("%.2f", op.Cost.Size)
		} else {
			o.ERows, o.ECost, o.ESize = "No estimate", "No estimate", "No estimate"
		}

		if op.Binds != nil {
			v.args.Push(op.Binds)
		}
		if op.PopBind {
			v.args.Pop()
		}

		out = append(out, o)
	}
	return out, nil
}

func (v *Visitor) resolveRef(ref NodeRef) InputRef {
	if ref.ArgName != "" {
		if resolved, ok := v.args.Resolve(ref.ArgName); ok {
			ref = resolved
		}
	}
	if ref.External {
		return extRef(ref.ID)
	}
	return intRef(ref.ID)
}

func readTypeLabel(c ReadClass) string {
	switch c {
	case ReadFullScan:
		return "FullScan"
	case ReadLookup:
		return "Lookup"
	case ReadMultiLookup:
		return "MultiLookup"
	default:
		return "Scan"
	}
}
