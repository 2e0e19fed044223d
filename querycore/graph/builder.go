package graph

// Builder implements spec §4.B: fill_stages then build_stage_channels,
// turning a list of PhyTx into a wired TasksGraph.
type Builder struct {
	Graph   *TasksGraph
	Opts    BuildOptions
	phy     map[StageId]*PhyStage
	// prevHash records the HashShuffleParams a stage's column-shard-hashed
	// output carries, for shuffle-elimination propagation into downstream
	// stages.
	prevHash map[StageId]*HashShuffleParams
	// cursor is ParallelUnionAll's shared round-robin pointer, keyed by
	// stage only, so every input of the same stage shares one cursor.
	cursor map[StageId]int
}

// NewBuilder returns a Builder writing into a fresh TasksGraph.
func NewBuilder(opts BuildOptions) *Builder {
	return &Builder{
		Graph:    NewTasksGraph(),
		Opts:     opts,
		phy:      make(map[StageId]*PhyStage),
		prevHash: make(map[StageId]*HashShuffleParams),
		cursor:   make(map[StageId]int),
	}
}

// Build runs fill_stages then build_stage_channels over every stage of
// every transaction, and freezes the resulting graph.
func (b *Builder) Build(txs []PhyTx) (*TasksGraph, error) {
	if err := b.fillStages(txs); err != nil {
		return nil, err
	}
	for _, stage := range b.Graph.Stages() {
		phy := b.phy[stage.ID]
		if err := b.buildStageChannels(stage, phy); err != nil {
			return nil, err
		}
	}
	if err := b.Graph.Validate(); err != nil {
		return nil, err
	}
	b.Graph.Freeze()
	return b.Graph, nil
}

// fillStages classifies every stage's sources, inputs and sinks, infers its
// table id, and creates its tasks (spec §4.B "Contract — fill_stages").
func (b *Builder) fillStages(txs []PhyTx) error {
	for txIdx, tx := range txs {
		outputCounts := stageOutputCounts(tx)
		for stageIdx := range tx.Stages {
			phy := tx.Stages[stageIdx]
			id := StageId{TxIndex: txIdx, StageIndex: stageIdx}
			stage := &Stage{ID: id, Guid: phy.Guid, Meta: StageMeta{IsEffectsOnly: phy.IsEffects}}

			if err := classifyStage(stage, &phy); err != nil {
				return err
			}
			stage.InputCount = len(phy.Inputs)
			if len(phy.Sinks) > 0 {
				stage.OutputCount = 0 // sink-only stages have no downstream data outputs
			} else {
				stage.OutputCount = outputCounts[stageIdx]
				if stage.OutputCount == 0 {
					// No downstream connection names this stage's output at
					// all (e.g. a terminal effects-only stage): it still
					// carries a single output 0 slot.
					stage.OutputCount = 1
				}
			}

			b.Graph.AddStage(stage)
			b.phy[id] = &phy

			n := phy.TaskCount
			if n <= 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				meta := TaskMeta{ScanTask: stage.Meta.FusedWithScan}
				t := b.Graph.NewTask(id, meta)
				t.Inputs = make([]Input, stage.InputCount)
				t.Outputs = make([]Output, stage.OutputCount)
				for idx, in := range phy.Inputs {
					if in.Source != nil {
						t.Inputs[idx] = Input{Kind: InputSource, Settings: in.Source.Settings}
					}
				}
			}
		}
	}
	return nil
}

// classifyStage implements the source/sink/table-op classification rules of
// spec §4.B.
func classifyStage(stage *Stage, phy *PhyStage) error {
	for i, in := range phy.Inputs {
		if in.Source == nil {
			continue
		}
		switch in.Source.Kind {
		case SourceReadRanges:
			if i != 0 {
				return errReadRangesMustBeFirst(stage.ID)
			}
			stage.Meta.TableID = firstNonEmpty(stage.Meta.TableID, in.Source.TableID)
			stage.Meta.Ops = stage.Meta.Ops.With(TableOpRead)
			stage.Meta.Sources = append(stage.Meta.Sources, SourceDescriptor{
				Type: "ReadRangesSource", Settings: in.Source.Settings,
			})
		case SourceExternal:
			if !in.Source.Embedded {
				stage.Meta.Sources = append(stage.Meta.Sources, SourceDescriptor{
					Type: "ExternalSource", Settings: in.Source.Settings, Embedded: false,
				})
			}
		}
	}

	for _, sink := range phy.Sinks {
		stage.Meta.Sinks = append(stage.Meta.Sinks, SinkDescriptor{
			Type: sink.Type, Settings: sink.Settings, Mode: sink.Mode,
		})
		stage.Meta.Ops = stage.Meta.Ops | sink.Mode.Ops()
	}
	if len(phy.Sinks) > 1 {
		return errMultipleSinks(stage.ID)
	}

	for _, op := range phy.TableOps {
		if stage.Meta.TableID == "" {
			stage.Meta.TableID = op.TableID
		} else if op.TableID != stage.Meta.TableID {
			return errTableMismatch(stage.ID, stage.Meta.TableID, op.TableID)
		}
		stage.Meta.Ops = stage.Meta.Ops.With(op.Op)
	}

	if !stage.Meta.IsEffectsOnly {
		if err := stage.CheckReadXorWrite(); err != nil {
			return err
		}
	}
	return nil
}

// stageOutputCounts derives each stage index's output count from the
// distinct output indices its downstream connections declare (spec §4.B's
// positional outputs[] model), rather than assuming a single output:
// Precompute/CTE-reuse stages feed more than one downstream connection off
// distinct output slots of the same stage (spec §4.D).
func stageOutputCounts(tx PhyTx) map[int]int {
	counts := make(map[int]int)
	for _, phy := range tx.Stages {
		for _, in := range phy.Inputs {
			if in.Connection == nil {
				continue
			}
			need := in.Connection.SrcOutputIdx + 1
			if counts[in.Connection.SrcStageIndex] < need {
				counts[in.Connection.SrcStageIndex] = need
			}
		}
	}
	return counts
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
