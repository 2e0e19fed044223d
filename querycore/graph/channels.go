package graph

// buildStageChannels implements spec §4.B "Channel wiring —
// build_stage_channels(graph, stage, enable_spilling, enable_shuffle_elimination)".
func (b *Builder) buildStageChannels(stage *Stage, phy *PhyStage) error {
	tasks := b.Graph.StageTasks(stage.ID)

	if stage.Meta.IsEffectsOnly && len(stage.Meta.Sinks) == 0 {
		for _, t := range tasks {
			if len(t.Outputs) > 0 {
				t.Outputs[0].Kind = OutputEffects
			}
		}
	}

	if b.Opts.EnableShuffleElimination && !stage.Meta.FusedWithScan {
		b.propagateShuffleElimination(stage, phy, tasks)
	}

	for inputIdx, in := range phy.Inputs {
		if in.Connection == nil {
			continue // Source input, no channels to build
		}
		upstreamID := StageId{TxIndex: stage.ID.TxIndex, StageIndex: in.Connection.SrcStageIndex}
		upstream, ok := b.Graph.Stage(upstreamID)
		if !ok {
			return errUnknownUpstream(stage.ID, upstreamID)
		}
		upstreamTasks := b.Graph.StageTasks(upstreamID)
		inMemory := !b.Opts.EnableSpilling || upstream.OutputCount == 1

		var err error
		switch in.Connection.Kind {
		case ConnUnionAll:
			err = b.wireFanAll(upstream, upstreamTasks, tasks, inputIdx, OutputMap, in.Connection, inMemory)
		case ConnHashShuffle:
			err = b.wireHashShuffle(stage, upstream, upstreamTasks, tasks, inputIdx, in.Connection, inMemory)
		case ConnBroadcast:
			err = b.wireFanAll(upstream, upstreamTasks, tasks, inputIdx, OutputBroadcast, in.Connection, inMemory)
		case ConnMap:
			err = b.wireMap(upstream, upstreamTasks, tasks, inputIdx, in.Connection, inMemory, false)
		case ConnMerge:
			err = b.wireMap(upstream, upstreamTasks, tasks, inputIdx, in.Connection, inMemory, true)
		case ConnSequencer:
			err = b.wireTransform(upstream, upstreamTasks, tasks, inputIdx, in.Connection, inMemory, TransformSequencer)
		case ConnStreamLookup:
			err = b.wireTransform(upstream, upstreamTasks, tasks, inputIdx, in.Connection, inMemory, TransformStreamLookup)
		case ConnParallelUnionAll:
			err = b.wireParallelUnionAll(stage, upstream, upstreamTasks, tasks, inputIdx, in.Connection, inMemory)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// propagateShuffleElimination implements spec §4.B's propagation paragraph
// and the §9 Open Question resolution ("first in declaration order").
func (b *Builder) propagateShuffleElimination(stage *Stage, phy *PhyStage, tasks []*Task) {
	var lastInputParams *HashShuffleParams
	var mapParams []*HashShuffleParams

	if n := len(phy.Inputs); n > 0 {
		last := phy.Inputs[n-1]
		if last.Connection != nil {
			upstreamID := StageId{TxIndex: stage.ID.TxIndex, StageIndex: last.Connection.SrcStageIndex}
			lastInputParams = b.prevHash[upstreamID]
		}
	}
	for _, in := range phy.Inputs {
		if in.Connection != nil && in.Connection.Kind == ConnMap {
			upstreamID := StageId{TxIndex: stage.ID.TxIndex, StageIndex: in.Connection.SrcStageIndex}
			mapParams = append(mapParams, b.prevHash[upstreamID])
		}
	}

	params := PickShuffleEliminationSource(lastInputParams, mapParams)
	if params == nil && isParallelUnionAllStage(phy) {
		params = NewTrivialHashParams(len(tasks))
	}
	if params != nil {
		stage.Meta.HashShuffle = params
		b.prevHash[stage.ID] = params
	}
}

func isParallelUnionAllStage(phy *PhyStage) bool {
	for _, in := range phy.Inputs {
		if in.Connection != nil && in.Connection.Kind == ConnParallelUnionAll {
			return true
		}
	}
	return false
}

// wireFanAll builds the |upstream|x|downstream| fan-out UnionAll/Broadcast
// wiring: every upstream task connects to every downstream task.
func (b *Builder) wireFanAll(upstream *Stage, upstreamTasks, downstreamTasks []*Task, inputIdx int, outKind OutputKind, conn *PhyConnection, inMemory bool) error {
	for _, ut := range upstreamTasks {
		for _, dt := range downstreamTasks {
			oi := outputIndexFor(ut, conn.SrcOutputIdx)
			ch, err := b.newChannel(upstream.ID, ut, dt, oi, inputIdx, inMemory)
			if err != nil {
				return err
			}
			ut.Outputs[oi].Kind = outKind
			ut.Outputs[oi].Channels = append(ut.Outputs[oi].Channels, ch.ID)
			dt.Inputs[inputIdx].Kind = InputUnionAll
			dt.Inputs[inputIdx].Channels = append(dt.Inputs[inputIdx].Channels, ch.ID)
		}
	}
	return nil
}

func (b *Builder) wireHashShuffle(stage, upstream *Stage, upstreamTasks, downstreamTasks []*Task, inputIdx int, conn *PhyConnection, inMemory bool) error {
	if conn.HashKind == HashColumnShardV1 {
		if err := ValidateColumnShardHashV1(conn.HashKeys, conn.HashColumnTypes); err != nil {
			return err
		}
	}

	// Shuffle elimination: when the upstream already carries a
	// ColumnShardHashV1 partitioning, this connection just reuses it rather
	// than re-shuffling, so only the downstream tasks that actually own a
	// shard under that mapping need a channel.
	wireTargets := downstreamTasks
	if conn.HashKind == HashColumnShardV1 {
		if inherited := b.prevHash[upstream.ID]; inherited != nil {
			active := ActiveTaskIndices(inherited)
			masked := make([]*Task, 0, len(downstreamTasks))
			for i, dt := range downstreamTasks {
				if active.Contains(uint32(i)) {
					masked = append(masked, dt)
				}
			}
			if len(masked) > 0 {
				wireTargets = masked
			}
		}
	}

	for _, ut := range upstreamTasks {
		for _, dt := range wireTargets {
			oi := outputIndexFor(ut, conn.SrcOutputIdx)
			ch, err := b.newChannel(upstream.ID, ut, dt, oi, inputIdx, inMemory)
			if err != nil {
				return err
			}
			ut.Outputs[oi].Kind = OutputHashPartition
			ut.Outputs[oi].HashKeys = conn.HashKeys
			ut.Outputs[oi].HashCount = len(downstreamTasks)
			ut.Outputs[oi].HashKind = conn.HashKind
			ut.Outputs[oi].Channels = append(ut.Outputs[oi].Channels, ch.ID)
			dt.Inputs[inputIdx].Kind = InputUnionAll
			dt.Inputs[inputIdx].Channels = append(dt.Inputs[inputIdx].Channels, ch.ID)
		}
	}
	if conn.HashKind == HashColumnShardV1 {
		params := &HashShuffleParams{
			SourceShardCount: len(upstreamTasks),
			TaskIndexByHash:  identityIndex(len(downstreamTasks)),
			KeyColumnTypes:   conn.HashColumnTypes,
		}
		for _, ut := range upstreamTasks {
			oi := outputIndexFor(ut, conn.SrcOutputIdx)
			ut.Outputs[oi].HashParams = params
		}
		b.prevHash[stage.ID] = params
	}
	return nil
}

func (b *Builder) wireMap(upstream *Stage, upstreamTasks, downstreamTasks []*Task, inputIdx int, conn *PhyConnection, inMemory, isMerge bool) error {
	if len(upstreamTasks) != len(downstreamTasks) {
		kind := "Map"
		if isMerge {
			kind = "Merge"
		}
		return errTaskCountMismatch(kind, len(upstreamTasks), len(downstreamTasks))
	}
	for i, ut := range upstreamTasks {
		dt := downstreamTasks[i]
		oi := outputIndexFor(ut, conn.SrcOutputIdx)
		ch, err := b.newChannel(upstream.ID, ut, dt, oi, inputIdx, inMemory)
		if err != nil {
			return err
		}
		ut.Outputs[oi].Kind = OutputMap
		ut.Outputs[oi].Channels = append(ut.Outputs[oi].Channels, ch.ID)
		if isMerge {
			dt.Inputs[inputIdx].Kind = InputMerge
			dt.Inputs[inputIdx].SortCols = conn.SortKeys
		} else {
			dt.Inputs[inputIdx].Kind = InputUnionAll
		}
		dt.Inputs[inputIdx].Channels = append(dt.Inputs[inputIdx].Channels, ch.ID)
	}
	return nil
}

func (b *Builder) wireTransform(upstream *Stage, upstreamTasks, downstreamTasks []*Task, inputIdx int, conn *PhyConnection, inMemory bool, kind TransformKind) error {
	if len(upstreamTasks) != len(downstreamTasks) {
		return errTaskCountMismatch("Sequencer/StreamLookup", len(upstreamTasks), len(downstreamTasks))
	}
	for i, ut := range upstreamTasks {
		dt := downstreamTasks[i]
		oi := outputIndexFor(ut, conn.SrcOutputIdx)
		ch, err := b.newChannel(upstream.ID, ut, dt, oi, inputIdx, inMemory)
		if err != nil {
			return err
		}
		ut.Outputs[oi].Kind = OutputMap
		ut.Outputs[oi].Channels = append(ut.Outputs[oi].Channels, ch.ID)
		dt.Inputs[inputIdx].Kind = InputUnionAll
		dt.Inputs[inputIdx].Channels = append(dt.Inputs[inputIdx].Channels, ch.ID)
		dt.Inputs[inputIdx].Transform = &Transform{Kind: kind, Settings: conn.LookupSettings.Settings}
	}
	return nil
}

// wireParallelUnionAll round-robins every upstream task across downstream
// tasks using a cursor shared across inputs of the same stage (spec §4.B).
func (b *Builder) wireParallelUnionAll(stage, upstream *Stage, upstreamTasks, downstreamTasks []*Task, inputIdx int, conn *PhyConnection, inMemory bool) error {
	if len(downstreamTasks) == 0 {
		return nil
	}
	for _, ut := range upstreamTasks {
		cur := b.cursor[stage.ID]
		dt := downstreamTasks[cur%len(downstreamTasks)]
		b.cursor[stage.ID] = cur + 1

		oi := outputIndexFor(ut, conn.SrcOutputIdx)
		ch, err := b.newChannel(upstream.ID, ut, dt, oi, inputIdx, inMemory)
		if err != nil {
			return err
		}
		ut.Outputs[oi].Kind = OutputMap
		ut.Outputs[oi].Channels = append(ut.Outputs[oi].Channels, ch.ID)
		dt.Inputs[inputIdx].Kind = InputUnionAll
		dt.Inputs[inputIdx].Channels = append(dt.Inputs[inputIdx].Channels, ch.ID)
	}
	return nil
}

func (b *Builder) newChannel(srcStage StageId, src, dst *Task, srcOutputIdx, dstInputIdx int, inMemory bool) (*Channel, error) {
	return b.Graph.NewChannel(Channel{
		SrcStage:         srcStage,
		SrcTask:          src.ID,
		SrcOutputIdx:     srcOutputIdx,
		DstStage:         dst.Stage,
		DstTask:          dst.ID,
		DstInputIdx:      dstInputIdx,
		InMemory:         inMemory,
		TransportVersion: TransportUVPickle10,
		IsPersistent:     srcStage.TxIndex != dst.Stage.TxIndex,
	})
}

// outputIndexFor returns idx as a task's output slot, growing t.Outputs to
// fit: a stage's outputs are keyed by the connection's declared output
// index (PhyConnection.SrcOutputIdx), not always slot 0, so that a stage
// with two downstream connections off the same output doesn't collide with
// one that legitimately has two distinct outputs (Precompute/CTE reuse).
func outputIndexFor(t *Task, idx int) int {
	for len(t.Outputs) <= idx {
		t.Outputs = append(t.Outputs, Output{})
	}
	return idx
}

func identityIndex(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
