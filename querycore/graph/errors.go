package graph

import "github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"

func errReadsAndWrites(id StageId) error {
	return qerrors.New(qerrors.CodeBadRequest,
		"stage %+v has both reads and writes; a transactional stage must have exactly one", id)
}

func errTableMismatch(id StageId, stageTable, opTable string) error {
	return qerrors.New(qerrors.CodeBadRequest,
		"stage %+v: table op addresses %q but stage's inferred table is %q", id, opTable, stageTable)
}

func errTaskCountMismatch(kind string, up, down int) error {
	return qerrors.New(qerrors.CodeBadRequest,
		"%s connection requires equal task counts, got upstream=%d downstream=%d", kind, up, down)
}

func errHashArity(keys, types int) error {
	return qerrors.New(qerrors.CodeBadRequest,
		"ColumnShardHashV1 requires len(key_column_types)==len(key_columns), got %d keys and %d types", keys, types)
}

func qerrorsInputCountMismatch(task TaskId, stage StageId, got, want int) error {
	return qerrors.New(qerrors.CodeBadRequest,
		"task %d of stage %+v has %d inputs, stage declares input_count=%d", task, stage, got, want)
}

func errUnknownUpstream(stage, upstream StageId) error {
	return qerrors.New(qerrors.CodeBadRequest,
		"stage %+v references unknown upstream stage %+v", stage, upstream)
}

func errReadRangesMustBeFirst(id StageId) error {
	return qerrors.New(qerrors.CodeBadRequest,
		"stage %+v: ReadRangesSource must be the sole input at index 0", id)
}

func errMultipleSinks(id StageId) error {
	return qerrors.New(qerrors.CodeBadRequest,
		"stage %+v: a table-writing stage may declare at most one InternalSink", id)
}

func qerrorsChannelEndpointMismatch(id ChannelId, side string) error {
	return qerrors.New(qerrors.CodeInternal,
		"channel %d: %s task does not belong to the stage the channel names", id, side)
}
