package wire

import (
	"bytes"

	"github.com/apache/arrow/go/v7/arrow"
	"github.com/apache/arrow/go/v7/arrow/array"
	"github.com/apache/arrow/go/v7/arrow/ipc"
	"github.com/apache/arrow/go/v7/arrow/memory"

	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

// TableKind distinguishes row-store (data-shard) tables from OLAP
// (column-shard) tables, which drives data-format and program selection.
type TableKind int

const (
	TableRow TableKind = iota
	TableOlap
)

// SerializeOptions configures Serialize (spec §4.C / §6 config surface).
type SerializeOptions struct {
	TableKind            TableKind
	EnableArrowAtDataShard bool
	ItemsLimit           uint64
	Reverse              bool
	SortColumns          []string
	GroupByColumns       []string
	OlapProgram          []byte
	OlapProgramParamNames []string
	ParamTypes           map[string]ParamType
	ParamValues          map[string]ParamValue
}

// ParamType is a query-parameter's declared type, used to decide Arrow
// compatibility for Olap tasks.
type ParamType int

const (
	ParamInt64 ParamType = iota
	ParamUint64
	ParamFloat64
	ParamString
	ParamBytes
	ParamUnsupported // e.g. a nested/struct type with no Arrow encoding here
)

// ParamValue is one concrete parameter value.
type ParamValue struct {
	Int64   int64
	Uint64  uint64
	Float64 float64
	Str     string
	Bytes   []byte
}

// Serialize projects t into its wire TaskDescriptor (spec §4.C).
func Serialize(g *graph.TasksGraph, t *graph.Task, opts SerializeOptions) (*TaskDescriptor, error) {
	stage, ok := g.Stage(t.Stage)
	if !ok {
		return nil, qerrors.New(qerrors.CodeInternal, "task %d references unknown stage", t.ID)
	}

	d := &TaskDescriptor{
		ID:         t.ID,
		IsScanTask: t.Meta.ScanTask,
		ItemsLimit: opts.ItemsLimit,
		Reverse:    opts.Reverse,
	}
	if t.Meta.ShardID != "" {
		d.Endpoint = Endpoint{ShardID: t.Meta.ShardID}
	} else {
		d.Endpoint = Endpoint{ActorID: actorIDOf(t.ID)}
	}

	if t.Meta.ScanTask {
		d.DataFormat = scanDataFormat(opts.TableKind, opts.EnableArrowAtDataShard)
		d.SortColumns = opts.SortColumns
		d.GroupByColumns = opts.GroupByColumns
		if opts.TableKind == TableOlap {
			d.OlapProgram = opts.OlapProgram
			params, err := buildOlapParams(opts)
			if err != nil {
				return nil, err
			}
			d.Olap = params
		}
	}

	for _, in := range t.Inputs {
		d.Inputs = append(d.Inputs, projectInput(in))
	}
	for _, out := range t.Outputs {
		d.Outputs = append(d.Outputs, projectOutput(out))
	}

	if t.Meta.ReadRanges != nil {
		target := graph.TargetDataShardTaskMeta
		if t.Meta.ScanTask {
			target = graph.TargetScanTaskMeta
		}
		d.Reads = append(d.Reads, ReadDescriptor{
			ShardID:    t.Meta.ShardID,
			Ranges:     t.Meta.ReadRanges.SerializeTo(target),
			ItemsLimit: opts.ItemsLimit,
			Reverse:    opts.Reverse,
		})
	}
	if t.Meta.Writes != nil {
		d.Writes = append(d.Writes, WriteDescriptor{
			Ranges:        t.Meta.Writes.SerializeTo(graph.TargetDataShardTaskMeta),
			IsPureEraseOp: isPureErase(stage),
		})
	}

	return d, nil
}

func actorIDOf(id graph.TaskId) string {
	return "compute-actor-" + itoa(uint64(id))
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func isPureErase(stage *graph.Stage) bool {
	return stage.Meta.Ops.Has(graph.TableOpErase) && !stage.Meta.Ops.Has(graph.TableOpUpdate)
}

func scanDataFormat(kind TableKind, enableArrow bool) TableDataFormat {
	if kind == TableOlap || enableArrow {
		return FormatArrow
	}
	return FormatCellVec
}

func projectInput(in graph.Input) InputWire {
	w := InputWire{Channels: in.Channels, SortCols: in.SortCols}
	if in.Kind == graph.InputSource {
		w.Source = &SourceInputWire{Settings: in.Settings}
	}
	if in.Transform != nil {
		w.Transform = &TransformWire{
			Type:     transformTypeName(in.Transform.Kind),
			InType:   in.Transform.InType,
			OutType:  in.Transform.OutType,
			Settings: in.Transform.Settings,
		}
	}
	return w
}

func transformTypeName(k graph.TransformKind) string {
	switch k {
	case graph.TransformStreamLookup:
		return "StreamLookup"
	case graph.TransformSequencer:
		return "Sequencer"
	default:
		return ""
	}
}

func projectOutput(out graph.Output) OutputWire {
	w := OutputWire{Channels: out.Channels, SinkType: out.SinkType, SinkSettings: out.SinkSettings}
	switch out.Kind {
	case graph.OutputHashPartition:
		hp := &HashPartitionWire{KeyColumns: out.HashKeys, Count: out.HashCount, HashKind: out.HashKind}
		if out.HashParams != nil {
			hp.ShardCount = out.HashParams.SourceShardCount
			hp.KeyColumnTypes = out.HashParams.KeyColumnTypes
			hp.TaskIndexByHash = out.HashParams.TaskIndexByHash
		}
		w.HashPartition = hp
	case graph.OutputRangePartition:
		w.RangePartition = &RangePartitionWire{Partitions: out.Partitions}
	}
	return w
}

// buildOlapParams converts the query parameters named in the OLAP program
// into an Arrow (schema_bytes, batch_bytes) pair (spec §4.C): a one-row
// record batch carrying every named parameter as a column, the wire shape
// a column-shard's compute program expects its bound parameters in. Only
// parameters named in opts.OlapProgramParamNames are collected; any one
// with a non-Arrow-compatible type fails the build.
func buildOlapParams(opts SerializeOptions) (*OlapProgramParams, error) {
	fields := make([]arrow.Field, 0, len(opts.OlapProgramParamNames))
	for _, name := range opts.OlapProgramParamNames {
		typ, ok := opts.ParamTypes[name]
		if !ok || typ == ParamUnsupported {
			return nil, qerrors.New(qerrors.CodeBadRequest,
				"olap parameter %q has no Arrow-compatible type", name)
		}
		dt, err := arrowTypeFor(typ)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt})
	}
	schema := arrow.NewSchema(fields, nil)

	bld := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer bld.Release()
	for i, name := range opts.OlapProgramParamNames {
		appendParamValue(bld.Field(i), opts.ParamTypes[name], opts.ParamValues[name])
	}
	rec := bld.NewRecord()
	defer rec.Release()

	schemaBytes, err := encodeArrowSchema(schema)
	if err != nil {
		return nil, qerrors.New(qerrors.CodeInternal, "olap params: encode schema: %v", err)
	}
	batchBytes, err := encodeArrowRecord(schema, rec)
	if err != nil {
		return nil, qerrors.New(qerrors.CodeInternal, "olap params: encode batch: %v", err)
	}

	return &OlapProgramParams{SchemaBytes: schemaBytes, BatchBytes: batchBytes}, nil
}

func arrowTypeFor(t ParamType) (arrow.DataType, error) {
	switch t {
	case ParamInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case ParamUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case ParamFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case ParamString:
		return arrow.BinaryTypes.String, nil
	case ParamBytes:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, qerrors.New(qerrors.CodeBadRequest, "olap parameter type %v has no Arrow encoding", t)
	}
}

func appendParamValue(fb array.Builder, t ParamType, v ParamValue) {
	switch t {
	case ParamInt64:
		fb.(*array.Int64Builder).Append(v.Int64)
	case ParamUint64:
		fb.(*array.Uint64Builder).Append(v.Uint64)
	case ParamFloat64:
		fb.(*array.Float64Builder).Append(v.Float64)
	case ParamString:
		fb.(*array.StringBuilder).Append(v.Str)
	case ParamBytes:
		fb.(*array.BinaryBuilder).Append(v.Bytes)
	}
}

// encodeArrowSchema writes just the schema message of an Arrow IPC stream,
// with no records.
func encodeArrowSchema(schema *arrow.Schema) ([]byte, error) {
	var buf bytes.Buffer
	w, err := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeArrowRecord writes a full Arrow IPC stream (schema plus the one
// parameter record).
func encodeArrowRecord(schema *arrow.Schema, rec array.Record) ([]byte, error) {
	var buf bytes.Buffer
	w, err := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err != nil {
		return nil, err
	}
	if err := w.Write(rec); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
