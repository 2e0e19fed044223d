package graph

import "sort"

// KeyType tags the dynamic type of a key column cell, needed for a
// type-aware comparator (spec §4.A merge_write_points).
type KeyType int

const (
	KeyTypeInt64 KeyType = iota
	KeyTypeUint64
	KeyTypeFloat64
	KeyTypeString
	KeyTypeBytes
)

// Cell is one key-column value.
type Cell struct {
	Int64   int64
	Uint64  uint64
	Float64 float64
	Str     string
	Bytes   []byte
}

// compareCell orders two cells of the same KeyType. Ties return 0.
func compareCell(t KeyType, a, b Cell) int {
	switch t {
	case KeyTypeInt64:
		switch {
		case a.Int64 < b.Int64:
			return -1
		case a.Int64 > b.Int64:
			return 1
		default:
			return 0
		}
	case KeyTypeUint64:
		switch {
		case a.Uint64 < b.Uint64:
			return -1
		case a.Uint64 > b.Uint64:
			return 1
		default:
			return 0
		}
	case KeyTypeFloat64:
		switch {
		case a.Float64 < b.Float64:
			return -1
		case a.Float64 > b.Float64:
			return 1
		default:
			return 0
		}
	case KeyTypeString:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	default: // KeyTypeBytes
		n := len(a.Bytes)
		if len(b.Bytes) < n {
			n = len(b.Bytes)
		}
		for i := 0; i < n; i++ {
			if a.Bytes[i] != b.Bytes[i] {
				if a.Bytes[i] < b.Bytes[i] {
					return -1
				}
				return 1
			}
		}
		return len(a.Bytes) - len(b.Bytes)
	}
}

// comparePoint compares two multi-column points lexicographically.
func comparePoint(types []KeyType, a, b Point) int {
	for i := range types {
		if c := compareCell(types[i], a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Point is one fully-bound key (one value per key column).
type Point struct {
	Values []Cell
}

// Bound is one side of a per-column range: either -inf/+inf or a concrete,
// possibly-inclusive cell.
type Bound struct {
	NegInf    bool
	PosInf    bool
	Value     Cell
	Inclusive bool
}

// Range is a multi-column key range, one Bound per key column on each side.
type Range struct {
	From []Bound
	To   []Bound
}

// rangesKind tags which variant a ShardKeyRanges currently holds.
type rangesKind int

const (
	kindEmpty rangesKind = iota
	kindFullRange
	kindPoints
	kindRanges
)

// ShardKeyRanges is the tagged variant from spec §3: FullRange(range) |
// Points([]Point) | Ranges([]Range), with the invariant that no element of
// the Ranges variant is a degenerate Point (points live only in the Points
// variant or get re-encoded as a [x,x] Range on serialization).
type ShardKeyRanges struct {
	kind   rangesKind
	full   Range
	points []Point
	ranges []Range
}

// NewShardKeyRanges returns an empty set (no points, no ranges).
func NewShardKeyRanges() *ShardKeyRanges { return &ShardKeyRanges{kind: kindEmpty} }

// IsFullRange reports whether the set has collapsed to FullRange.
func (s *ShardKeyRanges) IsFullRange() bool { return s.kind == kindFullRange }

// Points returns the Points variant payload; valid only when Kind is Points.
func (s *ShardKeyRanges) Points() []Point { return s.points }

// Ranges returns the Ranges variant payload; valid only when Kind is Ranges.
func (s *ShardKeyRanges) Ranges() []Range { return s.ranges }

// MakeFullRange replaces the current state with FullRange(r).
func (s *ShardKeyRanges) MakeFullRange(r Range) {
	s.kind = kindFullRange
	s.full = r
	s.points = nil
	s.ranges = nil
}

// fullRangeOf builds the (-inf,+inf) range for nCols key columns.
func fullRangeOf(nCols int) Range {
	from := make([]Bound, nCols)
	to := make([]Bound, nCols)
	for i := range from {
		from[i] = Bound{NegInf: true}
		to[i] = Bound{PosInf: true}
	}
	return Range{From: from, To: to}
}

// MakeFullPoint is MakeFullRange specialised to a degenerate point: it still
// replaces the state with FullRange, matching the source's "any add after a
// full point collapses to full range" behavior.
func (s *ShardKeyRanges) MakeFullPoint(nCols int) { s.MakeFullRange(fullRangeOf(nCols)) }

// AddPoint appends p, unless the set is already FullRange (no-op).
func (s *ShardKeyRanges) AddPoint(p Point) {
	if s.kind == kindFullRange {
		return
	}
	if s.kind == kindEmpty {
		s.kind = kindPoints
	}
	if s.kind != kindPoints {
		// Mixing points into a Ranges-kind set re-encodes the point as a
		// degenerate [x,x] range to preserve "no Point in Ranges" elsewhere,
		// but here it simply joins the Ranges variant as such a range.
		s.ranges = append(s.ranges, pointAsRange(p))
		return
	}
	s.points = append(s.points, p)
}

// AddRange appends r, unless the set is already FullRange (no-op).
func (s *ShardKeyRanges) AddRange(r Range) {
	if s.kind == kindFullRange {
		return
	}
	if s.kind == kindEmpty {
		s.kind = kindRanges
	}
	if s.kind == kindPoints {
		// Promote existing points to degenerate ranges so the invariant
		// "Ranges holds no Point" is only ever violated transiently inside
		// this function, never observable afterward.
		for _, p := range s.points {
			s.ranges = append(s.ranges, pointAsRange(p))
		}
		s.points = nil
		s.kind = kindRanges
	}
	s.ranges = append(s.ranges, r)
}

// Add appends either a Point or a Range, dispatching by dynamic type.
func (s *ShardKeyRanges) Add(v any) {
	switch t := v.(type) {
	case Point:
		s.AddPoint(t)
	case Range:
		s.AddRange(t)
	}
}

func pointAsRange(p Point) Range {
	from := make([]Bound, len(p.Values))
	to := make([]Bound, len(p.Values))
	for i, c := range p.Values {
		from[i] = Bound{Value: c, Inclusive: true}
		to[i] = Bound{Value: c, Inclusive: true}
	}
	return Range{From: from, To: to}
}

// MergeWritePoints merges the Points variant of s with other's, in place:
// both sides are sorted with a type-aware comparator, then combined in a
// two-pointer pass that drops equal points, giving the ordered,
// duplicate-free union (O(n log n + m log m) for the sorts, O(n+m) for the
// merge). A FullRange on either side short-circuits to FullRange. Assumes both sides
// are Points (or FullRange/empty) — the write-set shape spec §4.A assumes.
func (s *ShardKeyRanges) MergeWritePoints(other *ShardKeyRanges, keyTypes []KeyType) {
	if s.kind == kindFullRange || other.kind == kindFullRange {
		nCols := len(keyTypes)
		s.MakeFullRange(fullRangeOf(nCols))
		return
	}
	a := append([]Point(nil), s.points...)
	b := other.points
	sort.Slice(a, func(i, j int) bool { return comparePoint(keyTypes, a[i], a[j]) < 0 })
	bs := append([]Point(nil), b...)
	sort.Slice(bs, func(i, j int) bool { return comparePoint(keyTypes, bs[i], bs[j]) < 0 })

	merged := make([]Point, 0, len(a)+len(bs))
	push := func(p Point) {
		if n := len(merged); n > 0 && comparePoint(keyTypes, merged[n-1], p) == 0 {
			return
		}
		merged = append(merged, p)
	}
	i, j := 0, 0
	for i < len(a) && j < len(bs) {
		c := comparePoint(keyTypes, a[i], bs[j])
		switch {
		case c < 0:
			push(a[i])
			i++
		case c > 0:
			push(bs[j])
			j++
		default:
			push(a[i])
			i++
			j++
		}
	}
	for ; i < len(a); i++ {
		push(a[i])
	}
	for ; j < len(bs); j++ {
		push(bs[j])
	}

	s.kind = kindPoints
	s.points = merged
	s.ranges = nil
}

// SerializeTarget selects which of the three wire projections SerializeTo
// produces (spec §4.A).
type SerializeTarget int

const (
	// TargetDataShardTaskMeta is the data-shard task-meta schema.
	TargetDataShardTaskMeta SerializeTarget = iota
	// TargetScanTaskMeta is the scan-task-meta schema.
	TargetScanTaskMeta
	// TargetReadRangesSource is the read-ranges source-settings schema.
	TargetReadRangesSource
)

// AllowsPoints reports whether the target schema accepts a dedicated points
// encoding rather than only [x,x] ranges.
func (t SerializeTarget) AllowsPoints() bool { return t == TargetDataShardTaskMeta }

// SerializedRanges is the neutral projection SerializeTo returns; the wire
// package embeds it into the concrete protobuf-shaped descriptors.
type SerializedRanges struct {
	Points []Point
	Ranges []Range
}

// SerializeTo projects s onto one of the three wire schemas. When the target
// allows points and every element is already a point, they are emitted as
// points; otherwise each element becomes an inclusive [x,x] range. Full maps
// to one full key-range.
func (s *ShardKeyRanges) SerializeTo(target SerializeTarget) SerializedRanges {
	switch s.kind {
	case kindFullRange:
		return SerializedRanges{Ranges: []Range{s.full}}
	case kindPoints:
		if target.AllowsPoints() {
			return SerializedRanges{Points: append([]Point(nil), s.points...)}
		}
		out := make([]Range, len(s.points))
		for i, p := range s.points {
			out[i] = pointAsRange(p)
		}
		return SerializedRanges{Ranges: out}
	case kindRanges:
		return SerializedRanges{Ranges: append([]Range(nil), s.ranges...)}
	default:
		return SerializedRanges{}
	}
}

// RightBorder returns the upper bound of the last point or range, plus its
// inclusivity (points are always inclusive).
func (s *ShardKeyRanges) RightBorder() (bound []Bound, inclusive bool, ok bool) {
	switch s.kind {
	case kindFullRange:
		return s.full.To, true, true
	case kindPoints:
		if len(s.points) == 0 {
			return nil, false, false
		}
		last := s.points[len(s.points)-1]
		b := make([]Bound, len(last.Values))
		for i, c := range last.Values {
			b[i] = Bound{Value: c, Inclusive: true}
		}
		return b, true, true
	case kindRanges:
		if len(s.ranges) == 0 {
			return nil, false, false
		}
		last := s.ranges[len(s.ranges)-1]
		allInclusive := true
		for _, b := range last.To {
			allInclusive = allInclusive && b.Inclusive
		}
		return last.To, allInclusive, true
	default:
		return nil, false, false
	}
}
