package graph

import (
	"math/rand"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func intPoint(v int64) Point { return Point{Values: []Cell{{Int64: v}}} }

// TestMergeWritePoints covers spec §8 Scenario 5: a=[1,3,5], b=[2,3,7] merge
// to the ordered, deduped union [1,2,3,5,7].
func TestMergeWritePoints(t *testing.T) {
	a := NewShardKeyRanges()
	a.AddPoint(intPoint(1))
	a.AddPoint(intPoint(3))
	a.AddPoint(intPoint(5))

	b := NewShardKeyRanges()
	b.AddPoint(intPoint(2))
	b.AddPoint(intPoint(3))
	b.AddPoint(intPoint(7))

	a.MergeWritePoints(b, []KeyType{KeyTypeInt64})

	require.Equal(t, []int64{1, 2, 3, 5, 7}, valuesOf(t, a.Points()))
}

func TestMergeWritePointsFullRangeShortCircuits(t *testing.T) {
	a := NewShardKeyRanges()
	a.MakeFullRange(fullRangeOf(1))
	b := NewShardKeyRanges()
	b.AddPoint(intPoint(1))

	a.MergeWritePoints(b, []KeyType{KeyTypeInt64})
	require.True(t, a.IsFullRange())
}

// TestRangesInvariantNoPointInRanges covers spec §8 invariant 6: no element
// of the Ranges variant is Point-tagged — points added after a range exist
// only as re-encoded [x,x] ranges.
func TestRangesInvariantNoPointInRanges(t *testing.T) {
	s := NewShardKeyRanges()
	s.AddRange(Range{
		From: []Bound{{Value: Cell{Int64: 1}, Inclusive: true}},
		To:   []Bound{{Value: Cell{Int64: 5}, Inclusive: true}},
	})
	s.AddPoint(intPoint(9))

	require.Equal(t, kindRanges, s.kind)
	last := s.Ranges()[len(s.Ranges())-1]
	require.Equal(t, last.From[0].Value, last.To[0].Value)
	require.True(t, last.From[0].Inclusive && last.To[0].Inclusive)
}

func TestSerializeToPointsVsRanges(t *testing.T) {
	s := NewShardKeyRanges()
	s.AddPoint(intPoint(1))
	s.AddPoint(intPoint(2))

	asPoints := s.SerializeTo(TargetDataShardTaskMeta)
	require.Len(t, asPoints.Points, 2)
	require.Empty(t, asPoints.Ranges)

	asRanges := s.SerializeTo(TargetScanTaskMeta)
	require.Empty(t, asRanges.Points)
	require.Len(t, asRanges.Ranges, 2)
	for _, r := range asRanges.Ranges {
		require.True(t, r.From[0].Inclusive)
		require.True(t, r.To[0].Inclusive)
		require.Equal(t, r.From[0].Value, r.To[0].Value)
	}
}

func TestFullRangeSerializesToOneRange(t *testing.T) {
	s := NewShardKeyRanges()
	s.MakeFullRange(fullRangeOf(1))
	out := s.SerializeTo(TargetReadRangesSource)
	require.Len(t, out.Ranges, 1)
	require.True(t, out.Ranges[0].From[0].NegInf)
	require.True(t, out.Ranges[0].To[0].PosInf)
}

// TestMergeWritePointsFuzz merges random int64 point sets with an empty set
// and checks that the result is always sorted and deduped.
func TestMergeWritePointsFuzz(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 20).RandSource(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		var raw []int64
		f.Fuzz(&raw)

		a := NewShardKeyRanges()
		for _, v := range raw {
			a.AddPoint(intPoint(v))
		}
		b := NewShardKeyRanges()
		a.MergeWritePoints(b, []KeyType{KeyTypeInt64})

		got := valuesOf(t, a.Points())
		for i := 1; i < len(got); i++ {
			require.Less(t, got[i-1], got[i], "merge result must be strictly increasing (sorted+deduped)")
		}
	}
}

func valuesOf(t *testing.T, pts []Point) []int64 {
	t.Helper()
	out := make([]int64, len(pts))
	for i, p := range pts {
		out[i] = p.Values[0].Int64
	}
	return out
}
