package compute

import (
	"github.com/tidwall/btree"

	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
)

// WatermarkMode is an input/output channel's watermark participation.
type WatermarkMode int

const (
	WatermarkDisabled WatermarkMode = iota
	WatermarkEnabled
)

// WatermarksTracker maintains per-input-channel current watermarks, the
// pending take-request counts that gate injection, and the set of
// watermarks that have cleared their pending count and are awaiting
// injection (spec §4.F "Watermarks"). The ready set is tracked separately
// from pendingTake: pendingTake's key disappears the instant a watermark's
// count reaches zero, which is exactly the moment it becomes eligible for
// injection, so that moment has to be captured elsewhere or the watermark
// is lost rather than offered to the task-runner.
type WatermarksTracker struct {
	current     map[graph.ChannelId]int64
	pendingTake *btree.Map[int64, int]
	ready       *btree.Set[int64]
}

// NewWatermarksTracker builds an empty tracker.
func NewWatermarksTracker() *WatermarksTracker {
	return &WatermarksTracker{
		current:     make(map[graph.ChannelId]int64),
		pendingTake: &btree.Map[int64, int]{},
		ready:       &btree.Set[int64]{},
	}
}

// Observe records a watermark seen on ch, reporting whether it advanced
// that channel's current watermark.
func (t *WatermarksTracker) Observe(ch graph.ChannelId, wm int64) bool {
	if wm > t.current[ch] {
		t.current[ch] = wm
		return true
	}
	return false
}

// AddPendingTake increments the pending input-channel-data-push count for
// wm (spec §4.F step 1: "increment pending_watermark_take_requests[watermark]").
func (t *WatermarksTracker) AddPendingTake(wm int64) {
	cur, _ := t.pendingTake.Get(wm)
	t.pendingTake.Set(wm, cur+1)
}

// AckPendingTake decrements wm's pending count (spec §4.F's
// InputChannelDataAck handling). Once the count reaches zero, wm moves into
// the ready set instead of simply vanishing: it is now a candidate for
// injection, not a watermark to forget.
func (t *WatermarksTracker) AckPendingTake(wm int64) {
	cur, ok := t.pendingTake.Get(wm)
	if !ok {
		return
	}
	if cur <= 1 {
		t.pendingTake.Delete(wm)
		t.ready.Insert(wm)
		return
	}
	t.pendingTake.Set(wm, cur-1)
}

// MarkInjected removes wm from the ready set once the task-runner has
// actually injected it into every required output (spec §4.F resumption).
func (t *WatermarksTracker) MarkInjected(wm int64) {
	t.ready.Delete(wm)
}

// MayInject implements spec §8 invariant 3: wm may be injected into the
// task-runner only once every channel in channels has reached it and its
// pending take-request count is zero.
func (t *WatermarksTracker) MayInject(wm int64, channels []graph.ChannelId) bool {
	if cur, ok := t.pendingTake.Get(wm); ok && cur > 0 {
		return false
	}
	for _, ch := range channels {
		if t.current[ch] < wm {
			return false
		}
	}
	return true
}

// Pending returns the lowest watermark that has cleared its pending
// take-request count and is awaiting injection, or (0, false) if none are
// ready yet.
func (t *WatermarksTracker) Pending() (int64, bool) {
	var wm int64
	var found bool
	t.ready.Scan(func(k int64) bool {
		wm, found = k, true
		return false
	})
	return wm, found
}
