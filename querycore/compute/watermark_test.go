package compute

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
)

func TestWatermarkMayInjectRequiresAllChannelsAndZeroPending(t *testing.T) {
	tr := NewWatermarksTracker()
	c1, c2 := graph.ChannelId(1), graph.ChannelId(2)
	channels := []graph.ChannelId{c1, c2}

	require.False(t, tr.MayInject(100, channels))

	tr.Observe(c1, 100)
	require.False(t, tr.MayInject(100, channels), "c2 hasn't reached 100 yet")

	tr.Observe(c2, 100)
	require.True(t, tr.MayInject(100, channels))

	tr.AddPendingTake(100)
	require.False(t, tr.MayInject(100, channels), "pending take requests block injection")

	tr.AckPendingTake(100)
	require.True(t, tr.MayInject(100, channels))
}

func TestInputChannelTakeAndAck(t *testing.T) {
	tr := NewWatermarksTracker()
	ch := NewInputChannel(graph.ChannelId(1), graph.StageId{}, WatermarkEnabled, CheckpointingDisabled)

	wm := int64(50)
	res := ch.TakeInputChannelData(tr, Batch{Watermark: &wm})
	require.True(t, res.ForwardToRunner)
	require.NotNil(t, res.PauseForWatermark)
	require.True(t, ch.IsPaused)

	_, found := tr.Pending()
	require.False(t, found, "watermark still has an outstanding take request")

	ackRes, err := ch.InputChannelDataAck(tr, res.Cookie, 1024)
	require.NoError(t, err)
	require.True(t, ackRes.SendUpstreamAck)
	require.False(t, ch.IsPaused)
	require.Equal(t, int64(1024), ch.FreeSpace)

	pending, found := tr.Pending()
	require.True(t, found, "ack clearing the take request should make the watermark eligible for injection")
	require.Equal(t, wm, pending)

	tr.MarkInjected(wm)
	_, found = tr.Pending()
	require.False(t, found, "an injected watermark is no longer pending")
}

func TestInputChannelAckUnknownCookieErrors(t *testing.T) {
	tr := NewWatermarksTracker()
	ch := NewInputChannel(graph.ChannelId(1), graph.StageId{}, WatermarkDisabled, CheckpointingDisabled)
	_, err := ch.InputChannelDataAck(tr, 999, 0)
	require.Error(t, err)
}

func TestEndpointsMayTerminate(t *testing.T) {
	c1 := graph.ChannelId(1)
	e := NewEndpoints([]graph.ChannelId{c1}, []int{0})
	require.False(t, e.MayTerminate())
	e.MarkOutputFinished(c1)
	require.False(t, e.MayTerminate())
	e.MarkSinkFinished(0)
	require.True(t, e.MayTerminate())
}

func TestCheckpointCoordinatorOrdering(t *testing.T) {
	var co Coordinator
	require.NoError(t, co.Commit(CheckpointID{Generation: 1, ID: 1}))
	require.NoError(t, co.Commit(CheckpointID{Generation: 1, ID: 2}))
	require.Error(t, co.Commit(CheckpointID{Generation: 1, ID: 2}), "equal checkpoint must not recommit")
	require.Error(t, co.Commit(CheckpointID{Generation: 1, ID: 1}), "earlier checkpoint must not commit after a later one")
}
