package compute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-query-core/querycore/graph"
	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

type fakeRunner struct {
	step int
}

func (f *fakeRunner) PushInputData(ctx context.Context, channelID graph.ChannelId, cookie uint64, batch Batch) error {
	return nil
}
func (f *fakeRunner) PushAsyncInput(ctx context.Context, sourceIndex int, batch Batch) error {
	return nil
}

func (f *fakeRunner) ContinueRun(ctx context.Context, req ContinueRunRequest) (<-chan RunFinished, error) {
	ch := make(chan RunFinished, 1)
	ch <- RunFinished{Status: qerrors.CodeUnspecified}
	return ch, nil
}

func (f *fakeRunner) PopOutput(ctx context.Context, req PopRequest) (<-chan OutputChannelRaw, error) {
	ch := make(chan OutputChannelRaw, 1)
	ch <- OutputChannelRaw{ChannelID: req.ChannelID, Chunks: [][]byte{[]byte("row")}, Finished: true}
	return ch, nil
}

func (f *fakeRunner) PopSinkData(ctx context.Context, sinkIndex int, budget int64) (<-chan SinkBatch, error) {
	ch := make(chan SinkBatch, 1)
	ch <- SinkBatch{Finished: true}
	return ch, nil
}

func (f *fakeRunner) SaveState(ctx context.Context) ([]byte, error) { return []byte("state"), nil }

func TestActorStepDrainsOutputAndTerminates(t *testing.T) {
	out := NewOutputChannel(graph.ChannelId(1), graph.StageId{})
	a := NewActor(&fakeRunner{}, nil, nil, []*OutputChannel{out}, nil, 1<<20)
	a.Bootstrap()

	finished, err := a.Step(context.Background())
	require.NoError(t, err)
	require.True(t, finished)
	require.Equal(t, StateFinished, a.State())
}

func TestActorMKQLMemoryLimitSurfaced(t *testing.T) {
	a := NewActor(&fakeRunner{}, nil, nil, nil, nil, 64<<20)
	require.Equal(t, int64(64<<20), a.MKQLMemoryLimit())
}
