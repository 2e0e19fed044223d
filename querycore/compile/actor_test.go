package compile

import (
	"context"
	"testing"
	"time"

	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

type fakeHost struct {
	parseRes   ParseResult
	parseErr   error
	splitSteps int
	splitOut   SplitOutcome
	splitErr   error
	hang       bool
}

func (h *fakeHost) Parse(ctx context.Context, text string) (ParseResult, error) {
	return h.parseRes, h.parseErr
}

func (h *fakeHost) SplitQuery(ctx context.Context, ref string, settings PrepareSettings) (SplitDriver, error) {
	if h.splitErr != nil {
		return nil, h.splitErr
	}
	return &fakeSplitDriver{remaining: h.splitSteps, out: h.splitOut, hang: h.hang}, nil
}

func (h *fakeHost) PrepareQuery(ctx context.Context, qtype QueryType, ref string, settings PrepareSettings) (CompileDriver, error) {
	return &fakeCompileDriver{remaining: 1, out: CompileOutcome{PhysicalQuery: []byte("plan"), HostAllowCache: true}}, nil
}

type fakeSplitDriver struct {
	remaining int
	out       SplitOutcome
	hang      bool
}

func (d *fakeSplitDriver) Continue(ctx context.Context) <-chan StepResult {
	ch := make(chan StepResult, 1)
	if d.hang {
		return ch // never sends; simulates a host that never finishes
	}
	d.remaining--
	ch <- StepResult{Finished: d.remaining <= 0}
	return ch
}

func (d *fakeSplitDriver) Result() (SplitOutcome, error) { return d.out, nil }

type fakeCompileDriver struct {
	remaining int
	out       CompileOutcome
}

func (d *fakeCompileDriver) Continue(ctx context.Context) <-chan StepResult {
	ch := make(chan StepResult, 1)
	d.remaining--
	ch <- StepResult{Finished: d.remaining <= 0}
	return ch
}

func (d *fakeCompileDriver) Result() (CompileOutcome, error) { return d.out, nil }

func testLogger() log.Logger { return log.New() }

func TestParseEmptyIsInternalError(t *testing.T) {
	host := &fakeHost{parseRes: ParseResult{}}
	resp, err := Run(context.Background(), testLogger(), host, Config{}, Request{Mode: ModeParse})
	require.NoError(t, err)
	require.Equal(t, qerrors.CodeInternal, resp.Status)
	require.Nil(t, resp.Parse)
}

func TestParseSuccess(t *testing.T) {
	host := &fakeHost{parseRes: ParseResult{Statements: []Statement{{Text: "select 1"}}}}
	resp, err := Run(context.Background(), testLogger(), host, Config{}, Request{Mode: ModeParse})
	require.NoError(t, err)
	require.NotNil(t, resp.Parse)
	require.Len(t, resp.Parse.Statements, 1)
}

func TestSplitMultiStepCompletes(t *testing.T) {
	host := &fakeHost{splitSteps: 3, splitOut: SplitOutcome{Status: qerrors.CodeUnspecified, Exprs: []byte("e")}}
	resp, err := Run(context.Background(), testLogger(), host, Config{}, Request{Mode: ModeSplit, Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, resp.Split)
	require.Equal(t, []byte("e"), resp.Split.Exprs)
}

// TestCompileTimeout covers spec §8 Scenario 3: a host that never finishes
// yields TIMEOUT once the configured timeout elapses.
func TestCompileTimeout(t *testing.T) {
	host := &fakeHost{hang: true}
	resp, err := Run(context.Background(), testLogger(), host, Config{}, Request{Mode: ModeSplit, Timeout: 10 * time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, qerrors.CodeTimeout, resp.Status)
}

func TestCompileAllowCache(t *testing.T) {
	host := &fakeHost{}
	resp, err := Run(context.Background(), testLogger(), host, Config{AllowCache: true}, Request{Mode: ModeCompile, QueryType: QuerySQLDML})
	require.NoError(t, err)
	require.NotNil(t, resp.Compile)
	require.True(t, resp.Compile.AllowCache)
}

func TestReplayRecordRoundTrip(t *testing.T) {
	result := &CompileResult{UID: "u1"}
	rec := BuildReplayRecord(Config{Cluster: "c", Database: "db"}, result, "select 1", []byte(`{}`), nil, nil, 1700000000)
	compact, err := rec.MarshalCompact()
	require.NoError(t, err)
	require.Contains(t, string(compact), "u1")

	diag, err := rec.MarshalDiagnostics()
	require.NoError(t, err)
	require.Greater(t, len(diag), len(compact))
}
