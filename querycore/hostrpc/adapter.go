package hostrpc

import (
	"context"

	"github.com/ydb-platform/ydb-go-query-core/querycore/compile"
	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

// HostAdapter implements compile.Host over a QueryHostClient, turning the
// gRPC service's poll-by-driver-id protocol into the push-style
// compile.Driver interface the compile actor expects.
type HostAdapter struct {
	client QueryHostClient
}

// NewHostAdapter wraps client as a compile.Host.
func NewHostAdapter(client QueryHostClient) *HostAdapter {
	return &HostAdapter{client: client}
}

func (a *HostAdapter) Parse(ctx context.Context, text string) (compile.ParseResult, error) {
	reply, err := a.client.Parse(ctx, &ParseRequest{QueryText: text})
	if err != nil {
		return compile.ParseResult{}, err
	}
	res := compile.ParseResult{Statements: make([]compile.Statement, 0, len(reply.Statements))}
	for i, s := range reply.Statements {
		stmt := compile.Statement{Text: s}
		if i < len(reply.Issues) {
			stmt.Issues = append(stmt.Issues, toIssue(reply.Issues[i]))
		}
		res.Statements = append(res.Statements, stmt)
	}
	return res, nil
}

func toIssue(i *Issue) qerrors.Issue {
	if i == nil {
		return qerrors.Issue{}
	}
	out := qerrors.Issue{Code: qerrors.Code(i.Code), Message: i.Message}
	if i.Row != 0 || i.Col != 0 {
		out.Span = &qerrors.Span{Row: int(i.Row), Col: int(i.Col)}
	}
	for _, sub := range i.SubIssue {
		out.SubIssue = append(out.SubIssue, toIssue(sub))
	}
	return out
}

func (a *HostAdapter) SplitQuery(ctx context.Context, ref string, settings compile.PrepareSettings) (compile.SplitDriver, error) {
	first, err := a.client.Split(ctx, &SplitRequest{QueryRef: ref, PerStatement: settings.PerStatement})
	if err != nil {
		return nil, err
	}
	return &remoteSplitDriver{driverCore{client: a.client, driverID: first.DriverId, finished: first.Finished, errMsg: first.ErrorMessage}}, nil
}

func (a *HostAdapter) PrepareQuery(ctx context.Context, qtype compile.QueryType, ref string, settings compile.PrepareSettings) (compile.CompileDriver, error) {
	first, err := a.client.Compile(ctx, &CompileRequest{
		QueryRef:     ref,
		QueryType:    int32(qtype),
		PerStatement: settings.PerStatement,
		Diagnostics:  settings.Diagnostics,
	})
	if err != nil {
		return nil, err
	}
	return &remoteCompileDriver{driverCore{client: a.client, driverID: first.DriverId, finished: first.Finished, errMsg: first.ErrorMessage}}, nil
}

// driverCore is the Continue-polling logic shared by remoteSplitDriver and
// remoteCompileDriver; it can't implement compile.SplitDriver or
// compile.CompileDriver by itself since their Result() signatures differ.
type driverCore struct {
	client   QueryHostClient
	driverID string
	finished bool
	errMsg   string
}

func (d *driverCore) Continue(ctx context.Context) <-chan compile.StepResult {
	ch := make(chan compile.StepResult, 1)
	go func() {
		if d.finished {
			ch <- compile.StepResult{Finished: true}
			return
		}
		reply, err := d.client.Continue(ctx, &ContinueRequest{DriverId: d.driverID})
		if err != nil {
			ch <- compile.StepResult{Err: err}
			return
		}
		d.finished = reply.Finished
		if reply.ErrorMessage != "" {
			ch <- compile.StepResult{Err: qerrors.New(qerrors.CodeInternal, "%s", reply.ErrorMessage)}
			return
		}
		ch <- compile.StepResult{Finished: reply.Finished}
	}()
	return ch
}

// remoteSplitDriver satisfies compile.SplitDriver over driverCore's polling
// loop. The gateway's real split result blobs (exprs/world/ctx) ride back on
// a later, out-of-scope RPC; only the status is modeled here.
type remoteSplitDriver struct {
	driverCore
}

func (d *remoteSplitDriver) Result() (compile.SplitOutcome, error) {
	if d.errMsg != "" {
		return compile.SplitOutcome{Status: qerrors.CodeInternal}, qerrors.New(qerrors.CodeInternal, "%s", d.errMsg)
	}
	return compile.SplitOutcome{Status: qerrors.CodeUnspecified}, nil
}

// remoteCompileDriver satisfies compile.CompileDriver over driverCore's
// polling loop.
type remoteCompileDriver struct {
	driverCore
}

func (d *remoteCompileDriver) Result() (compile.CompileOutcome, error) {
	if d.errMsg != "" {
		return compile.CompileOutcome{Status: qerrors.CodeInternal}, qerrors.New(qerrors.CodeInternal, "%s", d.errMsg)
	}
	return compile.CompileOutcome{Status: qerrors.CodeUnspecified}, nil
}
