package compile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/google/uuid"

	qactor "github.com/ydb-platform/ydb-go-query-core/querycore/actor"
	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

type startMsg struct{}
type continueProcessMsg struct {
	finished bool
	err      error
}
type wakeupMsg struct{}

type machine struct {
	logger log.Logger
	host   Host
	cfg    Config
	req    Request

	base *qactor.Actor

	done     chan Response
	doneOnce sync.Once

	driver      Driver
	compileStart time.Time
	cpuSpent     time.Duration
}

// Run drives req to completion against host under cfg and returns its
// single reply. It never blocks the caller's goroutine on host I/O: each
// re-entry into the host's async driver is dispatched through the actor's
// own mailbox, matching spec §5's "suspension points only at message
// boundaries" rule.
func Run(ctx context.Context, logger log.Logger, host Host, cfg Config, req Request) (*Response, error) {
	if req.Mode == ModeSplit || req.Mode == ModeCompile {
		if cfg.EnablePerStatementSplit {
			req.PrepareSettings.PerStatement = true
		} else {
			req.PrepareSettings.PerStatement = false
		}
	}

	m := &machine{logger: logger, host: host, cfg: cfg, req: req, done: make(chan Response, 1)}
	m.base = qactor.New("compile-actor", logger, m.handle, qactor.WithMailboxSize(4))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- m.base.Run(runCtx) }()

	if req.Timeout > 0 {
		timer := time.AfterFunc(req.Timeout, func() {
			_ = m.base.Send(runCtx, wakeupMsg{})
		})
		defer timer.Stop()
	}

	if err := m.base.Send(runCtx, startMsg{}); err != nil {
		return nil, err
	}

	select {
	case resp := <-m.done:
		return &resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *machine) handle(ctx context.Context, msg qactor.Msg) (handleErr error) {
	defer func() {
		if r := recover(); r != nil {
			handleErr = fmt.Errorf("panic: %v", r)
			m.fatal(handleErr)
		}
	}()

	switch v := msg.(type) {
	case startMsg:
		return m.start(ctx)
	case continueProcessMsg:
		return m.onContinue(ctx, v)
	case wakeupMsg:
		m.finish(Response{Status: qerrors.CodeTimeout})
		return nil
	default:
		return fmt.Errorf("compile actor: unexpected message %T", msg)
	}
}

func (m *machine) start(ctx context.Context) error {
	switch m.req.Mode {
	case ModeParse:
		return m.doParse(ctx)
	case ModeSplit:
		return m.startSplit(ctx)
	case ModeCompile:
		m.compileStart = time.Now()
		return m.startCompile(ctx)
	default:
		err := qerrors.New(qerrors.CodeInternal, "compile actor: unknown mode %v", m.req.Mode)
		m.fatal(err)
		return err
	}
}

func (m *machine) doParse(ctx context.Context) error {
	res, err := m.host.Parse(ctx, m.req.QueryText)
	if err != nil {
		m.fatal(err)
		return nil
	}
	if len(res.Statements) == 0 {
		m.fatal(qerrors.New(qerrors.CodeInternal, "parser produced no statements"))
		return nil
	}
	var issues []qerrors.Issue
	for _, s := range res.Statements {
		issues = append(issues, s.Issues...)
	}
	if len(issues) > 0 {
		m.finish(Response{Status: qerrors.CodeInternal, Issues: issues})
		return nil
	}
	m.finish(Response{Status: qerrors.CodeUnspecified, Parse: &ParseResponse{Statements: res.Statements}})
	return nil
}

func (m *machine) startSplit(ctx context.Context) error {
	var driver SplitDriver
	err := retryHostCall(ctx, func() error {
		d, err := m.host.SplitQuery(ctx, m.req.QueryRef, m.req.PrepareSettings)
		if err != nil {
			return err
		}
		driver = d
		return nil
	})
	if err != nil {
		m.fatal(err)
		return nil
	}
	m.driver = driver
	return m.continueStep(ctx)
}

func (m *machine) startCompile(ctx context.Context) error {
	var driver CompileDriver
	err := retryHostCall(ctx, func() error {
		d, err := m.host.PrepareQuery(ctx, m.req.QueryType, m.req.QueryRef, m.req.PrepareSettings)
		if err != nil {
			return err
		}
		driver = d
		return nil
	})
	if err != nil {
		m.fatal(err)
		return nil
	}
	m.driver = driver
	return m.continueStep(ctx)
}

func (m *machine) continueStep(ctx context.Context) error {
	stepCh := m.driver.Continue(ctx)
	go func() {
		select {
		case res := <-stepCh:
			_ = m.base.Send(ctx, continueProcessMsg{finished: res.Finished, err: res.Err})
		case <-ctx.Done():
		}
	}()
	return nil
}

func (m *machine) onContinue(ctx context.Context, msg continueProcessMsg) error {
	if msg.err != nil {
		m.fatal(msg.err)
		return nil
	}
	if !msg.finished {
		return m.continueStep(ctx)
	}
	if m.req.Mode == ModeSplit {
		return m.finishSplit()
	}
	return m.finishCompile(ctx)
}

func (m *machine) finishSplit() error {
	driver, ok := m.driver.(SplitDriver)
	if !ok {
		m.fatal(qerrors.New(qerrors.CodeInternal, "split driver finished with wrong type"))
		return nil
	}
	out, err := driver.Result()
	if err != nil {
		m.fatal(err)
		return nil
	}
	m.finish(Response{
		Status: out.Status,
		Split:  &SplitResponse{Status: out.Status, Exprs: out.Exprs, World: out.World, Ctx: out.Ctx},
	})
	return nil
}

func (m *machine) finishCompile(ctx context.Context) error {
	driver, ok := m.driver.(CompileDriver)
	if !ok {
		m.fatal(qerrors.New(qerrors.CodeInternal, "compile driver finished with wrong type"))
		return nil
	}
	out, err := driver.Result()
	if err != nil {
		m.fatal(err)
		return nil
	}
	m.cpuSpent += time.Since(m.compileStart)

	uid := out.UID
	if uid == "" {
		uid = uuid.NewString()
	}

	result := &CompileResult{
		Status:        out.Status,
		UID:           uid,
		Issues:        out.Issues,
		MaxReadType:   out.MaxReadType,
		PreparedQuery: out.PhysicalQuery,
		AllowCache:    canCacheQuery(out.PhysicalQuery) && out.HostAllowCache && m.cfg.AllowCache,
		NeedsSplit:    out.NeedsSplit,
		CPUTime:       m.cpuSpent,
	}
	m.finish(Response{Status: out.Status, Issues: out.Issues, Compile: result})
	return nil
}

// canCacheQuery is the compile actor's cache-eligibility predicate (spec
// §4.E: "allow_cache ← canCacheQuery(physical_query) && host.AllowCache").
// The source's real predicate inspects the physical plan for
// non-deterministic or session-scoped operators; absent that plan here, a
// query is cacheable once it actually produced a physical plan at all.
func canCacheQuery(physicalQuery []byte) bool {
	return len(physicalQuery) > 0
}

func (m *machine) fatal(err error) {
	m.logger.Error("compile actor fatal", "err", err)
	m.finish(Response{
		Status: qerrors.CodeInternal,
		Issues: []qerrors.Issue{{Code: qerrors.CodeInternal, Message: "INTERNAL_ERROR", SubIssue: []qerrors.Issue{qerrors.ToIssue(err)}}},
	})
}

func (m *machine) finish(resp Response) {
	m.doneOnce.Do(func() { m.done <- resp })
}

type retryable interface{ Retryable() bool }

// retryHostCall retries fn with exponential backoff, but only for errors
// the host marks Retryable(); anything else (or no such marker) fails
// immediately.
func retryHostCall(ctx context.Context, fn func() error) error {
	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if r, ok := err.(retryable); ok && r.Retryable() {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
