package main

import (
	"context"
	"time"

	"github.com/erigontech/erigon-lib/log/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ydb-platform/ydb-go-query-core/querycore/compile"
	qconfig "github.com/ydb-platform/ydb-go-query-core/querycore/config"
)

// supervisor is the process-wide context object (spec §9 "Global state"): it
// owns the shared logger, config and Host client, and supervises the ring of
// cooperative actors built on top of them.
type supervisor struct {
	logger log.Logger
	host   compile.Host
	cfg    qconfig.Config
	replay *compile.ReplayWriter

	compileReqs chan compileJob
}

type compileJob struct {
	req  compile.Request
	resp chan<- compileResult
}

type compileResult struct {
	resp *compile.Response
	err  error
}

func newSupervisor(logger log.Logger, host compile.Host, cfg qconfig.Config, replay *compile.ReplayWriter) *supervisor {
	return &supervisor{
		logger:      logger,
		host:        host,
		cfg:         cfg,
		replay:      replay,
		compileReqs: make(chan compileJob, 64),
	}
}

// compileConfig projects the process config onto the compile actor's own
// Config shape (spec §4.E).
func (s *supervisor) compileConfig() compile.Config {
	return compile.Config{
		SQLVersion:              0,
		TablePathPrefix:         "/",
		EnablePerStatementSplit: s.cfg.EnablePerStatementQueryExecution,
		AllowCache:              s.cfg.AllowCache,
		Cluster:                 s.cfg.Cluster,
		Database:                s.cfg.Database,
	}
}

// Submit enqueues a compile-actor request and blocks for its response,
// unless ctx is cancelled first.
func (s *supervisor) Submit(ctx context.Context, req compile.Request) (*compile.Response, error) {
	if req.Timeout == 0 {
		req.Timeout = s.cfg.CompileTimeout()
	}
	reply := make(chan compileResult, 1)
	select {
	case s.compileReqs <- compileJob{req: req, resp: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run starts the compile-actor worker ring and blocks until ctx is
// cancelled. Each worker pulls jobs off the shared queue and drives one
// compile.Run to completion at a time, the way the teacher's stageloop
// drives one stage at a time under a single cancellable context.
func (s *supervisor) Run(ctx context.Context) error {
	const workers = 4
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return s.worker(gctx)
		})
	}
	return g.Wait()
}

// recordReplay persists a finished compile for later replay (spec §4.E). A
// write failure is logged, not propagated: losing a replay entry must never
// fail the query that produced it.
func (s *supervisor) recordReplay(cfg compile.Config, result *compile.CompileResult, req compile.Request) {
	rec := compile.BuildReplayRecord(cfg, result, req.QueryText, result.PreparedQuery, nil, nil, time.Now().Unix())
	if err := s.replay.WriteCompact(rec); err != nil {
		s.logger.Warn("replay write failed", "query_id", result.UID, "err", err)
		return
	}
	if s.cfg.EnableDiagnostics {
		if err := s.replay.WriteDiagnostics(rec); err != nil {
			s.logger.Warn("replay diagnostics write failed", "query_id", result.UID, "err", err)
		}
	}
}

func (s *supervisor) worker(ctx context.Context) error {
	cfg := s.compileConfig()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-s.compileReqs:
			resp, err := compile.Run(ctx, s.logger, s.host, cfg, job.req)
			if err == nil && resp != nil && resp.Compile != nil && s.replay != nil {
				s.recordReplay(cfg, resp.Compile, job.req)
			}
			job.resp <- compileResult{resp: resp, err: err}
		}
	}
}
