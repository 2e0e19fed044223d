// Package compile implements the compile-host state machine (spec §4.E):
// parse, split and full compile, each driven to completion over repeated
// ContinueProcess re-entries rather than blocking the actor thread.
package compile

import (
	"context"
	"time"

	"github.com/ydb-platform/ydb-go-query-core/querycore/qerrors"
)

// Mode is the compile actor's start mode.
type Mode int

const (
	ModeParse Mode = iota
	ModeCompile
	ModeSplit
)

// QueryType selects which host prepare method COMPILE dispatches to.
type QueryType int

const (
	QuerySQLDML QueryType = iota
	QueryASTDML
	QuerySQLScan
	QueryASTScan
	QuerySQLGenericQuery
	QuerySQLGenericConcurrentQuery
	QuerySQLGenericScript
)

// PrepareSettings carries the per-request settings forwarded to the host's
// Split/Prepare calls.
type PrepareSettings struct {
	PerStatement bool
	Diagnostics  bool
}

// Config is the frozen, per-request configuration snapshot the actor takes
// at construction (spec §4.E "Initial state").
type Config struct {
	SQLVersion                 int
	ResultRowsLimitByQueryType map[QueryType]uint64
	TablePathPrefix            string
	EnablePerStatementSplit    bool
	AllowCache                 bool
	Cluster, Database          string
}

// Request is one compile-actor invocation.
type Request struct {
	Mode            Mode
	QueryText       string
	QueryRef        string
	QueryType       QueryType
	Timeout         time.Duration
	PrepareSettings PrepareSettings
}

// Statement is one parsed statement.
type Statement struct {
	Text   string
	Issues []qerrors.Issue
}

// ParseResult is the host parser's raw output.
type ParseResult struct {
	Statements []Statement
}

// StepResult is what an async driver's Continue channel yields once per
// step (spec §4.E's "Future<bool finished>").
type StepResult struct {
	Finished bool
	Err      error
}

// Driver is the common shape of an async compile/split step driver.
type Driver interface {
	Continue(ctx context.Context) <-chan StepResult
}

// SplitOutcome is a finished SPLIT driver's result.
type SplitOutcome struct {
	Status qerrors.Code
	Exprs  []byte
	World  []byte
	Ctx    []byte
}

// SplitDriver drives SPLIT to completion.
type SplitDriver interface {
	Driver
	Result() (SplitOutcome, error)
}

// CompileOutcome is a finished COMPILE driver's result, before allow_cache
// is computed.
type CompileOutcome struct {
	Status       qerrors.Code
	UID          string
	Issues       []qerrors.Issue
	MaxReadType  string
	PhysicalQuery []byte
	HostAllowCache bool
	NeedsSplit   bool
}

// CompileDriver drives COMPILE to completion.
type CompileDriver interface {
	Driver
	Result() (CompileOutcome, error)
}

// Host is the external compile host (spec §4.E, §6): the parser, the query
// planner/optimizer, and the split engine. Not implemented here — this
// package only drives it through the state machine.
type Host interface {
	Parse(ctx context.Context, text string) (ParseResult, error)
	SplitQuery(ctx context.Context, queryRef string, settings PrepareSettings) (SplitDriver, error)
	PrepareQuery(ctx context.Context, qtype QueryType, queryRef string, settings PrepareSettings) (CompileDriver, error)
}

// Response is the compile actor's single reply, tagged by which field is
// set.
type Response struct {
	Status qerrors.Code
	Issues []qerrors.Issue

	Parse  *ParseResponse
	Split  *SplitResponse
	Compile *CompileResult
}

// ParseResponse is PARSE's success reply.
type ParseResponse struct {
	Statements []Statement
}

// SplitResponse is SPLIT's success reply.
type SplitResponse struct {
	Status qerrors.Code
	Exprs  []byte
	World  []byte
	Ctx    []byte
}

// CompileResult is COMPILE's success reply.
type CompileResult struct {
	Status        qerrors.Code
	UID           string
	Issues        []qerrors.Issue
	MaxReadType   string
	PreparedQuery []byte
	AllowCache    bool
	NeedsSplit    bool
	CPUTime       time.Duration
}
