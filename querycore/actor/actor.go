// Package actor provides the cooperative-task runtime spec §9 asks for in
// place of the source's mailbox-based actor runtime: each Actor is a
// long-running goroutine draining a typed inbox to completion, one message
// at a time, never blocking inside a handler. Supervision is an
// errgroup.Group, the way the teacher threads a context through
// turbo/stages/stageloop.go's run loop.
package actor

import (
	"context"
	"fmt"

	"github.com/erigontech/erigon-lib/log/v3"
	"golang.org/x/sync/errgroup"
)

// Msg is any message an Actor can receive. Concrete actors define their own
// message sum types and type-switch on Handle.
type Msg any

// Handler processes one message to completion. It must not block other than
// on the operations the message itself names (spec §5: suspension points are
// only at message boundaries).
type Handler func(ctx context.Context, msg Msg) error

// Actor is a single mailbox-driven state machine.
type Actor struct {
	name    string
	inbox   chan Msg
	handle  Handler
	logger  log.Logger
	onPanic func(recovered any)
}

// Option configures an Actor at construction.
type Option func(*Actor)

// WithMailboxSize overrides the default bounded inbox capacity.
func WithMailboxSize(n int) Option {
	return func(a *Actor) { a.inbox = make(chan Msg, n) }
}

// New builds an Actor with the given name and handler. The inbox defaults to
// capacity 64; use WithMailboxSize to change it.
func New(name string, logger log.Logger, handle Handler, opts ...Option) *Actor {
	a := &Actor{
		name:   name,
		inbox:  make(chan Msg, 64),
		handle: handle,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send enqueues msg, blocking only if the mailbox is full. It returns
// ctx.Err() if ctx is cancelled first.
func (a *Actor) Send(ctx context.Context, msg Msg) error {
	select {
	case a.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the inbox until ctx is cancelled, dispatching each message to
// the handler in order. A panic inside a handler is recovered, logged, and
// passed to onPanic when one is set, so a single bad message can't take the
// whole ring down; it does not stop the loop. A handler error is logged.
func (a *Actor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-a.inbox:
			a.dispatch(ctx, msg)
		}
	}
}

func (a *Actor) dispatch(ctx context.Context, msg Msg) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("actor handler panicked", "actor", a.name, "panic", r)
			if a.onPanic != nil {
				a.onPanic(r)
			}
		}
	}()
	if err := a.handle(ctx, msg); err != nil {
		a.logger.Warn("actor handler error", "actor", a.name, "err", err)
	}
}

// Ring supervises a set of actors on a shared errgroup, the "ring of
// cooperative tasks" spec §9 calls for.
type Ring struct {
	g      *errgroup.Group
	ctx    context.Context
	actors []*Actor
}

// NewRing creates a Ring bound to ctx; Wait returns when ctx is cancelled or
// any actor's Run returns a non-context error.
func NewRing(ctx context.Context) *Ring {
	g, gctx := errgroup.WithContext(ctx)
	return &Ring{g: g, ctx: gctx}
}

// Spawn starts a in the ring.
func (r *Ring) Spawn(a *Actor) {
	r.actors = append(r.actors, a)
	r.g.Go(func() error {
		err := a.Run(r.ctx)
		if err == context.Canceled || err == context.DeadlineExceeded {
			return nil
		}
		return fmt.Errorf("actor %s: %w", a.name, err)
	})
}

// Wait blocks until every spawned actor has returned.
func (r *Ring) Wait() error { return r.g.Wait() }
