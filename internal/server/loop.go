package server

import (
	"net"
	"time"

	"github.com/eternalApril/kvloop/internal/idlelist"
	"github.com/eternalApril/kvloop/internal/keyspace"
	"github.com/eternalApril/kvloop/internal/wire"
	"go.uber.org/zap"
)

// IdleTimeout closes a connection after this much time with no I/O, per
// spec.md §4.9/§5.
const IdleTimeout = 5 * time.Second

// tickInterval is how often the dispatcher goroutine wakes on its own to
// sweep expired TTLs and idle connections, standing in for the source's
// poll()-computed timeout (see DESIGN.md's event-loop Open Question).
const tickInterval = 50 * time.Millisecond

type eventKind int

const (
	evRegister eventKind = iota
	evRequest
	evUnregister
)

type loopEvent struct {
	kind  eventKind
	conn  *connState
	args  []string
	reply chan *wire.Builder
}

// connState is the dispatcher goroutine's bookkeeping record for one live
// connection: an idle-list membership node plus enough to close the
// underlying socket from outside the connection's own goroutine.
type connState struct {
	id   uint64
	node idlelist.Node
	raw  net.Conn
	last time.Time
}

// Loop is the single-owner dispatcher: every Keyspace mutation and every
// idle-list operation happens inside its run goroutine, matching spec.md
// §5's "no data-structure operation is performed off the event-loop
// thread."
type Loop struct {
	engine *Engine
	ks     *keyspace.Keyspace
	logger *zap.Logger

	events chan loopEvent
	done   chan struct{}
	idle   idlelist.List

	nextID       uint64
	tickInterval time.Duration
	idleTimeout  time.Duration
}

// SetTickInterval overrides how often the dispatcher sweeps TTLs and idle
// connections. Must be called before Run. Zero leaves the default.
func (l *Loop) SetTickInterval(d time.Duration) { l.tickInterval = d }

// SetIdleTimeout overrides how long a connection may sit idle before the
// dispatcher closes it. Must be called before Run. Zero leaves the default
// (IdleTimeout). Exposed so tests can drive a close without waiting out the
// production 5s window.
func (l *Loop) SetIdleTimeout(d time.Duration) { l.idleTimeout = d }

// NewLoop constructs a dispatcher loop around engine and ks. Call Run in
// its own goroutine, then pass the loop to Listen, whose Serve hands each
// incoming net.Conn to it.
func NewLoop(engine *Engine, ks *keyspace.Keyspace, logger *zap.Logger) *Loop {
	return &Loop{
		engine: engine,
		ks:     ks,
		logger: logger,
		events: make(chan loopEvent, 64),
		done:   make(chan struct{}),
	}
}

// Run is the dispatcher goroutine's body. It returns when Stop is called.
func (l *Loop) Run() {
	interval := l.tickInterval
	if interval <= 0 {
		interval = tickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-l.events:
			l.handle(ev)
		case now := <-ticker.C:
			l.tick(now)
		case <-l.done:
			return
		}
	}
}

// Stop halts the dispatcher goroutine. It does not close any connections;
// callers are expected to have already stopped accepting and drained
// in-flight work.
func (l *Loop) Stop() { close(l.done) }

func (l *Loop) handle(ev loopEvent) {
	switch ev.kind {
	case evRegister:
		l.idle.PushBack(&ev.conn.node, ev.conn)
	case evUnregister:
		l.idle.Remove(&ev.conn.node)
	case evRequest:
		l.idle.PushBack(&ev.conn.node, ev.conn) // touch: refresh MRU position
		ev.conn.last = time.Now()
		ev.reply <- l.engine.Dispatch(ev.args, time.Now())
	}
}

func (l *Loop) tick(now time.Time) {
	expired := l.ks.Sweep(now)
	if expired > 0 && l.logger != nil {
		l.logger.Debug("swept expired entries", zap.Int("count", expired))
	}

	idleTimeout := l.idleTimeout
	if idleTimeout <= 0 {
		idleTimeout = IdleTimeout
	}

	for {
		owner, node := l.idle.Front()
		if owner == nil {
			return
		}
		cs := owner.(*connState)
		if now.Sub(cs.last) < idleTimeout {
			return
		}
		l.idle.Remove(node)
		_ = cs.raw.Close() // unblocks the connection goroutine's pending Read
	}
}

// register enrolls a new connection with the dispatcher and returns its
// bookkeeping record.
func (l *Loop) register(raw net.Conn) *connState {
	l.nextID++
	cs := &connState{id: l.nextID, raw: raw, last: time.Now()}
	l.events <- loopEvent{kind: evRegister, conn: cs}
	return cs
}

func (l *Loop) unregister(cs *connState) {
	l.events <- loopEvent{kind: evUnregister, conn: cs}
}

// dispatch sends args to the dispatcher goroutine and blocks for the
// response, preserving strict per-connection FIFO ordering.
func (l *Loop) dispatch(cs *connState, args []string) *wire.Builder {
	reply := make(chan *wire.Builder, 1)
	l.events <- loopEvent{kind: evRequest, conn: cs, args: args, reply: reply}
	return <-reply
}
