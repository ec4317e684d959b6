// Package server implements the command dispatcher and the goroutine-based
// event loop that replaces the source's single-threaded poll() reactor,
// grounded on the teacher's internal/server/engine.go registry pattern and
// original_source/include/server.hpp's timer/connection algorithm.
package server

import (
	"strings"
	"time"

	"github.com/eternalApril/kvloop/internal/keyspace"
	"github.com/eternalApril/kvloop/internal/wire"
	"go.uber.org/zap"
)

// Engine owns the command registry and dispatches decoded request frames
// against a Keyspace. It is not safe for concurrent use: exactly one
// goroutine (the dispatcher loop in Loop) may call Dispatch, matching
// spec.md §4.9's single-owner invariant.
type Engine struct {
	commands map[string]command
	ks       *keyspace.Keyspace
	logger   *zap.Logger
}

// NewEngine builds an Engine with every command from spec.md §4.8
// registered.
func NewEngine(ks *keyspace.Keyspace, logger *zap.Logger) *Engine {
	e := &Engine{
		commands: make(map[string]command),
		ks:       ks,
		logger:   logger,
	}
	e.register("GET", commandFunc(get))
	e.register("SET", commandFunc(set))
	e.register("DEL", commandFunc(del))
	e.register("ZADD", commandFunc(zadd))
	e.register("ZREM", commandFunc(zrem))
	e.register("ZSCORE", commandFunc(zscore))
	e.register("ZQUERY", commandFunc(zquery))
	e.register("PEXPIRE", commandFunc(pexpire))
	e.register("PTTL", commandFunc(pttl))
	e.register("KEYS", commandFunc(keysCmd))
	return e
}

func (e *Engine) register(name string, cmd command) {
	e.commands[strings.ToUpper(name)] = cmd
}

// Dispatch executes args against the registered command table and returns
// the built response. An empty command or unknown verb is a command error,
// not a protocol error: the connection stays open, per spec.md §7.
func (e *Engine) Dispatch(args []string, now time.Time) *wire.Builder {
	resp := &wire.Builder{}

	if len(args) == 0 {
		resp.Error(ErrArg, "empty command")
		return resp
	}

	name := strings.ToUpper(args[0])
	cmd, ok := e.commands[name]
	if !ok {
		resp.Error(ErrUnknown, "unknown command")
		return resp
	}

	if e.logger != nil && e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("dispatching command",
			zap.String("cmd", name),
			zap.Int("args", len(args)),
		)
	}

	cmd.execute(&Context{Args: args, KS: e.ks, Now: now, Resp: resp})
	return resp
}
