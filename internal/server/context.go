package server

import (
	"time"

	"github.com/eternalApril/kvloop/internal/keyspace"
	"github.com/eternalApril/kvloop/internal/wire"
)

// Context is the argument bundle a command handler receives, grounded on
// the teacher's own *context passed to commandFunc.execute and on
// original_source/command_processor.hpp's CommandContext.
type Context struct {
	Args []string
	KS   *keyspace.Keyspace
	Now  time.Time
	Resp *wire.Builder
}

// commandFunc adapts a plain function to the command interface, matching
// the teacher's commandFunc(fn) pattern in internal/server/command.go.
type commandFunc func(*Context)

func (f commandFunc) execute(ctx *Context) { f(ctx) }

type command interface {
	execute(ctx *Context)
}
