package server

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/eternalApril/kvloop/internal/keyspace"
	"github.com/eternalApril/kvloop/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(keyspace.New(nil), nil)
}

func decode(t *testing.T, b *wire.Builder) []byte {
	t.Helper()
	require.NotNil(t, b)
	return b.Bytes()
}

func TestScenariosFromSpec(t *testing.T) {
	now := time.UnixMicro(1_000_000)
	e := newTestEngine()

	r1 := e.Dispatch([]string{"SET", "foo", "bar"}, now)
	assert.Equal(t, byte(wire.TypeNil), decode(t, r1)[0])

	r2 := e.Dispatch([]string{"GET", "foo"}, now)
	body := decode(t, r2)
	assert.Equal(t, byte(wire.TypeString), body[0])

	r3 := e.Dispatch([]string{"GET", "missing"}, now)
	assert.Equal(t, byte(wire.TypeNil), decode(t, r3)[0])

	e.Dispatch([]string{"SET", "k", "v"}, now)
	r4 := e.Dispatch([]string{"ZADD", "k", "1", "m"}, now)
	errBody := decode(t, r4)
	assert.Equal(t, byte(wire.TypeError), errBody[0])

	e.Dispatch([]string{"ZADD", "s", "1", "a"}, now)
	e.Dispatch([]string{"ZADD", "s", "2", "b"}, now)
	addAgain := e.Dispatch([]string{"ZADD", "s", "1", "a"}, now)
	assert.Equal(t, byte(wire.TypeInteger), decode(t, addAgain)[0])

	r5 := e.Dispatch([]string{"ZQUERY", "s", "1", "", "0", "10"}, now)
	arrBody := decode(t, r5)
	assert.Equal(t, byte(wire.TypeArray), arrBody[0])

	r6 := e.Dispatch([]string{"PEXPIRE", "nokey", "1000"}, now)
	assert.Equal(t, byte(wire.TypeInteger), decode(t, r6)[0])

	e.Dispatch([]string{"PEXPIRE", "k", "1000"}, now)
	r7 := e.Dispatch([]string{"PTTL", "k"}, now)
	assert.Equal(t, byte(wire.TypeInteger), decode(t, r7)[0])
}

func TestUnknownCommandIsErrUnknown(t *testing.T) {
	e := newTestEngine()
	resp := e.Dispatch([]string{"NOPE"}, time.Now())
	body := decode(t, resp)
	assert.Equal(t, byte(wire.TypeError), body[0])
	assert.Equal(t, ErrUnknown, int32(binary.LittleEndian.Uint32(body[1:5])))
}

func TestEmptyCommandIsErrArg(t *testing.T) {
	e := newTestEngine()
	resp := e.Dispatch(nil, time.Now())
	body := decode(t, resp)
	assert.Equal(t, byte(wire.TypeError), body[0])
	assert.Equal(t, ErrArg, int32(binary.LittleEndian.Uint32(body[1:5])))
}

func TestWrongArityIsErrArg(t *testing.T) {
	e := newTestEngine()
	resp := e.Dispatch([]string{"GET"}, time.Now())
	body := decode(t, resp)
	assert.Equal(t, byte(wire.TypeError), body[0])
	assert.Equal(t, ErrArg, int32(binary.LittleEndian.Uint32(body[1:5])))
}
