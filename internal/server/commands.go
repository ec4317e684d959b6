package server

import (
	"math"
	"strconv"

	"github.com/eternalApril/kvloop/internal/keyspace"
)

// parseInt64Strict requires the entire argument to be consumed, per
// spec.md §4.8's "numeric parsing is strict."
func parseInt64Strict(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

// parseFloat64Strict additionally rejects NaN, which strconv.ParseFloat
// otherwise happily returns for the literal "nan".
func parseFloat64Strict(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func get(ctx *Context) {
	if len(ctx.Args) != 2 {
		ctx.Resp.Error(ErrArg, "GET requires exactly one key")
		return
	}
	e, ok := ctx.KS.Get(ctx.Args[1])
	if !ok {
		ctx.Resp.Nil()
		return
	}
	if e.Kind() != keyspace.KindString {
		ctx.Resp.Error(ErrType, "Key holds wrong type")
		return
	}
	ctx.Resp.String(e.Str())
}

func set(ctx *Context) {
	if len(ctx.Args) != 3 {
		ctx.Resp.Error(ErrArg, "SET requires key and value")
		return
	}
	e, created := ctx.KS.GetOrCreate(ctx.Args[1])
	if !created && e.Kind() != keyspace.KindString {
		ctx.Resp.Error(ErrType, "Key holds wrong type")
		return
	}
	e.SetStr(ctx.Args[2])
	ctx.Resp.Nil()
}

func del(ctx *Context) {
	if len(ctx.Args) != 2 {
		ctx.Resp.Error(ErrArg, "DEL requires exactly one key")
		return
	}
	if ctx.KS.Delete(ctx.Args[1]) {
		ctx.Resp.Integer(1)
	} else {
		ctx.Resp.Integer(0)
	}
}

func zadd(ctx *Context) {
	if len(ctx.Args) != 4 {
		ctx.Resp.Error(ErrArg, "ZADD requires key, score and member")
		return
	}
	score, ok := parseFloat64Strict(ctx.Args[2])
	if !ok {
		ctx.Resp.Error(ErrArg, "invalid score value")
		return
	}
	e, created := ctx.KS.GetOrCreate(ctx.Args[1])
	if !created && e.Kind() != keyspace.KindZSet {
		ctx.Resp.Error(ErrType, "Key holds wrong type")
		return
	}
	added := e.ZSet().Add(ctx.Args[3], score)
	if added {
		ctx.Resp.Integer(1)
	} else {
		ctx.Resp.Integer(0)
	}
}

func zrem(ctx *Context) {
	if len(ctx.Args) != 3 {
		ctx.Resp.Error(ErrArg, "ZREM requires key and member")
		return
	}
	e, ok := ctx.KS.Get(ctx.Args[1])
	if !ok {
		ctx.Resp.Integer(0)
		return
	}
	if e.Kind() != keyspace.KindZSet {
		ctx.Resp.Error(ErrType, "Key holds wrong type")
		return
	}
	if _, popped := e.ZSet().Pop(ctx.Args[2]); popped {
		ctx.Resp.Integer(1)
	} else {
		ctx.Resp.Integer(0)
	}
}

func zscore(ctx *Context) {
	if len(ctx.Args) != 3 {
		ctx.Resp.Error(ErrArg, "ZSCORE requires key and member")
		return
	}
	e, ok := ctx.KS.Get(ctx.Args[1])
	if !ok {
		ctx.Resp.Nil()
		return
	}
	if e.Kind() != keyspace.KindZSet {
		ctx.Resp.Error(ErrType, "Key holds wrong type")
		return
	}
	score, ok := e.ZSet().Score(ctx.Args[2])
	if !ok {
		ctx.Resp.Nil()
		return
	}
	ctx.Resp.Double(score)
}

func zquery(ctx *Context) {
	if len(ctx.Args) != 6 {
		ctx.Resp.Error(ErrArg, "ZQUERY requires key, score, name, offset, limit")
		return
	}
	score, ok := parseFloat64Strict(ctx.Args[2])
	if !ok {
		ctx.Resp.Error(ErrArg, "invalid score value")
		return
	}
	offset, ok1 := parseInt64Strict(ctx.Args[4])
	limit, ok2 := parseInt64Strict(ctx.Args[5])
	if !ok1 || !ok2 || limit <= 0 {
		ctx.Resp.Error(ErrArg, "invalid offset or limit")
		return
	}

	e, ok := ctx.KS.Get(ctx.Args[1])
	if !ok {
		ctx.Resp.Array(0)
		return
	}
	if e.Kind() != keyspace.KindZSet {
		ctx.Resp.Error(ErrType, "Key holds wrong type")
		return
	}

	results := e.ZSet().Query(score, ctx.Args[3], offset, int(limit))
	ctx.Resp.Array(uint32(len(results) * 2))
	for _, r := range results {
		ctx.Resp.String(r.Name)
		ctx.Resp.Double(r.Score)
	}
}

func pexpire(ctx *Context) {
	if len(ctx.Args) != 3 {
		ctx.Resp.Error(ErrArg, "PEXPIRE requires key and milliseconds")
		return
	}
	ttlMs, ok := parseInt64Strict(ctx.Args[2])
	if !ok {
		ctx.Resp.Error(ErrArg, "invalid TTL value")
		return
	}
	e, ok := ctx.KS.Get(ctx.Args[1])
	if !ok {
		ctx.Resp.Integer(0)
		return
	}
	ctx.KS.SetTTLMillis(e, ttlMs, ctx.Now)
	ctx.Resp.Integer(1)
}

func pttl(ctx *Context) {
	if len(ctx.Args) != 2 {
		ctx.Resp.Error(ErrArg, "PTTL requires key")
		return
	}
	e, ok := ctx.KS.Get(ctx.Args[1])
	if !ok {
		ctx.Resp.Integer(-2)
		return
	}
	ctx.Resp.Integer(ctx.KS.TTLMillis(e, ctx.Now))
}

func keysCmd(ctx *Context) {
	if len(ctx.Args) != 1 {
		ctx.Resp.Error(ErrArg, "KEYS takes no arguments")
		return
	}
	keys := ctx.KS.Keys()
	ctx.Resp.Array(uint32(len(keys)))
	for _, k := range keys {
		ctx.Resp.String(k)
	}
}
