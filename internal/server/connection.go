package server

import (
	"errors"
	"io"
	"net"

	"github.com/eternalApril/kvloop/internal/wire"
	"go.uber.org/zap"
)

// serveConnection is the per-connection I/O goroutine: read one request
// frame, hand it to the dispatcher goroutine, write the response, repeat.
// Blocking the goroutine on its own read/write serializes each
// connection's request/response stream (FIFO per spec.md §5) and gives
// the "stuck in Response can't accept new requests" back-pressure for
// free, without needing an explicit connection state machine.
func serveConnection(l *Loop, raw net.Conn, logger *zap.Logger) {
	defer raw.Close()

	cs := l.register(raw)
	defer l.unregister(cs)

	dec := wire.NewDecoder(raw)
	enc := wire.NewEncoder(raw)

	for {
		args, err := dec.Decode()
		if err != nil {
			if !isCleanClose(err) && logger != nil {
				logger.Debug("connection read error", zap.Error(err))
			}
			return
		}

		resp := l.dispatch(cs, args)

		if err := enc.Write(resp); err != nil {
			if logger != nil {
				logger.Debug("connection write error", zap.Error(err))
			}
			return
		}
	}
}

func isCleanClose(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF)
}
