package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tinyworld/internal/telnet"
)

// Handler adapts the Engine to the telnet frontend. Each session gets two
// goroutines: the read loop below and a writer that drains the session's
// outbox to the connection. Slow or dead clients only stall their own
// writer; engine broadcasts never block on socket I/O.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a session handler over the given engine.
//
// Precondition: engine and logger must be non-nil.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// HandleSession runs one client's session to completion: register with the
// engine, pump outbound messages, and feed input lines until the connection
// drops or ctx is cancelled.
//
// Postcondition: The session is removed from the engine and its departure
// is broadcast before this method returns.
func (h *Handler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	sess := h.engine.Accept()
	defer h.engine.Disconnect(sess)

	// Close the connection on cancellation so the blocked ReadLine returns.
	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-readDone:
		}
	}()

	// Writer: drain the outbox until Disconnect closes it. A write failure
	// closes the connection, which surfaces as a read error below.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for msg := range sess.Outbox.Messages() {
			if err := conn.Write([]byte(msg)); err != nil {
				h.logger.Debug("writing to client",
					zap.Uint64("session_id", sess.ID),
					zap.Error(err),
				)
				_ = conn.Close()
				return
			}
		}
	}()

	var readErr error
	for {
		line, err := conn.ReadLine()
		if err != nil {
			readErr = err
			break
		}
		h.engine.HandleLine(sess, strings.TrimSpace(line))
	}

	// Disconnect closes the outbox, which lets the writer finish.
	h.engine.Disconnect(sess)
	<-writeDone

	if ctx.Err() != nil {
		return nil
	}
	return readErr
}
