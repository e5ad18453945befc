package engine

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/tinyworld/internal/game/session"
)

// Router delivers text to session outboxes. Every delivery is line
// terminated except SendRaw, which prompts use to stay on the client's
// input line. A failed delivery (target disconnected, buffer full) is
// dropped silently; the sender never sees an error.
type Router struct {
	registry *session.Registry
	logger   *zap.Logger
}

// NewRouter creates a Router over the given registry.
//
// Precondition: registry and logger must be non-nil.
func NewRouter(registry *session.Registry, logger *zap.Logger) *Router {
	return &Router{registry: registry, logger: logger}
}

// SendTo delivers one line-terminated message to a single session.
func (r *Router) SendTo(sess *session.Session, text string) {
	r.push(sess, text+"\r\n")
}

// SendRaw delivers text with no line terminator appended.
func (r *Router) SendRaw(sess *session.Session, text string) {
	r.push(sess, text)
}

// SendToRoom delivers a message to every named session in roomID except
// excludeID. Pass 0 to exclude nobody.
func (r *Router) SendToRoom(roomID string, excludeID uint64, text string) {
	for _, sess := range r.registry.NamedInRoom(roomID) {
		if sess.ID == excludeID {
			continue
		}
		r.SendTo(sess, text)
	}
}

// SendToAll delivers a message to every session except excludeID, named or
// not: a client still at the name prompt sees global notices too. Pass 0 to
// exclude nobody.
func (r *Router) SendToAll(excludeID uint64, text string) {
	for _, sess := range r.registry.All() {
		if sess.ID == excludeID {
			continue
		}
		r.SendTo(sess, text)
	}
}

func (r *Router) push(sess *session.Session, text string) {
	if err := sess.Outbox.Push(text); err != nil {
		r.logger.Debug("dropping undeliverable message",
			zap.Uint64("session_id", sess.ID),
			zap.Error(err),
		)
	}
}
