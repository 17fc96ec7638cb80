package natsadapter

import (
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

const subjectPrefix = "explorer.session."

// SessionSubject is the subject carrying events of one kind for one session.
func SessionSubject(sessionID string, kind domain.EventKind) string {
	return subjectPrefix + sanitizeToken(sessionID) + "." + string(kind)
}

// SessionWildcard matches every event of one session.
func SessionWildcard(sessionID string) string {
	return subjectPrefix + sanitizeToken(sessionID) + ".>"
}

// sanitizeToken keeps a session id from introducing extra subject tokens or wildcards.
func sanitizeToken(s string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}

// Subscriber implements ports.EventSubscriber on a plain NATS connection.
// Live relays want the events as they happen, so no durable consumer is used.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber wraps an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeSession calls handler with the raw JSON of every event of a session.
func (s *Subscriber) SubscribeSession(sessionID string, handler func(data []byte)) (func() error, error) {
	sub, err := s.conn.Subscribe(SessionWildcard(sessionID), func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe session %s: %w", sessionID, err)
	}
	return sub.Unsubscribe, nil
}
