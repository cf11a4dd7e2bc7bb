package events

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"okinoko_ledger/contract/dao"
)

const DefaultSubjectPrefix = "okinoko.ledger"

// Publisher is the slice of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes every event as JSON to <prefix>.<instance>.<type>.
type NATSSink struct {
	pub    Publisher
	prefix string
	conn   *nats.Conn
	once   sync.Once
}

func NewNATSSink(pub Publisher, prefix string) *NATSSink {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	s := &NATSSink{pub: pub, prefix: prefix}
	if conn, ok := pub.(*nats.Conn); ok {
		s.conn = conn
	}
	return s
}

// DialNATS connects to url and returns a sink owning the connection.
func DialNATS(url, prefix string, logger *slog.Logger) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("okinoko-ledger"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if logger != nil && err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return NewNATSSink(conn, prefix), nil
}

// Subject returns where evt is published.
func (s *NATSSink) Subject(evt dao.Event) string {
	return fmt.Sprintf("%s.%s.%s", s.prefix, subjectToken(evt.Instance.String()), evt.Type)
}

func (s *NATSSink) Deliver(evt dao.Event) error {
	payload, err := evt.JSON()
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	return s.pub.Publish(s.Subject(evt), payload)
}

// Close drains the owned connection, if any.
func (s *NATSSink) Close() {
	s.once.Do(func() {
		if s.conn != nil {
			_ = s.conn.Drain()
		}
	})
}

// subjectToken makes an address safe as a single NATS subject token.
func subjectToken(v string) string {
	out := []byte(v)
	for i, c := range out {
		switch c {
		case '.', '*', '>', ' ', ':':
			out[i] = '_'
		}
	}
	return string(out)
}
