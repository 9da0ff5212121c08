// Package natspub publishes planned profiles to NATS.
package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/larschri/horisont/plan"
)

type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// Publisher sends every Result as JSON to <prefix>.<point name>.
type Publisher struct {
	conn   conn
	prefix string
}

// NewPublisher connects to NATS.
func NewPublisher(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("horisont"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, prefix: prefix}, nil
}

// Subject returns the subject for a point. Characters that are not allowed
// in a subject token are replaced with '_'.
func Subject(prefix, point string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, point)
	return prefix + "." + token
}

// Publish sends res and waits until the server has received it.
func (p *Publisher) Publish(ctx context.Context, res plan.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	subject := Subject(p.prefix, res.Point.Name)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return p.conn.FlushWithContext(ctx)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
