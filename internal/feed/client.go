package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

// Sink receives the outcome of every feed message. Implementations must be
// safe to call from the client's read goroutine.
type Sink interface {
	SnapshotReplaced(projects []domain.Project, raw []byte)
	SnapshotRejected(reason string)
}

// Client subscribes to the upstream project channel over a websocket and
// forwards each decoded payload to the sink. Connection loss is handled here
// with backoff; the sink only ever sees payloads or decode failures.
type Client struct {
	url    string
	topic  string
	min    time.Duration
	max    time.Duration
	sink   Sink
	log    *slog.Logger
	dialer *websocket.Dialer
}

// NewClient constructs a feed client for the given channel endpoint.
func NewClient(url, topic string, min, max time.Duration, sink Sink, log *slog.Logger) *Client {
	if min <= 0 {
		min = time.Second
	}
	if max < min {
		max = min
	}
	return &Client{
		url:    url,
		topic:  topic,
		min:    min,
		max:    max,
		sink:   sink,
		log:    log,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

type joinFrame struct {
	Event string `json:"event"`
	Topic string `json:"topic"`
}

// Run dials and reads the channel until the context is cancelled, redialing
// with exponential backoff after every failure.
func (c *Client) Run(ctx context.Context) {
	backoff := c.min
	for {
		delivered, err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		// A session that delivered a payload was healthy; its loss starts a
		// fresh reconnect schedule instead of inheriting the accumulated one.
		if delivered {
			backoff = c.min
		}
		if err != nil {
			c.log.Warn("feed connection lost", "url", c.url, "error", err, "retry_in", backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.max {
			backoff = c.max
		}
	}
}

func (c *Client) session(ctx context.Context) (bool, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	join, err := json.Marshal(joinFrame{Event: "join", Topic: c.topic})
	if err != nil {
		return false, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return false, err
	}
	c.log.Info("feed channel joined", "url", c.url, "topic", c.topic)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	delivered := false
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return delivered, err
		}
		c.deliver(payload)
		delivered = true
	}
}

func (c *Client) deliver(payload []byte) {
	projects, err := DecodeProjects(payload)
	if err != nil {
		c.log.Warn("feed payload rejected", "error", err)
		c.sink.SnapshotRejected(err.Error())
		return
	}
	c.sink.SnapshotReplaced(projects, payload)
}
