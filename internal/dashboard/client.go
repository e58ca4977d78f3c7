package dashboard

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
	"github.com/chenhm/gitlab-ci-monitor/internal/monitor"
)

// Client wraps one dashboard websocket connection.
type Client struct {
	id   string
	conn *websocket.Conn
	log  *slog.Logger
}

// NewClient constructs a client wrapper with a fresh subscriber identity.
func NewClient(conn *websocket.Conn, log *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{id: id, conn: conn, log: log.With("subscriber", id)}
}

// Send writes a frame payload to the websocket connection.
func (c *Client) Send(payload []byte) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn("dashboard send failed", "error", err)
		_ = c.conn.Close()
		return err
	}
	return nil
}

// Close terminates the connection.
func (c *Client) Close() {
	_ = c.conn.Close()
}

// measureMessage is what the page sends back after measuring rendered cards.
type measureMessage struct {
	Seq     uint64                 `json:"seq"`
	Metrics []domain.ElementMetric `json:"metrics"`
}

// ReadMeasurements pumps measurement responses from the page into the loop
// until the connection drops. Runs on its own goroutine per connection.
func (c *Client) ReadMeasurements(loop *monitor.Loop, done func()) {
	defer done()
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg measureMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.log.Warn("bad measurement message", "error", err)
			continue
		}
		loop.Dispatch(monitor.HeightsMeasured{Seq: msg.Seq, Metrics: msg.Metrics})
	}
}
