package websocket

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"iplcli/internal/infrastructure"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a silent peer stays connected. pingPeriod must
	// stay below it so a healthy peer always gets a ping in time.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; the dashboard only ever sends
	// small heartbeats.
	maxMessageSize = 512
)

// Client sits between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn Connection

	// Buffered channel of outbound messages
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient creates a client around a gorilla connection.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return newClient(hub, NewConnectionWrapper(conn), logger)
}

// NewClientWithConnection creates a client around any Connection, used by
// tests with a scripted fake.
func NewClientWithConnection(hub *Hub, conn Connection, logger *slog.Logger) *Client {
	return newClient(hub, conn, logger)
}

func newClient(hub *Hub, conn Connection, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.NewString()
	logger = infrastructure.WithComponent(logger, "websocket.client").
		With(slog.String("client_id", id))

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// WithTraceID attaches the request trace ID to the client's log lines.
func (c *Client) WithTraceID(traceID string) *Client {
	c.traceID = traceID
	c.logger = c.logger.With(slog.String("trace_id", traceID))
	return c
}

// ReadPump drains messages from the connection until it closes. The only
// inbound message the dashboard sends is a heartbeat.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.Info("client read pump stopped",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("unexpected close",
					slog.String("error", err.Error()))
			}
			return
		}

		if string(bytes.TrimSpace(message)) == `{"type":"heartbeat"}` {
			c.logger.Debug("heartbeat received")
			continue
		}
		// Other client messages are ignored; the protocol is push-only.
	}
}

// WritePump forwards hub messages to the connection and keeps it alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// The hub closed the channel.
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.logger.Error("write failed",
					slog.String("error", err.Error()))
				return
			}

			// Flush anything queued behind this message as separate frames.
			for n := len(c.send); n > 0; n-- {
				queued, ok := <-c.send
				if !ok {
					c.write(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.write(websocket.TextMessage, queued); err != nil {
					c.logger.Error("write failed",
						slog.String("error", err.Error()))
					return
				}
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

// write sends one frame under the write deadline.
func (c *Client) write(messageType int, payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}

// ServeWS registers a connection with the hub and starts its pumps.
func ServeWS(hub *Hub, conn *websocket.Conn, traceID string) {
	client := NewClient(hub, conn, nil)
	if traceID != "" {
		client.WithTraceID(traceID)
	}
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
