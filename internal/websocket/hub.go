package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"iplcli/internal/infrastructure"
)

// Event types pushed to dashboard clients.
const (
	// EventResultsUpdated tells clients the result document changed on
	// disk and the dashboard views should refresh.
	EventResultsUpdated = "results:updated"

	// TypeConnection is the welcome message sent on register.
	TypeConnection = "connection"

	// eventRunSnapshot payloads are complete run snapshots from the
	// operations broadcaster and are forwarded without an envelope.
	eventRunSnapshot = "operation:snapshot"
)

// Hub maintains the set of active clients and fans broadcast messages out
// to them. It implements operations.WebSocketHub.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64

	quit        chan struct{}
	metricsQuit chan struct{}
	running     bool
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		clients:     make(map[*Client]bool),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		logger:      logger,
		quit:        make(chan struct{}),
		metricsQuit: make(chan struct{}),
	}
}

// Start launches the hub loop and the periodic metrics report.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
	go h.reportMetrics()
}

// Run processes register, unregister and broadcast events until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.totalConnections++
	count := len(h.clients)
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}
	h.logger.InfoContext(ctx, "client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	welcome := map[string]interface{}{
		"type": TypeConnection,
		"data": map[string]interface{}{
			"status":    "connected",
			"message":   "connected to IPL sponsorship dashboard",
			"client_id": client.id,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if data, err := json.Marshal(welcome); err == nil {
		select {
		case client.send <- data:
		default:
			h.logger.WarnContext(ctx, "welcome message dropped, client buffer full",
				slog.String("client_id", client.id))
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		select {
		case client.send <- message:
			sent++
		default:
			// Slow consumers are disconnected rather than allowed to
			// stall the hub.
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(sent)
	h.mu.Unlock()
}

// BroadcastUpdate sends an event to all connected clients. Run snapshots
// are forwarded as-is; other events carry subject and action fields.
func (h *Hub) BroadcastUpdate(eventType, subject, action string, payload interface{}) {
	message := map[string]interface{}{
		"type":      eventType,
		"data":      payload,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if eventType != eventRunSnapshot {
		message["subject"] = subject
		message["action"] = action
	}
	h.broadcastJSON(message)
}

// BroadcastResultsUpdated notifies clients that the result document was
// rewritten. The file watcher calls this.
func (h *Hub) BroadcastResultsUpdated(path string) {
	h.BroadcastUpdate(EventResultsUpdated, "analysis_results", "refresh", map[string]interface{}{
		"path": path,
	})
}

func (h *Hub) broadcastJSON(message map[string]interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("broadcast message marshal failed",
			slog.String("error", err.Error()))
		return
	}
	h.broadcast <- data
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register queues a client for registration with the hub loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Stop shuts the hub down and closes every client channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	close(h.metricsQuit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// reportMetrics logs hub counters periodically.
func (h *Hub) reportMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.metricsQuit:
			return
		case <-ticker.C:
			h.mu.RLock()
			active := len(h.clients)
			total := h.totalConnections
			sent := h.messagesSent
			h.mu.RUnlock()

			h.logger.Info("hub metrics",
				slog.Int("active_clients", active),
				slog.Int64("total_connections", total),
				slog.Int64("messages_sent", sent),
				slog.Int("broadcast_queue", len(h.broadcast)))
		}
	}
}

// Metrics returns current hub counters for the health endpoint.
func (h *Hub) Metrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
	}
}
