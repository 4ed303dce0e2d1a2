// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsWriteWait  = 10 * time.Second
)

// WebSocketHandler streams printer and job events to WebSocket clients
type WebSocketHandler struct {
	upgrader     websocket.Upgrader
	connections  *ConnectionManager
	printService *service.PrintService
	eventBus     *EventBus
	logger       *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler. An empty
// allowedOrigins accepts any origin.
func NewWebSocketHandler(
	eventBus *EventBus,
	printService *service.PrintService,
	allowedOrigins []string,
	logger *zap.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		connections:  NewConnectionManager(),
		printService: printService,
		eventBus:     eventBus,
		logger:       utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// Start subscribes to the bus and forwards events to clients until the
// bus stops, then disconnects every client
func (h *WebSocketHandler) Start() {
	events, unsubscribe := h.eventBus.Subscribe(AllEvents)

	go func() {
		defer unsubscribe()
		for event := range events {
			h.BroadcastEvent(event)
		}
		h.Close()
	}()
}

// Close disconnects every client
func (h *WebSocketHandler) Close() {
	h.connections.UnregisterAll()
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events", h.HandleEventConnection)
	router.GET("/stats", h.ConnectionStats)
}

// ConnectionStats reports connected WebSocket clients
// @Summary WebSocket connection stats
// @Tags Events
// @Produce json
// @Success 200 {object} utils.APIResponse{data=ConnectionStats} "Connection stats"
// @Router /ws/stats [get]
func (h *WebSocketHandler) ConnectionStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Connection stats retrieved", h.GetConnectionStats())
}

// HandleEventConnection upgrades to a WebSocket streaming events. The
// printer_id query narrows events to one printer; types is a comma
// separated list of event types.
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		PrinterID:   c.Query("printer_id"),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}
	for _, t := range strings.Split(c.Query("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			client.Subscribe(model.EventType(strings.ToUpper(t)))
		}
	}

	h.connections.Register(client)
	h.logger.Info("Event WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("printer_id", client.PrinterID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	h.sendStatus(client, utils.GetRequestID(c))

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Debug("Event WebSocket client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadLimit(4096)
	client.Connection.SetReadDeadline(time.Now().Add(wsPongWait))
	client.Connection.SetPongHandler(func(string) error {
		return client.Connection.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Warn("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe", "unsubscribe":
		topic := topicOf(message)
		if topic == "" {
			h.sendError(client, "topic is required")
			return
		}
		if message.Type == "subscribe" {
			client.Subscribe(topic)
		} else {
			client.Unsubscribe(topic)
		}
		h.sendMessage(client, &WebSocketMessage{
			Type:      message.Type + "d",
			Data:      gin.H{"topic": topic, "subscriptions": client.Subscriptions()},
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	case "status":
		h.sendStatus(client, message.RequestID)
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	default:
		h.sendError(client, "unknown message type: "+message.Type)
	}
}

func topicOf(message *WebSocketMessage) model.EventType {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	topic, _ := data["topic"].(string)
	return model.EventType(strings.ToUpper(strings.TrimSpace(topic)))
}

// sendStatus sends the printers a client can see
func (h *WebSocketHandler) sendStatus(client *Client, requestID string) {
	printers := h.printService.Printers()
	if client.PrinterID != "" {
		printers = slices.DeleteFunc(printers, func(p service.PrinterState) bool {
			return p.ID != client.PrinterID
		})
	}

	h.sendMessage(client, &WebSocketMessage{
		Type:      "status",
		Data:      gin.H{"printers": printers},
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

// sendMessage queues a message for one client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	h.connections.Each(func(c *Client) {
		if c != client {
			return
		}
		select {
		case c.Send <- messageBytes:
		default:
			h.logger.Warn("Client send channel full, dropping message",
				zap.String("client_id", c.ID),
			)
		}
	})
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      gin.H{"error": errorMsg},
		Timestamp: time.Now(),
	})
}

// BroadcastEvent sends an event to every client whose filters match
func (h *WebSocketHandler) BroadcastEvent(event model.Event) {
	messageBytes, err := json.Marshal(&WebSocketMessage{
		Type:      "event",
		Data:      event,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.connections.Each(func(client *Client) {
		if !client.Wants(event) {
			return
		}
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Client send channel full during broadcast",
				zap.String("client_id", client.ID),
				zap.String("event_type", string(event.Type)),
			)
		}
	})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
