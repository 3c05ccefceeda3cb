package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rusithink-backend/internal/middleware"
	"rusithink-backend/internal/service/chat"
	"rusithink-backend/pkg/constants"
	"rusithink-backend/pkg/logger"
	"rusithink-backend/pkg/metrics"
)

// ChatHub fans Redis pub/sub events out to WebSocket connections. Each
// conversation channel is subscribed lazily on the first connected listener
// and dropped with the last one.
type ChatHub struct {
	conversations map[uuid.UUID]map[*Client]bool
	cancels       map[uuid.UUID]context.CancelFunc

	redisClient *redis.Client
	metrics     *metrics.Metrics

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *event
}

// event is one payload addressed to a conversation
type event struct {
	clientID uuid.UUID
	payload  []byte
}

// Client represents one WebSocket connection
type Client struct {
	hub      *ChatHub
	conn     *websocket.Conn
	send     chan []byte
	userID   uuid.UUID
	clientID uuid.UUID
}

const (
	writeWait  = 10 * time.Second
	pongWait   = constants.WebSocketPingInterval
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewChatHub creates a new chat hub
func NewChatHub(redisClient *redis.Client, m *metrics.Metrics) *ChatHub {
	hub := &ChatHub{
		conversations: make(map[uuid.UUID]map[*Client]bool),
		cancels:       make(map[uuid.UUID]context.CancelFunc),
		redisClient:   redisClient,
		metrics:       m,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan *event, 256),
	}

	go hub.run()

	return hub
}

func (h *ChatHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.conversations[client.clientID] == nil {
				h.conversations[client.clientID] = make(map[*Client]bool)

				ctx, cancel := context.WithCancel(context.Background())
				h.cancels[client.clientID] = cancel
				go h.subscribeConversation(ctx, client.clientID)
			}
			h.conversations[client.clientID][client] = true
			h.mu.Unlock()
			h.metrics.IncrementWebSocketConnections()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.conversations[client.clientID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					h.metrics.DecrementWebSocketConnections()

					if len(clients) == 0 {
						delete(h.conversations, client.clientID)
						if cancel, ok := h.cancels[client.clientID]; ok {
							cancel()
							delete(h.cancels, client.clientID)
						}
					}
				}
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.RLock()
			for client := range h.conversations[ev.clientID] {
				select {
				case client.send <- ev.payload:
				default:
					// Slow consumer, drop it
					close(client.send)
					delete(h.conversations[ev.clientID], client)
					h.metrics.DecrementWebSocketConnections()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// subscribeConversation relays one Redis channel into the hub until the last
// listener disconnects
func (h *ChatHub) subscribeConversation(ctx context.Context, clientID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, chat.Channel(clientID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast <- &event{
				clientID: clientID,
				payload:  []byte(msg.Payload),
			}
		}
	}
}

// ServeWS upgrades the connection and attaches it to the caller's
// conversation. Clients are always bound to their own conversation; the
// admin names one via the client_id query parameter.
// GET /api/chat/ws?token=...&client_id=uuid
func (h *ChatHub) ServeWS(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	clientID := identity.UserID
	if identity.IsAdmin() {
		parsed, err := uuid.Parse(c.Query("client_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_id required"})
			return
		}
		clientID = parsed
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		userID:   identity.UserID,
		clientID: clientID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection to process control frames and detect
// disconnects. Messages are sent over the REST API, not the socket.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Debug("websocket read error", zap.Error(err))
			}
			break
		}
	}
}

// writePump pushes events and keepalive pings to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
