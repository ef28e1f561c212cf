package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"community-match-service/internal/models"
	"community-match-service/internal/redis"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Hub tracks the open sockets of each user and pushes engine events to them.
// It implements services.Notifier.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*Client]struct{}
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

func NewHub(allowedOrigins []string, log logrus.FieldLogger) *Hub {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Hub{
		clients: make(map[uint]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		log: log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.log.WithField("user_id", c.userID).Debug("socket connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.log.WithField("user_id", c.userID).Debug("socket disconnected")
}

// Connections returns the number of open sockets of userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// BroadcastToUser queues payload on every socket of userID. Sockets whose
// buffer is full are dropped.
func (h *Hub) BroadcastToUser(userID uint, payload []byte) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.WithField("user_id", userID).Warn("dropping slow socket")
		h.unregister(c)
	}
}

func (h *Hub) MatchCreated(_ context.Context, match models.Match) {
	payload, err := json.Marshal(models.NewMatchEvent(match))
	if err != nil {
		h.log.WithError(err).Warn("failed to encode match event")
		return
	}
	h.BroadcastToUser(match.UserAID, payload)
	h.BroadcastToUser(match.UserBID, payload)
}

func (h *Hub) MessageSent(_ context.Context, msg models.Message, recipientID uint) {
	payload, err := json.Marshal(models.NewMessageEvent(msg))
	if err != nil {
		h.log.WithError(err).Warn("failed to encode message event")
		return
	}
	h.BroadcastToUser(recipientID, payload)
	h.BroadcastToUser(msg.SenderID, payload)
}

// Relay forwards events published on the per-user redis channels to the
// sockets held by this process. It returns when ctx is done or the
// subscription closes.
func (h *Hub) Relay(ctx context.Context, client *redis.Client) error {
	sub := client.PSubscribe(ctx, redis.UserChannelPattern)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, err := redis.ParseUserChannel(msg.Channel)
			if err != nil {
				h.log.WithError(err).Warn("ignoring event")
				continue
			}
			h.BroadcastToUser(userID, []byte(msg.Payload))
		}
	}
}

// Serve upgrades the request of an authenticated user and pumps events to it.
func (h *Hub) Serve(c *gin.Context, userID uint) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
	}
	h.register(client)

	go client.writePump()
	go client.readPump()
}

// readPump only drains control frames; clients do not send events.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("user_id", c.userID).Warn("websocket read error")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.WithError(err).WithField("user_id", c.userID).Warn("websocket write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
