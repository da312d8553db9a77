package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/photoly-interactive/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Events queued between publishers and the hub loop.
	broadcastBuffer = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// widgets are embedded on other sites
		return true
	},
}

// Message is what the hub writes to clients
type Message struct {
	SessionID string      `json:"session_id"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
}

// Action is what clients send to drive a session
type Action struct {
	Action    string  `json:"action"`
	Index     int     `json:"index,omitempty"`
	Direction string  `json:"direction,omitempty"`
	DX        float64 `json:"dx,omitempty"`
	DY        float64 `json:"dy,omitempty"`
	Face      string  `json:"face,omitempty"`
}

// Controller is the part of the studio service clients can drive
type Controller interface {
	PuzzleMove(ctx context.Context, sessionID string, index int) (*service.PuzzleResult, error)
	PuzzleSwipe(ctx context.Context, sessionID, direction string) (*service.PuzzleResult, error)
	PuzzleSkip(ctx context.Context, sessionID string) (*service.PuzzleResult, error)
	PuzzleNextRound(ctx context.Context, sessionID string) (*service.PuzzleResult, error)
	CubePointerDown(ctx context.Context, sessionID string) (*service.CubeResult, error)
	CubeDrag(ctx context.Context, sessionID string, dx, dy float64) (*service.CubeResult, error)
	CubePointerUp(ctx context.Context, sessionID string) (*service.CubeResult, error)
	CubeSnap(ctx context.Context, sessionID, face string) (*service.CubeResult, error)
	CubeRelease(ctx context.Context, sessionID string) (*service.CubeResult, error)
}

// ErrUnknownAction is returned for an action name the hub does not handle
var ErrUnknownAction = errors.New("unknown action")

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients and fans session events out to them
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	// Events waiting to be delivered
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Replies to a single client
	direct chan *reply

	controller Controller
}

type reply struct {
	client *Client
	data   []byte
}

var _ service.Publisher = (*Hub)(nil)

// NewHub creates a new WebSocket hub. controller may be nil, in which case
// client actions are rejected.
func NewHub(controller Controller) *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan *reply),
		controller: controller,
	}
}

// SetController attaches the service after construction, for when the
// service itself needs the hub as its publisher
func (h *Hub) SetController(c Controller) {
	h.controller = c
}

// Run starts the hub's event loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case r := <-h.direct:
			h.sendDirect(r)
		}
	}
}

// Publish queues a session event for delivery. It never blocks; events are
// dropped when the queue is full.
func (h *Hub) Publish(event service.GameEvent) {
	msg := &Message{
		SessionID: strings.ToLower(event.SessionID),
		Event:     event.Type,
		Data:      event,
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Warn().Str("session", msg.SessionID).Str("event", event.Type).Msg("websocket queue full, dropping event")
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: strings.ToLower(sessionID),
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	log.Debug().Str("session", client.sessionID).Int("clients", len(h.sessions[client.sessionID])).Msg("client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.sessions[client.sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty sessions
			if len(clients) == 0 {
				delete(h.sessions, client.sessionID)
			}

			log.Debug().Str("session", client.sessionID).Int("clients", len(clients)).Msg("client unregistered")
		}
	}
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.sessions[message.SessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.unregisterClient(client)
		}
	}
	if message.Event == service.EventSessionDeleted {
		for client := range h.sessions[message.SessionID] {
			h.unregisterClient(client)
		}
	}
}

// sendDirect delivers a reply if its client is still registered
func (h *Hub) sendDirect(r *reply) {
	if !h.sessions[r.client.sessionID][r.client] {
		return
	}
	select {
	case r.client.send <- r.data:
	default:
		h.unregisterClient(r.client)
	}
}

// Dispatch runs a client action against the controller and returns the
// operation result
func (h *Hub) Dispatch(ctx context.Context, sessionID string, a Action) (interface{}, error) {
	if h.controller == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, a.Action)
	}
	c := h.controller

	switch strings.ToLower(a.Action) {
	case "move":
		return c.PuzzleMove(ctx, sessionID, a.Index)
	case "swipe":
		return c.PuzzleSwipe(ctx, sessionID, a.Direction)
	case "skip":
		return c.PuzzleSkip(ctx, sessionID)
	case "next_round":
		return c.PuzzleNextRound(ctx, sessionID)
	case "pointer_down":
		return c.CubePointerDown(ctx, sessionID)
	case "drag":
		return c.CubeDrag(ctx, sessionID, a.DX, a.DY)
	case "pointer_up":
		return c.CubePointerUp(ctx, sessionID)
	case "snap":
		return c.CubeSnap(ctx, sessionID, a.Face)
	case "release":
		return c.CubeRelease(ctx, sessionID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, a.Action)
	}
}

// handle builds the message sent back to the client that issued an action
func (c *Client) handle(raw []byte) []byte {
	msg := &Message{SessionID: c.sessionID}

	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		msg.Event = "error"
		msg.Data = map[string]string{"error": "invalid message"}
	} else if result, err := c.hub.Dispatch(context.Background(), c.sessionID, a); err != nil {
		msg.Event = "error"
		msg.Data = map[string]string{"action": a.Action, "error": err.Error()}
	} else {
		msg.Event = "result"
		msg.Data = result
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal reply")
		return nil
	}
	return data
}

// readPump pumps actions from the WebSocket connection to the controller
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", c.sessionID).Msg("websocket error")
			}
			break
		}

		data := c.handle(raw)
		if data == nil {
			continue
		}
		// the hub owns close(c.send), so replies go through it
		c.hub.direct <- &reply{client: c, data: data}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
