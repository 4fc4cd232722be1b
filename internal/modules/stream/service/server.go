package service

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"trade_engine/pkg/logger"
)

const (
	EventJoin         = "join"
	EventLeave        = "leave"
	EventJoined       = "joined"
	EventLeft         = "left"
	EventError        = "error"
	EventTradeTaken   = "trade-taken"
	EventTradeUpdated = "trade-updated"

	RoomTrades = "trades"

	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingEvery    = 30 * time.Second
)

// Message is the envelope in both directions.
type Message struct {
	Event  string `json:"event"`
	UserID string `json:"userId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server keeps websocket clients and the members of the trades room.
type Server struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	userID string
	joined bool
}

func NewServer() *Server {
	return &Server{clients: make(map[*client]struct{})}
}

// Handler upgrades the request and serves the client until it disconnects.
func (s *Server) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[WS] upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	done := make(chan struct{})
	go s.writeLoop(c, done)
	s.readLoop(c)

	close(done)
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) readLoop(c *client) {
	for {
		var msg Message
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			s.reply(c, Message{Event: EventError, Data: "invalid message"})
			continue
		}

		switch msg.Event {
		case EventJoin:
			if msg.UserID == "" {
				s.reply(c, Message{Event: EventError, Data: "userId required"})
				continue
			}
			c.mu.Lock()
			c.userID, c.joined = msg.UserID, true
			c.mu.Unlock()
			logger.Info("[WS] %s joined %s", msg.UserID, RoomTrades)
			s.reply(c, Message{Event: EventJoined})

		case EventLeave:
			c.mu.Lock()
			c.joined = false
			c.mu.Unlock()
			s.reply(c, Message{Event: EventLeft})

		default:
			s.reply(c, Message{Event: EventError, Data: "unknown event"})
		}
	}
}

func (s *Server) writeLoop(c *client, done <-chan struct{}) {
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				logger.Error("[WS] write error: %v", err)
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) reply(c *client, m Message) {
	b, err := sonic.Marshal(m)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// Broadcast sends an event to every client in the trades room and returns
// how many were reached. Slow clients lose the message.
func (s *Server) Broadcast(event string, data any) int {
	b, err := sonic.Marshal(Message{Event: event, Data: data})
	if err != nil {
		logger.Error("[WS] marshal %s: %v", event, err)
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for c := range s.clients {
		c.mu.Lock()
		joined := c.joined
		c.mu.Unlock()
		if !joined {
			continue
		}
		select {
		case c.send <- b:
			n++
		default:
		}
	}
	return n
}

// Members is the number of clients in the trades room.
func (s *Server) Members() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for c := range s.clients {
		c.mu.Lock()
		if c.joined {
			n++
		}
		c.mu.Unlock()
	}
	return n
}
