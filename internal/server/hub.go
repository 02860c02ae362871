package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one websocket connection joined to a topic.
type Client struct {
	Topic string
	Send  chan []byte
	Conn  *websocket.Conn
}

// BroadcastMessage is a message relayed to every client of a topic except
// its sender.
type BroadcastMessage struct {
	Topic string
	From  *Client
	Data  []byte
}

// Hub relays binary messages between the clients of each topic.
type Hub struct {
	Clients    map[string]map[*Client]bool // topic -> clients
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan BroadcastMessage
	mu         sync.RWMutex

	log  *zap.Logger
	done chan struct{}
}

// NewHub creates a hub. Call Run to start relaying.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		Clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan BroadcastMessage),
		log:        log,
		done:       make(chan struct{}),
	}
}

// Run relays messages until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Clients[client.Topic] == nil {
				h.Clients[client.Topic] = make(map[*Client]bool)
			}
			h.Clients[client.Topic][client] = true
			h.mu.Unlock()
			h.log.Debug("client joined", zap.String("topic", client.Topic))

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.Clients[msg.Topic] {
				if client == msg.From {
					continue
				}
				select {
				case client.Send <- msg.Data:
				default:
					h.log.Warn("dropping slow client", zap.String("topic", msg.Topic))
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops client and closes its send channel. Callers hold h.mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.Clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
	}
	if len(clients) == 0 {
		delete(h.Clients, client.Topic)
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.Clients {
		for client := range clients {
			h.remove(client)
		}
	}
}

// Count returns the number of clients joined to topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[topic])
}

// ServeWS upgrades the request and joins the connection to topic.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, sendBuffer),
		Conn:  conn,
	}
	select {
	case h.Register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	h.readPump(client)
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		select {
		case h.Unregister <- client:
		case <-h.done:
		}
		client.Conn.Close()
	}()
	client.Conn.SetReadLimit(maxMessageSize)
	for {
		typ, msg, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		select {
		case h.Broadcast <- BroadcastMessage{Topic: client.Topic, From: client, Data: msg}:
		case <-h.done:
			return
		}
	}
}

func (h *Hub) writePump(client *Client) {
	defer client.Conn.Close()
	for message := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
			return
		}
	}
	client.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
