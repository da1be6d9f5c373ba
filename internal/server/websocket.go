package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"signage-player/internal/player"

	"github.com/gorilla/websocket"
)

// wsClient serialises writes to one connection; gorilla allows a single
// concurrent writer.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]*wsClient
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*websocket.Conn]*wsClient),
	}
}

// Add registers conn for token and sends first before any broadcast can
// reach the connection.
func (h *wsHub) Add(token string, conn *websocket.Conn, first any) {
	client := &wsClient{conn: conn}
	client.mu.Lock()
	defer client.mu.Unlock()

	h.mu.Lock()
	group := h.groups[token]
	if group == nil {
		group = make(map[*websocket.Conn]*wsClient)
		h.groups[token] = group
	}
	group[conn] = client
	h.mu.Unlock()

	data, err := json.Marshal(first)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("ws send failed token=%s error=%v", token, err)
	}
}

func (h *wsHub) Remove(token string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[token]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, token)
	}
}

// Count returns the number of kiosks connected for token.
func (h *wsHub) Count(token string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[token])
}

func (h *wsHub) Broadcast(token string, payload any) {
	h.mu.Lock()
	group := h.groups[token]
	clients := make([]*wsClient, 0, len(group))
	for _, client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(token, client.conn)
		}
	}
}

func (s *Server) handleDisplayWebsocket(w http.ResponseWriter, r *http.Request) {
	token, ok := parseDisplayWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, err := s.manager.GetOrStart(token)
	if errors.Is(err, player.ErrUnknownToken) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected token=%s remote=%s", token, r.RemoteAddr)
	s.ws.Add(token, conn, s.htmlMessage(session.View()))
	go s.readWS(token, conn)
}

func (s *Server) readWS(token string, conn *websocket.Conn) {
	defer s.ws.Remove(token, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected token=%s error=%v", token, err)
			return
		}
	}
}
