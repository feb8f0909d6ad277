package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// client serializa as escritas: o gorilla/websocket aceita um único escritor por conexão
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msgType int, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(msgType, b)
}

// Hub gerencia conexões WebSocket e assinaturas por data de sorteio
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// drawDate -> conexões inscritas
	subs map[string]map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão: subscribe/unsubscribe por data e ping
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.DrawDate == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.DrawDate]; !ok {
				h.subs[msg.DrawDate] = make(map[*client]struct{})
			}
			h.subs[msg.DrawDate][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.remove(msg.DrawDate, c)
		case "ping":
			_ = c.write(websocket.TextMessage, []byte(`{"type":"pong"}`))
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for date, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, date)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(date string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[date]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, date)
		}
	}
}

// Subscribers devolve quantas conexões acompanham a data
func (h *Hub) Subscribers(drawDate string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[drawDate])
}

// Broadcast envia a atualização a todos os inscritos na data do sorteio
func (h *Hub) Broadcast(update ResultUpdate) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[update.DrawDate]))
	for c := range h.subs[update.DrawDate] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(update)
	if err != nil {
		return
	}
	for _, c := range targets {
		_ = c.write(websocket.TextMessage, b)
	}
}
