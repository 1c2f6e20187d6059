// Package ws serves the reactive calculator: every Input a client sends is
// answered with a freshly computed Output on the same connection.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	exchanger "HeatX/internal/calc/exchanger"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the peer as gone.
	pongWait = 60 * time.Second

	// must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1 << 20
)

const (
	EventResult = "result"
	EventError  = "error"
)

type Message struct {
	Event string            `json:"event"`
	Data  *exchanger.Output `json:"data,omitempty"`
	Kind  string            `json:"kind,omitempty"`
	Error string            `json:"error,omitempty"`
}

type Handler struct {
	Calc     *exchanger.Handler
	upgrader websocket.Upgrader
}

func New(calc *exchanger.Handler) *Handler {
	return &Handler{
		Calc: calc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// CORS is applied by the router for plain HTTP; sockets accept any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response
		log.Debugf("ws: upgrade: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go ping(conn, done)

	log.WithField("remote", r.RemoteAddr).Debug("ws: client connected")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("remote", r.RemoteAddr).Warnf("ws: read: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := h.write(conn, h.handle(data)); err != nil {
			log.WithField("remote", r.RemoteAddr).Warnf("ws: write: %v", err)
			return
		}
	}
}

func (h *Handler) handle(data []byte) Message {
	var input exchanger.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return Message{Event: EventError, Kind: "invalid_payload", Error: "Invalid request payload"}
	}
	out, err := h.Calc.Run(input)
	if err != nil {
		return Message{Event: EventError, Kind: exchanger.KindName(err), Error: err.Error()}
	}
	return Message{Event: EventResult, Data: &out}
}

func (h *Handler) write(conn *websocket.Conn, msg Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

func ping(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
