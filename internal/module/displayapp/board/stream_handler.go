package board

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/pkg/broadcast"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// joinClinicMessage is the only inbound message a stream client may send:
// joining a clinic room. Joining a new room keeps previously joined ones.
type joinClinicMessage struct {
	Type     string `json:"type"`
	ClinicID int64  `json:"clinic_id"`
}

// StreamHandler upgrades display and staff-view connections to websockets
// and bridges them onto the broadcast hub. Every connection receives the
// global stream; clinic rooms are joined on request.
type StreamHandler struct {
	logger   *logrus.Logger
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
}

func NewStreamHandler(logger *logrus.Logger, hub *broadcast.Hub) *StreamHandler {
	return &StreamHandler{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error()
		return
	}

	subscriber := h.hub.Subscribe()

	go h.writePump(conn, subscriber)
	go h.readPump(conn, subscriber)
}

// readPump consumes join requests until the connection drops, then tears
// the subscriber down so it leaves every room.
func (h *StreamHandler) readPump(conn *websocket.Conn, subscriber *broadcast.Subscriber) {
	defer func() {
		subscriber.Close()
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg joinClinicMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		if msg.Type == "join_clinic" && msg.ClinicID > 0 {
			subscriber.Join(msg.ClinicID)
		}
	}
}

// writePump pushes hub messages to the peer. When the subscriber channel
// closes (hub shutdown or read side teardown) the connection is closed.
func (h *StreamHandler) writePump(conn *websocket.Conn, subscriber *broadcast.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-subscriber.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
