package broadcast

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// GlobalChannel carries every published message to every subscriber.
	GlobalChannel = "ticket_updated"
	// ClinicChannel carries a message only to subscribers joined to the
	// publishing clinic's room.
	ClinicChannel = "clinic_update"
)

type Message struct {
	Channel  string      `json:"channel"`
	ClinicID int64       `json:"clinic_id"`
	Payload  interface{} `json:"payload"`
}

// Subscriber is one observer's view of the hub. Every subscriber receives
// the global stream; clinic rooms are joined explicitly and joining a new
// room does not leave previously joined ones.
type Subscriber struct {
	hub      *Hub
	messages chan Message
	closed   bool
}

// Messages returns the delivery channel. It is closed when the subscriber
// or the hub is closed.
func (s *Subscriber) Messages() <-chan Message {
	return s.messages
}

// Join adds the subscriber to a clinic room.
func (s *Subscriber) Join(clinicID int64) {
	s.hub.join(s, clinicID)
}

// Close removes the subscriber from the global stream and from every joined
// room, then closes its delivery channel.
func (s *Subscriber) Close() {
	s.hub.remove(s)
}

// Hub fans ticket-change messages out to subscribers. Delivery is
// at-most-once: a subscriber whose buffer is full misses the message, and
// there is no replay. Publishing never blocks on a slow subscriber.
type Hub struct {
	logger *logrus.Logger
	buffer int

	mu     sync.RWMutex
	global map[*Subscriber]struct{}
	rooms  map[int64]map[*Subscriber]struct{}
	closed bool
}

func NewHub(logger *logrus.Logger, subscriberBuffer int) *Hub {
	if subscriberBuffer <= 0 {
		subscriberBuffer = 16
	}

	return &Hub{
		logger: logger,
		buffer: subscriberBuffer,
		global: make(map[*Subscriber]struct{}),
		rooms:  make(map[int64]map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new observer on the global stream.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{
		hub:      h,
		messages: make(chan Message, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		s.closed = true
		close(s.messages)
		return s
	}

	h.global[s] = struct{}{}

	return s
}

// Publish delivers the payload to every global subscriber and, on the
// clinic channel, to every member of the clinic's room. Messages published
// by one call are delivered in call order; a subscriber that joins
// concurrently may or may not see this message.
func (h *Hub) Publish(clinicID int64, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	globalMessage := Message{Channel: GlobalChannel, ClinicID: clinicID, Payload: payload}
	for s := range h.global {
		h.deliver(s, globalMessage)
	}

	clinicMessage := Message{Channel: ClinicChannel, ClinicID: clinicID, Payload: payload}
	for s := range h.rooms[clinicID] {
		h.deliver(s, clinicMessage)
	}
}

func (h *Hub) deliver(s *Subscriber, m Message) {
	select {
	case s.messages <- m:
	default:
		h.logger.WithFields(logrus.Fields{
			"object":   "broadcast",
			"channel":  m.Channel,
			"clinicId": m.ClinicID,
		}).Debug("subscriber buffer is full, message dropped")
	}
}

// Close shuts the hub down and closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for s := range h.global {
		s.closed = true
		close(s.messages)
	}

	h.global = make(map[*Subscriber]struct{})
	h.rooms = make(map[int64]map[*Subscriber]struct{})
}

func (h *Hub) join(s *Subscriber, clinicID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || s.closed {
		return
	}

	room, ok := h.rooms[clinicID]
	if !ok {
		room = make(map[*Subscriber]struct{})
		h.rooms[clinicID] = room
	}

	room[s] = struct{}{}
}

func (h *Hub) remove(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	delete(h.global, s)
	for clinicID, room := range h.rooms {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, clinicID)
		}
	}

	close(s.messages)
}
