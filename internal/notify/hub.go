// Package notify fans newly committed messages out to live subscribers.
// The hub is transport-agnostic; the SSE and websocket handlers both
// consume the same subscriber channels.
package notify

import (
	"log/slog"
	"sync"

	"parlor/internal/models"
)

const subscriberBufferSize = 64

// Event is what a subscriber receives.
type Event struct {
	Type      string          `json:"type"`
	ChannelID string          `json:"channelId"`
	Message   *models.Message `json:"message,omitempty"`
}

// Subscriber is one live listener. Events arrive on C until the hub
// closes it, either on Unsubscribe, on shutdown, or when the subscriber
// falls too far behind.
type Subscriber struct {
	UserID string

	// channels the subscriber may see, snapshotted at subscribe time
	channels map[string]struct{}
	events   chan *Event
	once     sync.Once
}

func (s *Subscriber) C() <-chan *Event {
	return s.events
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.events) })
}

type registerRequest struct {
	sub  *Subscriber
	done chan struct{}
}

type Hub struct {
	subscribers map[*Subscriber]bool
	register    chan registerRequest
	unregister  chan *Subscriber
	broadcast   chan *Event
	shutdown    chan struct{}
	stopped     chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		register:    make(chan registerRequest),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan *Event, 256),
		shutdown:    make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.shutdown:
			for sub := range h.subscribers {
				sub.close()
				delete(h.subscribers, sub)
			}
			slog.Info("shutdown complete", "component", "hub")
			return

		case req := <-h.register:
			h.subscribers[req.sub] = true
			close(req.done)

		case sub := <-h.unregister:
			if h.subscribers[sub] {
				delete(h.subscribers, sub)
				sub.close()
			}

		case event := <-h.broadcast:
			for sub := range h.subscribers {
				if _, visible := sub.channels[event.ChannelID]; !visible {
					continue
				}
				select {
				case sub.events <- event:
				default:
					// A subscriber that cannot keep up is dropped so it
					// never stalls delivery to the others.
					delete(h.subscribers, sub)
					sub.close()
					slog.Warn("dropped slow subscriber", "component", "hub", "user_id", sub.UserID)
				}
			}
		}
	}
}

// Subscribe registers a listener for the given channels. The snapshot is
// taken by the caller; reconnecting refreshes it.
func (h *Hub) Subscribe(userID string, channelIDs []string) *Subscriber {
	channels := make(map[string]struct{}, len(channelIDs))
	for _, id := range channelIDs {
		channels[id] = struct{}{}
	}
	sub := &Subscriber{
		UserID:   userID,
		channels: channels,
		events:   make(chan *Event, subscriberBufferSize),
	}

	req := registerRequest{sub: sub, done: make(chan struct{})}
	select {
	case h.register <- req:
		<-req.done
	case <-h.stopped:
		sub.close()
	}
	return sub
}

// Unsubscribe is safe to call more than once and safe to race with an
// in-flight broadcast.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.stopped:
		sub.close()
	}
}

// MessageCreated implements service.Notifier. Called strictly after the
// message's transaction has committed.
func (h *Hub) MessageCreated(msg *models.Message) {
	event := &Event{Type: "message", ChannelID: msg.ChannelID, Message: msg}
	select {
	case h.broadcast <- event:
	case <-h.stopped:
	}
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.stopped
}
