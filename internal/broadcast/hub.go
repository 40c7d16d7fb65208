// Package broadcast fans events out to subscribers over named topics.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"solana-token-radar/internal/observability"
)

// Topic names one event stream.
type Topic string

const (
	TopicTokenUpdates Topic = "token-updates"
	TopicAlerts       Topic = "alerts"
	TopicAnalytics    Topic = "analytics"
)

// Event is one message delivered to subscribers.
type Event struct {
	Topic   Topic     `json:"topic"`
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Handler consumes one event. Returning an error removes the subscriber.
type Handler func(Event) error

// StateFunc builds the synthetic snapshot a new subscriber receives first.
type StateFunc func() any

type subscriber struct {
	id      string
	topic   Topic
	handler Handler
	events  chan Event
	limiter *rate.Limiter
	cancel  context.CancelFunc
}

// SubscribeOption tunes one subscription.
type SubscribeOption func(*subscriber)

// WithBuffer sets the subscriber's channel capacity.
func WithBuffer(n int) SubscribeOption {
	return func(s *subscriber) {
		if n > 0 {
			s.events = make(chan Event, n)
		}
	}
}

// WithRateLimit paces delivery to the subscriber. Events beyond the rate
// queue in the buffer; a full buffer drops the subscriber as usual.
func WithRateLimit(limit rate.Limit, burst int) SubscribeOption {
	return func(s *subscriber) {
		s.limiter = rate.NewLimiter(limit, burst)
	}
}

// Hub routes published events to topic subscribers. Every subscriber gets
// its own pump goroutine, so one slow or failing consumer never blocks the
// publisher or its peers.
type Hub struct {
	mu    sync.RWMutex
	subs  map[Topic]map[string]*subscriber
	state map[Topic]StateFunc
	log   zerolog.Logger

	closed bool
	wg     sync.WaitGroup
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs:  make(map[Topic]map[string]*subscriber),
		state: make(map[Topic]StateFunc),
		log:   log.With().Str("component", "broadcast").Logger(),
	}
}

// RegisterState sets the snapshot builder new subscribers of a topic
// receive before any live event.
func (h *Hub) RegisterState(topic Topic, fn StateFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state[topic] = fn
}

// Subscribe attaches a handler to a topic and returns the subscription id.
func (h *Hub) Subscribe(topic Topic, handler Handler, opts ...SubscribeOption) string {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscriber{
		id:      uuid.NewString(),
		topic:   topic,
		handler: handler,
		events:  make(chan Event, 64),
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(sub)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return sub.id
	}
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[string]*subscriber)
	}
	h.subs[topic][sub.id] = sub
	observability.SetSubscribers(string(topic), len(h.subs[topic]))
	stateFn := h.state[topic]
	h.mu.Unlock()

	if stateFn != nil {
		sub.events <- Event{Topic: topic, Type: "snapshot", Payload: stateFn(), At: time.Now().UTC()}
	}

	h.wg.Add(1)
	go h.pump(ctx, sub)

	h.log.Debug().Str("topic", string(topic)).Str("subscriber", sub.id).Msg("subscribed")
	return sub.id
}

// Unsubscribe detaches a subscription from its topic.
func (h *Hub) Unsubscribe(topic Topic, id string) {
	h.mu.Lock()
	sub := h.subs[topic][id]
	delete(h.subs[topic], id)
	observability.SetSubscribers(string(topic), len(h.subs[topic]))
	h.mu.Unlock()
	if sub != nil {
		sub.cancel()
	}
}

// Publish delivers an event to every subscriber of the topic. A subscriber
// whose buffer is full is dropped; the rest are unaffected.
func (h *Hub) Publish(topic Topic, eventType string, payload any) {
	event := Event{Topic: topic, Type: eventType, Payload: payload, At: time.Now().UTC()}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs[topic]))
	for _, sub := range h.subs[topic] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.events <- event:
			observability.RecordBroadcast(string(topic))
		default:
			observability.RecordBroadcastDrop(string(topic))
			h.log.Warn().Str("topic", string(topic)).Str("subscriber", sub.id).Msg("buffer full, dropping subscriber")
			h.Unsubscribe(topic, sub.id)
		}
	}
}

// pump delivers buffered events to one subscriber until it is removed.
func (h *Hub) pump(ctx context.Context, sub *subscriber) {
	defer h.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-sub.events:
			if sub.limiter != nil {
				if err := sub.limiter.Wait(ctx); err != nil {
					return
				}
			}
			if err := sub.handler(event); err != nil {
				h.log.Warn().Err(err).Str("topic", string(sub.topic)).Str("subscriber", sub.id).Msg("handler failed, removing subscriber")
				h.Unsubscribe(sub.topic, sub.id)
				return
			}
		}
	}
}

// SubscriberCount reports how many subscribers a topic has.
func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Close removes every subscriber and waits for the pumps to end.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for topic, subs := range h.subs {
		for id, sub := range subs {
			sub.cancel()
			delete(subs, id)
		}
		delete(h.subs, topic)
		observability.SetSubscribers(string(topic), 0)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
