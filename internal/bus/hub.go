package bus

import (
	"context"

	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/metrics"
	"github.com/google/uuid"
)

// creates a new hub; recorder may be nil
func NewHub(recorder metrics.Recorder) *Hub {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &Hub{
		origin:     uuid.NewString(),
		endpoints:  make(map[Context]map[string]*Endpoint),
		register:   make(chan *Endpoint),
		unregister: make(chan *Endpoint),
		broadcast:  make(chan Envelope, hubQueueSize),
		recorder:   recorder,
		done:       make(chan struct{}),
	}
}

// id stamped on envelopes published through this hub
func (h *Hub) Origin() string {
	return h.origin
}

// routes messages until ctx is done, then closes every endpoint
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case endpoint := <-h.register:
			h.registerEndpoint(endpoint)

		case endpoint := <-h.unregister:
			h.unregisterEndpoint(endpoint)

		case env := <-h.broadcast:
			h.deliver(env)

		case <-ctx.Done():
			h.closeAllEndpoints()
			return
		}
	}
}

// adds an endpoint for context c; messages for c arrive on its channel
func (h *Hub) Attach(ctx context.Context, c Context) (*Endpoint, error) {
	return h.AttachWithID(ctx, c, uuid.NewString())
}

// like Attach with a caller-chosen endpoint id
func (h *Hub) AttachWithID(ctx context.Context, c Context, id string) (*Endpoint, error) {
	endpoint := &Endpoint{
		ID:      id,
		Context: c,
		hub:     h,
		send:    make(chan Envelope, defaultEndpointBuf),
	}

	select {
	case h.register <- endpoint:
		return endpoint, nil
	case <-h.done:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// removes an endpoint and closes its channel
func (h *Hub) Detach(endpoint *Endpoint) {
	select {
	case h.unregister <- endpoint:
	case <-h.done:
	}
}

// queues env for delivery; returns false when it was dropped.
// delivery is fire-and-forget and at most once.
func (h *Hub) Publish(env Envelope) bool {
	if env.Message == nil {
		return false
	}

	if env.ID == "" {
		env.ID = uuid.NewString()
	}

	if env.Origin == "" {
		env.Origin = h.origin
	}

	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.broadcast <- env:
		return true
	default:
		h.recorder.RecordDrop(string(env.Message.Kind()), "hub")
		logger.Warn("bus queue full, message dropped", "kind", env.Message.Kind())
		return false
	}
}

// registers fn to see every routed envelope; fn must not block
func (h *Hub) Observe(fn func(Envelope)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, fn)
}

// returns the number of endpoints attached for c
func (h *Hub) Count(c Context) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.endpoints[c])
}

// channel receiving messages for this endpoint; closed on detach
func (e *Endpoint) Messages() <-chan Envelope {
	return e.send
}

// publishes msg as coming from this endpoint
func (e *Endpoint) Publish(msg Message) bool {
	return e.hub.Publish(Envelope{
		From:    e.Context,
		Sender:  e.ID,
		Message: msg,
	})
}

// detaches the endpoint from its hub
func (e *Endpoint) Close() {
	e.hub.Detach(e)
}

func (h *Hub) registerEndpoint(endpoint *Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.endpoints[endpoint.Context] == nil {
		h.endpoints[endpoint.Context] = make(map[string]*Endpoint)
	}

	h.endpoints[endpoint.Context][endpoint.ID] = endpoint

	logger.Debug("endpoint attached",
		"endpoint_id", endpoint.ID,
		"context", endpoint.Context,
	)
}

func (h *Hub) unregisterEndpoint(endpoint *Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	endpoints, ok := h.endpoints[endpoint.Context]
	if !ok {
		return
	}

	if _, ok := endpoints[endpoint.ID]; !ok {
		return
	}

	delete(endpoints, endpoint.ID)
	close(endpoint.send)

	logger.Debug("endpoint detached",
		"endpoint_id", endpoint.ID,
		"context", endpoint.Context,
	)
}

// non-blocking send to every endpoint of every destination context
func (h *Hub) deliver(env Envelope) {
	kind := env.Message.Kind()

	h.mu.RLock()
	observers := append(([]func(Envelope))(nil), h.observers...)

	for _, destination := range Destinations(kind) {
		endpoints := h.endpoints[destination]

		if len(endpoints) == 0 {
			h.recorder.RecordDrop(string(kind), string(destination))
			continue
		}

		for id, endpoint := range endpoints {
			if id == env.Sender {
				continue
			}

			select {
			case endpoint.send <- env:
				h.recorder.RecordDelivery(string(kind), string(destination))
			default:
				h.recorder.RecordDrop(string(kind), string(destination))
				logger.Warn("endpoint buffer full, message dropped",
					"endpoint_id", id,
					"context", destination,
					"kind", kind,
				)
			}
		}
	}

	h.mu.RUnlock()

	for _, fn := range observers {
		fn(env)
	}
}

func (h *Hub) closeAllEndpoints() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c, endpoints := range h.endpoints {
		for _, endpoint := range endpoints {
			close(endpoint.send)
		}
		delete(h.endpoints, c)
	}
}
