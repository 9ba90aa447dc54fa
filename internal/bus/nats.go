package bus

import (
	"fmt"

	"codeberg.org/afewwords/companion/internal/logger"
	"github.com/nats-io/nats.go"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// mirrors bridged kinds between hubs on different hosts over NATS
type Bridge struct {
	hub *Hub
	nc  *nats.Conn
	pub publisher
	sub *nats.Subscription
}

// connects to NATS at url and bridges hub
func ConnectBridge(url string, hub *Hub) (*Bridge, error) {
	nc, err := nats.Connect(url, nats.Name("afewwords-"+hub.Origin()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return NewBridge(nc, hub), nil
}

// creates a bridge on an existing connection
func NewBridge(nc *nats.Conn, hub *Hub) *Bridge {
	return &Bridge{
		hub: hub,
		nc:  nc,
		pub: nc,
	}
}

// returns the subject kind is published on
func Subject(kind Kind) string {
	return subjectPrefix + string(kind)
}

// starts forwarding local traffic and applying remote traffic
func (b *Bridge) Start() error {
	b.hub.Observe(b.forward)

	sub, err := b.nc.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		b.receive(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to bus subjects: %w", err)
	}

	b.sub = sub

	logger.Info("nats bridge started", "origin", b.hub.Origin())
	return nil
}

// unsubscribes and closes the connection
func (b *Bridge) Close() {
	if b.sub != nil {
		b.sub.Unsubscribe() //nolint:errcheck,gosec // closing anyway
	}

	if b.nc != nil {
		b.nc.Close()
	}
}

func (b *Bridge) forward(env Envelope) {
	kind := env.Message.Kind()

	// remote envelopes already went through NATS
	if env.Origin != b.hub.Origin() || !Bridged(kind) {
		return
	}

	data, err := Encode(env)
	if err != nil {
		logger.ErrorErr(err, "failed to encode bridged message", "kind", kind)
		return
	}

	if err := b.pub.Publish(Subject(kind), data); err != nil {
		logger.ErrorErr(err, "failed to publish bridged message", "kind", kind)
	}
}

func (b *Bridge) receive(data []byte) {
	env, err := Decode(data)
	if err != nil {
		logger.Warn("dropping undecodable bridged message", "error", err)
		return
	}

	// our own publish coming back
	if env.Origin == "" || env.Origin == b.hub.Origin() {
		return
	}

	if !Bridged(env.Message.Kind()) {
		return
	}

	env.Sender = ""
	b.hub.Publish(env)
}
