package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func TestBridge_ForwardsLocalBridgedKinds(t *testing.T) {
	hub := NewHub(nil)
	pub := &recordingPublisher{}
	bridge := &Bridge{hub: hub, pub: pub}

	bridge.forward(Envelope{Origin: hub.Origin(), Message: Logout{}})
	bridge.forward(Envelope{Origin: hub.Origin(), Message: WordCreated{WordID: 1}})

	// requests stay local, remote traffic is not echoed
	bridge.forward(Envelope{Origin: hub.Origin(), Message: SelectionCaptured{Text: "x"}})
	bridge.forward(Envelope{Origin: "other-host", Message: Logout{}})

	assert.Equal(t, []string{"afewwords.bus.logout", "afewwords.bus.word_created"}, pub.published())
}

func TestBridge_ReceivesRemoteTraffic(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	panel, err := hub.Attach(ctx, ContextPanel)
	require.NoError(t, err)

	bridge := &Bridge{hub: hub, pub: &recordingPublisher{}}

	remote, err := Encode(Envelope{ID: "m1", Origin: "other-host", Message: WordCreated{WordID: 9}})
	require.NoError(t, err)
	bridge.receive(remote)

	select {
	case env := <-panel.Messages():
		assert.Equal(t, WordCreated{WordID: 9}, env.Message)
		assert.Equal(t, "other-host", env.Origin)
	case <-time.After(time.Second):
		t.Fatal("remote message not delivered")
	}
}

func TestBridge_IgnoresOwnEcho(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	panel, err := hub.Attach(ctx, ContextPanel)
	require.NoError(t, err)

	bridge := &Bridge{hub: hub, pub: &recordingPublisher{}}

	echo, err := Encode(Envelope{ID: "m1", Origin: hub.Origin(), Message: WordCreated{WordID: 9}})
	require.NoError(t, err)
	bridge.receive(echo)
	bridge.receive([]byte("garbage"))

	select {
	case env := <-panel.Messages():
		t.Fatalf("echo delivered: %v", env.Message)
	case <-time.After(50 * time.Millisecond):
	}
}
