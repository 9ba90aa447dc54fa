package tokens

import (
	"context"
	"sync"
)

// implements Persister and Watcher in memory; stores sharing one
// instance behave like contexts sharing browser storage
type MemoryPersister struct {
	mu       sync.RWMutex
	data     []byte
	watchers map[int]chan []byte
	nextID   int
}

// creates a new in-memory persister
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{
		watchers: make(map[int]chan []byte),
	}
}

// returns the stored data
func (p *MemoryPersister) Load(_ context.Context) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.data == nil {
		return nil, nil
	}

	return append([]byte(nil), p.data...), nil
}

// stores data and notifies watchers
func (p *MemoryPersister) Save(_ context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data = append([]byte(nil), data...)
	p.broadcast(p.data)
	return nil
}

// removes the data and notifies watchers
func (p *MemoryPersister) Delete(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data = nil
	p.broadcast(nil)
	return nil
}

// delivers changes until ctx is done
func (p *MemoryPersister) Watch(ctx context.Context, onChange func(data []byte)) error {
	ch := make(chan []byte, 16)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-ch:
			onChange(data)
		}
	}
}

// must be called with lock held
func (p *MemoryPersister) broadcast(data []byte) {
	for _, ch := range p.watchers {
		var copied []byte
		if data != nil {
			copied = append([]byte(nil), data...)
		}

		select {
		case ch <- copied:
		default:
			// slow watcher misses this change; the next one carries the full state
		}
	}
}
