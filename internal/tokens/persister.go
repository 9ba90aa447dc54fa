package tokens

import "context"

// durable storage for the serialized auth state under one key
type Persister interface {
	// returns nil data when nothing is stored
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// implemented by persisters that can observe writes from other processes
type Watcher interface {
	// blocks until ctx is done, calling onChange with the new data (nil when deleted)
	Watch(ctx context.Context, onChange func(data []byte)) error
}
