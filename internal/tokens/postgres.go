package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// implements Persister and Watcher on a Postgres key/value table.
// writes NOTIFY the key; watchers LISTEN and reload.
type PostgresPersister struct {
	db  *pgxpool.Pool
	key string
}

// creates a new Postgres-backed persister and ensures its table exists
func NewPostgresPersister(ctx context.Context, db *pgxpool.Pool) (*PostgresPersister, error) {
	if _, err := db.Exec(ctx, queryCreateStorageTable); err != nil {
		return nil, fmt.Errorf("failed to create storage table: %w", err)
	}

	return &PostgresPersister{db: db, key: StorageKey}, nil
}

// returns the stored state
func (p *PostgresPersister) Load(ctx context.Context) ([]byte, error) {
	var data []byte

	err := p.db.QueryRow(ctx, queryLoadValue, p.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("postgres load failed: %w", err)
	}

	return data, nil
}

// upserts the state and notifies listeners in one transaction
func (p *PostgresPersister) Save(ctx context.Context, data []byte) error {
	return p.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queryUpsertValue, p.key, data); err != nil {
			return fmt.Errorf("postgres save failed: %w", err)
		}

		return nil
	})
}

// removes the state and notifies listeners in one transaction
func (p *PostgresPersister) Delete(ctx context.Context) error {
	return p.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queryDeleteValue, p.key); err != nil {
			return fmt.Errorf("postgres delete failed: %w", err)
		}

		return nil
	})
}

// listens for changes to the key until ctx is done
func (p *PostgresPersister) Watch(ctx context.Context, onChange func(data []byte)) error {
	conn, err := p.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, queryListenChanges); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed waiting for notification: %w", err)
		}

		if notification.Payload != p.key {
			continue
		}

		data, err := p.Load(ctx)
		if err != nil {
			continue
		}

		onChange(data)
	}
}

// notifications are delivered on commit, so watchers never see uncommitted state
func (p *PostgresPersister) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, queryNotifyChange, p.key); err != nil {
		return fmt.Errorf("failed to notify change: %w", err)
	}

	return tx.Commit(ctx)
}
