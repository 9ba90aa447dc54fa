package background

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/auth"
	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/session"
	"codeberg.org/afewwords/companion/internal/tokens"
	"github.com/google/uuid"
)

// creates the background context. a failed silent refresh logs the
// session out everywhere.
func New(hub *bus.Hub, store *tokens.Store, client *api.Client, controller *auth.Controller, opener auth.Opener, options Options) *Background {
	if options.RefreshInterval <= 0 {
		options.RefreshInterval = auth.DefaultRefreshInterval
	}

	if options.Policy == "" {
		options.Policy = api.PolicyLog
	}

	b := &Background{
		id:         uuid.NewString(),
		hub:        hub,
		store:      store,
		controller: controller,
		opener:     opener,
		options:    options,
		state:      bus.State{Context: bus.ContextBackground},
	}

	// the background keeps no word list of its own
	b.session = session.New(store, client, nil, b)

	controller.OnLogout(func(ctx context.Context) {
		if err := b.session.Logout(ctx); err != nil {
			logger.ErrorErr(err, "logout after failed refresh failed")
		}
	})

	return b
}

// publishes msg to the other contexts as the background
func (b *Background) Publish(msg bus.Message) bool {
	return b.hub.Publish(bus.Envelope{
		From:    bus.ContextBackground,
		Sender:  b.id,
		Message: msg,
	})
}

// handles bus messages until ctx is done. the refresher and the
// token watch live as long as Run.
func (b *Background) Run(ctx context.Context) error {
	if err := b.store.Wait(ctx); err != nil {
		return err
	}

	b.setSignedIn(b.store.Snapshot().SignedIn())

	unsubscribe := b.store.Subscribe(func(current tokens.TokenSet) {
		b.setSignedIn(current.SignedIn())
	})
	defer unsubscribe()

	endpoint, err := b.hub.AttachWithID(ctx, bus.ContextBackground, b.id)
	if err != nil {
		return fmt.Errorf("failed to attach background: %w", err)
	}
	defer endpoint.Close()

	refresher := auth.NewRefresher(b.controller.RefreshSilently, b.options.RefreshInterval)
	refresher.Start()
	defer refresher.Stop()

	go func() {
		if err := b.store.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorErr(err, "token watch stopped")
		}
	}()

	logger.Info("background started", "refresh_interval", b.options.RefreshInterval.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info("background stopped")
			return nil

		case env, ok := <-endpoint.Messages():
			if !ok {
				return nil
			}
			b.handle(ctx, env)
		}
	}
}

// reduces env and runs the resulting effects in order
func (b *Background) handle(ctx context.Context, env bus.Envelope) {
	b.mu.Lock()
	state, effects := bus.Reduce(b.state, env)
	b.state = state
	b.mu.Unlock()

	for _, effect := range effects {
		if err := b.apply(ctx, effect); err != nil {
			logger.ErrorErr(err, "failed to handle message",
				"kind", string(env.Message.Kind()),
				"from", string(env.From),
			)
		}
	}
}

func (b *Background) apply(ctx context.Context, effect bus.Effect) error {
	switch e := effect.(type) {
	case bus.SetTokens:
		return b.store.SetTokens(ctx, e.Tokens)

	case bus.ClearSession:
		return b.session.Clear(ctx)

	case bus.Open:
		return b.opener.Open(e.URL)

	case bus.OpenSignup:
		return b.opener.Open(b.controller.SignupURL())

	case bus.SaveSelection:
		_, err := b.Save(ctx, e)
		return b.options.Policy.Handle("save_word", err)

	default:
		return nil
	}
}

// stores a captured selection as a word, with its translation as the
// definition when asked, and announces it with word_created
func (b *Background) Save(ctx context.Context, selection bus.SaveSelection) (*api.WordEntry, error) {
	entry := api.WordEntry{
		Word: strings.TrimSpace(selection.Text),
		URL:  selection.HighlightURL,
	}

	if selection.Translate {
		definition, err := b.session.API.Translate(ctx, entry.Word)
		switch {
		case api.IsUnauthorized(err):
			return nil, err
		case err != nil:
			logger.Warn("translation failed, saving without definition", "error", err)
		default:
			entry.Definition = definition
		}
	}

	created, err := b.session.API.CreateWord(ctx, entry)
	if err != nil {
		return nil, err
	}

	b.Publish(bus.WordCreated{WordID: created.ID, Word: created.Word})
	logger.Info("word saved", "word_id", created.ID)

	return created, nil
}

func (b *Background) setSignedIn(signedIn bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.SignedIn = signedIn
}
