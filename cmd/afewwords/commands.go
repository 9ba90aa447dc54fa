package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/background"
	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/config"
	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/metrics"
	"codeberg.org/afewwords/companion/internal/panel"
	"codeberg.org/afewwords/companion/internal/relay"
	"codeberg.org/afewwords/companion/internal/selection"
	"codeberg.org/afewwords/companion/internal/session"
	"codeberg.org/afewwords/companion/internal/tokens"
	"codeberg.org/afewwords/companion/internal/words"
	"github.com/charmbracelet/x/term"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	loginTimeout = 5 * time.Minute

	// the relay answers a rejected frame with an error frame within this window
	rejectionWait = 300 * time.Millisecond
)

// runs the hub, the relay and the background context until ctx is done
func runBackground(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	svc, err := newServices(ctx, cfg, recorder)
	if err != nil {
		return err
	}
	defer svc.Close()

	hub := bus.NewHub(recorder)
	go hub.Run(ctx)

	if cfg.NATSURL != "" {
		bridge, err := bus.ConnectBridge(cfg.NATSURL, hub)
		if err != nil {
			return err
		}
		defer bridge.Close()

		if err := bridge.Start(); err != nil {
			return err
		}
	}

	server, err := relay.NewServer(hub, relay.Options{
		WebsiteOrigin: cfg.WebsiteOrigin,
		Gatherer:      registry,
	})
	if err != nil {
		return err
	}

	bg := background.New(hub, svc.store, svc.client, svc.auth, background.BrowserOpener{}, background.Options{
		Policy:          api.ParseFailurePolicy(cfg.FailurePolicy),
		RefreshInterval: cfg.RefreshInterval,
	})

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	// either one failing stops the other
	run := func(fn func(context.Context) error) {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			errOnce.Do(func() { firstErr = err })
		}
		cancel()
	}

	wg.Add(2)
	go run(func(ctx context.Context) error { return server.ListenAndServe(ctx, cfg.RelayAddr) })
	go run(bg.Run)
	wg.Wait()

	return firstErr
}

// runs the terminal panel connected to the background relay
func runPanel(ctx context.Context, cfg *config.Config, flags config.Flags) error {
	if !term.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("the panel needs an interactive terminal")
	}

	logFile, err := os.OpenFile(flags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close() //nolint:errcheck

	// log lines would tear the terminal UI
	logger.Configure(cfg.Environment, logFile)

	svc, err := newServices(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	go func() {
		if err := svc.store.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorErr(err, "token watch stopped")
		}
	}()

	var (
		publisher session.Publisher
		incoming  <-chan bus.Envelope
	)

	client, err := relay.Dial(ctx, cfg.RelayURL(string(bus.ContextPanel)))
	if err != nil {
		logger.Warn("background not reachable, running detached", "error", err)
	} else {
		defer client.Close() //nolint:errcheck
		publisher = client
		incoming = client.Messages()
	}

	wordStore := words.NewStore(svc.client)

	return panel.Run(ctx, panel.Options{
		Store:           svc.store,
		Session:         session.New(svc.store, svc.client, wordStore, publisher),
		Publisher:       publisher,
		Incoming:        incoming,
		Policy:          api.ParseFailurePolicy(cfg.FailurePolicy),
		WebsiteLoginURL: cfg.WebsiteLoginURL,
		PrivacyURL:      cfg.PrivacyURL,
		TermsURL:        cfg.TermsURL,
	})
}

// captures a selection on a page and hands it to the background
func runSave(ctx context.Context, cfg *config.Config, flags config.Flags) error {
	result := captureSelection(ctx, flags.URL, flags.Text)

	if result.Text == "" {
		logger.Info("empty selection, nothing to save")
		return nil
	}

	client, err := relay.Dial(ctx, cfg.RelayURL(string(bus.ContextContent)))
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	if err := client.Send(bus.SelectionCaptured{
		Text:         result.Text,
		HighlightURL: result.HighlightURL,
		Translate:    flags.Translate,
	}); err != nil {
		return err
	}

	select {
	case resp := <-client.Errors():
		return fmt.Errorf("relay rejected selection: %s: %s", resp.Error, resp.Message)
	case <-time.After(rejectionWait):
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.Info("selection sent", "text", result.Text)
	return nil
}

// locates text on the page for a highlight link; falls back to the
// bare page URL when the page cannot be read or the text is not on it
func captureSelection(ctx context.Context, pageURL, text string) selection.Result {
	fallback := selection.Result{Text: strings.TrimSpace(text)}
	if fallback.Text != "" {
		fallback.HighlightURL = pageURL
	}

	doc, err := selection.FetchPage(ctx, pageURL)
	if err != nil {
		logger.Warn("failed to read page, saving without highlight", "error", err)
		return fallback
	}

	r, err := selection.Locate(doc, text)
	if err != nil {
		logger.Warn("selection not found on page, saving without highlight", "error", err)
		return fallback
	}

	result, err := selection.Capture(r, pageURL)
	if err != nil {
		logger.Warn("failed to capture selection", "error", err)
		return fallback
	}

	return result
}

// signs in through the browser and stores the tokens for every context
func runLogin(ctx context.Context, cfg *config.Config) error {
	svc, err := newServices(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	if err := svc.auth.StartInteractiveLogin(ctx); err != nil {
		return err
	}

	name := tokens.DisplayName(svc.store.Snapshot().IDToken)
	if name == "" {
		name = "your account"
	}

	fmt.Printf("Signed in as %s.\n", name)
	return nil
}

// clears the session here and tells every other context
func runLogout(ctx context.Context, cfg *config.Config) error {
	svc, err := newServices(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	var publisher session.Publisher

	client, err := relay.Dial(ctx, cfg.RelayURL(string(bus.ContextContent)))
	if err != nil {
		logger.Warn("background not reachable, signing out locally", "error", err)
	} else {
		defer client.Close() //nolint:errcheck
		publisher = client
	}

	if err := session.New(svc.store, svc.client, nil, publisher).Logout(ctx); err != nil {
		return err
	}

	fmt.Println("Signed out.")
	return nil
}
