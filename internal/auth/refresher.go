package auth

import (
	"context"
	"errors"
	"time"

	"codeberg.org/afewwords/companion/internal/logger"
)

// creates a refresher calling refresh every interval
func NewRefresher(refresh func(ctx context.Context) error, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	return &Refresher{
		refresh:  refresh,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// begins the background refresh loop
func (r *Refresher) Start() {
	r.wg.Add(1)
	go r.run()
	logger.Info("token refresher started", "interval", r.interval.String())
}

// stops the loop and waits for an in-flight refresh
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
	logger.Info("token refresher stopped")
}

func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval/2)
	defer cancel()

	// cancel the in-flight refresh on stop
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := r.refresh(ctx); err != nil {
		if errors.Is(err, ErrRefreshFailed) {
			logger.Warn("silent refresh failed, session logged out", "error", err)
			return
		}

		logger.ErrorErr(err, "silent refresh failed")
	}
}
