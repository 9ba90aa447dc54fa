package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/errors"
	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// creates the relay and registers its routes
func NewServer(hub *bus.Hub, options Options) (*Server, error) {
	if options.RequestRate == "" {
		options.RequestRate = defaultRequestRate
	}

	requestRate, err := limiter.NewRateFromFormatted(options.RequestRate)
	if err != nil {
		return nil, fmt.Errorf("invalid request rate %q: %w", options.RequestRate, err)
	}

	s := &Server{
		hub:     hub,
		options: options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     CheckOrigin(options.WebsiteOrigin),
		},
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	if options.WebsiteOrigin != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins: []string{options.WebsiteOrigin},
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.GET("/health", s.health)

	if options.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(options.Gatherer)))
	}

	v1 := router.Group("/api/v1")
	v1.Use(mgin.NewMiddleware(
		limiter.New(memory.NewStore(), requestRate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			errors.TooManyRequests(c, "")
		}),
	))
	{
		v1.GET("/ws", s.websocketHandler)
	}

	s.router = router
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("relay failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}

	return nil
}

func (s *Server) health(c *gin.Context) {
	endpoints := make(map[string]int)
	for _, ctx := range []bus.Context{bus.ContextBackground, bus.ContextPanel, bus.ContextContent, bus.ContextWebsite} {
		endpoints[string(ctx)] = s.hub.Count(ctx)
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "afewwords-relay",
		Endpoints: endpoints,
	})
}
