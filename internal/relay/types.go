package relay

import (
	"net/http"
	"sync"
	"time"

	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// per-connection message rate
	messagesPerSecond = 10
	messageBurst      = 20

	// per-IP HTTP request rate (ulule formatted)
	defaultRequestRate = "120-M"

	controlBuffer = 8
)

// relay settings
type Options struct {
	// origin of the website allowed to connect and post its login result
	WebsiteOrigin string

	// per-IP HTTP request rate, e.g. "120-M"
	RequestRate string

	// scraped at /metrics; nil disables the route
	Gatherer prometheus.Gatherer
}

// websocket edge in front of the bus
type Server struct {
	hub      *bus.Hub
	router   *gin.Engine
	upgrader websocket.Upgrader
	options  Options
}

// query parameters of the websocket endpoint
type ConnectParams struct {
	Context string `form:"context" binding:"required,oneof=panel website content"`
}

type HealthResponse struct {
	Status    string         `json:"status"`
	Service   string         `json:"service"`
	Endpoints map[string]int `json:"endpoints"`
}

// error sent over the socket instead of a bus message
type ErrorFrame struct {
	Type string `json:"type"`
	errors.ErrorResponse
}

// one accepted websocket
type connection struct {
	endpoint *bus.Endpoint
	conn     *websocket.Conn
	limiter  *rate.Limiter

	// frames written ahead of bus traffic (errors)
	control chan []byte

	closeOnce sync.Once
}

// client side of the relay used by the panel, the save command and tests
type Client struct {
	conn *websocket.Conn

	// serializes writes
	mu sync.Mutex

	messages chan bus.Envelope
	errs     chan errors.ErrorResponse
	done     chan struct{}

	closeOnce sync.Once
}

var _ http.Handler = (*Server)(nil)
