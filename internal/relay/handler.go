package relay

import (
	"context"
	"encoding/json"
	"time"

	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/errors"
	"codeberg.org/afewwords/companion/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// upgrades to a websocket and attaches it to the hub as params.Context
func (s *Server) websocketHandler(c *gin.Context) {
	var params ConnectParams
	if err := c.ShouldBindQuery(&params); err != nil {
		errors.BadRequest(c, "invalid parameters", err)
		return
	}

	if !s.upgrader.CheckOrigin(c.Request) {
		errors.Forbidden(c, "origin not allowed")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.ErrorErr(err, "failed to upgrade connection",
			"context", params.Context,
			"ip", c.ClientIP(),
		)
		return
	}

	attachCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	endpoint, err := s.hub.Attach(attachCtx, bus.Context(params.Context))
	if err != nil {
		logger.ErrorErr(err, "failed to attach endpoint", "context", params.Context)
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck,gosec // closing anyway
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "relay unavailable"),
			time.Now().Add(writeWait))
		conn.Close() //nolint:errcheck,gosec // closing anyway
		return
	}

	client := &connection{
		endpoint: endpoint,
		conn:     conn,
		limiter:  rate.NewLimiter(rate.Limit(messagesPerSecond), messageBurst),
		control:  make(chan []byte, controlBuffer),
	}

	logger.Info("relay connection opened",
		"endpoint_id", endpoint.ID,
		"context", endpoint.Context,
		"ip", c.ClientIP(),
	)

	go client.writePump()
	go client.readPump()
}

// reads frames, validates them and publishes them on the bus
func (c *connection) readPump() {
	defer func() {
		c.endpoint.Close()
		c.close()

		logger.Info("relay connection closed",
			"endpoint_id", c.endpoint.ID,
			"context", c.endpoint.Context,
		)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // pong handler
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket error",
					"endpoint_id", c.endpoint.ID,
					"error", err,
				)
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendError(errors.CodeTooManyRequests, "message rate exceeded", "")
			continue
		}

		env, err := bus.Decode(data)
		if err != nil {
			code := errors.CodeBadRequest
			if bus.IsUnknownKind(err) {
				code = errors.CodeUnsupportedKind
			}
			c.sendError(code, "message rejected", err.Error())
			continue
		}

		kind := env.Message.Kind()
		if !bus.Allowed(c.endpoint.Context, kind) {
			logger.Warn("message kind not allowed",
				"endpoint_id", c.endpoint.ID,
				"context", c.endpoint.Context,
				"kind", kind,
			)
			c.sendError(errors.CodeForbidden, "message kind not allowed", string(kind))
			continue
		}

		// sender identity comes from the connection, not from the frame
		c.endpoint.Publish(env.Message)
	}
}

// writes bus traffic and control frames; pings to keep the connection alive
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case env, ok := <-c.endpoint.Messages():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // websocket timing

			if !ok {
				// hub closed the endpoint
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck,gosec // close message
				return
			}

			data, err := bus.Encode(env)
			if err != nil {
				logger.ErrorErr(err, "failed to encode outbound message", "endpoint_id", c.endpoint.ID)
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case frame := <-c.control:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // websocket timing

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queues an error frame; dropped when the control buffer is full
func (c *connection) sendError(code, message, details string) {
	frame := ErrorFrame{
		Type: "error",
		ErrorResponse: errors.ErrorResponse{
			Error:   code,
			Message: message,
			Details: errors.Sanitize(details),
		},
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	select {
	case c.control <- data:
	default:
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		c.conn.Close() //nolint:errcheck,gosec // cleanup
	})
}
