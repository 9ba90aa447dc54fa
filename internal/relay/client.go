package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/errors"
	"codeberg.org/afewwords/companion/internal/logger"
	"github.com/gorilla/websocket"
)

const clientBuffer = 32

// connects to the relay websocket at endpoint (see config.RelayURL)
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}

	c := &Client{
		conn:     conn,
		messages: make(chan bus.Envelope, clientBuffer),
		errs:     make(chan errors.ErrorResponse, clientBuffer),
		done:     make(chan struct{}),
	}

	// set up ping/pong handlers to keep the connection alive
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // pong handler
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // websocket setup

	go c.readPump()
	go c.pingPump()

	return c, nil
}

// sends msg to the relay
func (c *Client) Send(msg bus.Message) error {
	data, err := bus.Encode(bus.Envelope{Message: msg})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return fmt.Errorf("relay connection closed")
	default:
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // websocket timing
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Kind(), err)
	}

	return nil
}

// sends msg and reports whether it was written; logs the failure
func (c *Client) Publish(msg bus.Message) bool {
	if err := c.Send(msg); err != nil {
		logger.Warn("failed to publish to relay", "kind", string(msg.Kind()), "error", err)
		return false
	}

	return true
}

// bus messages delivered to this client; closed when the connection ends
func (c *Client) Messages() <-chan bus.Envelope {
	return c.messages
}

// error frames sent by the relay
func (c *Client) Errors() <-chan errors.ErrorResponse {
	return c.errs
}

// closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// closes the connection
func (c *Client) Close() error {
	var err error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck,gosec // best effort close handshake
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.mu.Unlock()

		err = c.conn.Close()
	})

	return err
}

// reads frames and routes them to the messages or errors channel
func (c *Client) readPump() {
	defer func() {
		close(c.done)
		close(c.messages)
		c.conn.Close() //nolint:errcheck,gosec // cleanup
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // reset per frame

		var header struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &header); err != nil {
			logger.Warn("dropping malformed relay frame", "error", err)
			continue
		}

		if header.Type == "error" {
			var frame ErrorFrame
			if err := json.Unmarshal(data, &frame); err == nil {
				select {
				case c.errs <- frame.ErrorResponse:
				default:
				}
			}
			continue
		}

		env, err := bus.Decode(data)
		if err != nil {
			logger.Warn("dropping undecodable relay message", "error", err)
			continue
		}

		select {
		case c.messages <- env:
		default:
			logger.Warn("relay client buffer full, message dropped", "kind", env.Message.Kind())
		}
	}
}

// sends periodic pings to keep the connection alive
func (c *Client) pingPump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // websocket ping timing
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()

			if err != nil {
				return
			}
		}
	}
}
