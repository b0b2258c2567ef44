// Package client fetches the folder list and consumes the record stream.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/logger"
	"github.com/Ning0612/Filegraph/internal/protocol"
)

// Handler receives stream events in arrival order, one at a time.
// Returning domain.ErrSessionClosed stops the stream without reporting an error.
type Handler interface {
	Connected(root string) error
	Record(rec domain.FileRecord) error
	// Malformed reports a message that decoded to neither a record nor an error frame
	Malformed(err error) error
	ProtocolError(message string) error
	TransportError(err error) error
	Closed(clean bool) error
}

// Client talks to one scanner server
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
	log    logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the dial and HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
			c.dialer.HandshakeTimeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a client for serverURL (http or https)
func New(serverURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", serverURL)
	}

	dialer := *websocket.DefaultDialer
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 10 * time.Second},
		dialer: &dialer,
		log:    logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "client", "server", u.Host)
	return c, nil
}

// Folders fetches the folder list in server order
func (c *Client) Folders(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/folders", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var frame protocol.ErrorFrame
		_ = json.NewDecoder(resp.Body).Decode(&frame)
		return nil, fmt.Errorf("%w: GET /folders: %s %s", domain.ErrProtocol, resp.Status, frame.Error)
	}

	var body protocol.FoldersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode folders: %v", domain.ErrProtocol, err)
	}
	return body.Folders, nil
}

// streamURL maps http(s)://host/prefix to ws(s)://host/prefix/ws
func (c *Client) streamURL() string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String()
}

// Stream opens the record stream for root and feeds h until the server closes,
// the connection fails, ctx is cancelled or h returns domain.ErrSessionClosed.
// Cancelling ctx is the way to abandon a stream on root change; it is not reported to h.
func (c *Client) Stream(ctx context.Context, root string, watch bool, h Handler) error {
	log := c.log.With("root", root)

	conn, _, err := c.dialer.DialContext(ctx, c.streamURL(), nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fmt.Errorf("%w: dial: %v", domain.ErrTransport, err)
		log.Warn("stream dial failed", "error", err)
		return stop(h.TransportError(err), err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	if err := h.Connected(root); err != nil {
		return stop(err, nil)
	}
	if err := conn.WriteJSON(protocol.NewStart(root, watch)); err != nil {
		err = fmt.Errorf("%w: send start: %v", domain.ErrTransport, err)
		return c.lost(ctx, h, err)
	}
	log.Debug("stream started", "watch", watch)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			// 1006 is synthesized locally when the connection drops without a close frame
			if errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure && ctx.Err() == nil {
				clean := protocol.CleanClose(err)
				log.Info("stream closed", "code", ce.Code, "clean", clean)
				return stop(h.Closed(clean), nil)
			}
			return c.lost(ctx, h, fmt.Errorf("%w: read: %v", domain.ErrTransport, err))
		}

		frame, err := protocol.DecodeFrame(data)
		switch {
		case err != nil:
			err = h.Malformed(err)
		case frame.IsError():
			err = h.ProtocolError(frame.Error)
		default:
			err = h.Record(*frame.Record)
		}
		if err != nil {
			return stop(err, nil)
		}
	}
}

// lost reports a broken connection unless the caller abandoned the stream
func (c *Client) lost(ctx context.Context, h Handler, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.log.Warn("stream lost", "error", err)
	if herr := h.TransportError(err); herr != nil {
		return stop(herr, err)
	}
	return stop(h.Closed(false), err)
}

// stop maps a handler error: ErrSessionClosed ends quietly, anything else wins over fallback
func stop(handlerErr, fallback error) error {
	if errors.Is(handlerErr, domain.ErrSessionClosed) {
		return nil
	}
	if handlerErr != nil {
		return handlerErr
	}
	return fallback
}
