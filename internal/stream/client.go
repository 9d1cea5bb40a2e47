package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AoWangg/chat-json/internal/config"
	chaterrors "github.com/AoWangg/chat-json/internal/errors"
	"github.com/AoWangg/chat-json/internal/logger"
)

// Client consumes a chat stream served over SSE.
type Client struct {
	http          *http.Client
	maxFrameBytes int
}

func NewClient(cfg *config.StreamConfig) (*Client, error) {
	connectTimeout, err := config.DurationOrDefault(cfg.ConnectTimeout, config.DefaultStreamConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse stream connect timeout: %w", err)
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
		ResponseHeaderTimeout: connectTimeout,
	}
	return &Client{
		http:          &http.Client{Transport: transport},
		maxFrameBytes: cfg.MaxFrameBytes,
	}, nil
}

// Open connects to rawURL and returns a reader over its frames. delay, when
// positive, is passed to the server as the pacing between frames in ms. The
// caller must close the returned body.
func (c *Client) Open(ctx context.Context, rawURL string, delay time.Duration) (*Reader, io.Closer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, chaterrors.InvalidInputf("parse stream url %q: %v", rawURL, err)
	}
	if delay > 0 {
		q := u.Query()
		q.Set("delay", strconv.FormatInt(delay.Milliseconds(), 10))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, chaterrors.InvalidInputf("build stream request: %v", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: connect %s: %w", chaterrors.ErrTransient, u.Redacted(), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, nil, chaterrors.Transient(fmt.Sprintf("stream %s returned %s", u.Redacted(), resp.Status))
		}
		return nil, nil, chaterrors.InvalidInput(fmt.Sprintf("stream %s returned %s", u.Redacted(), resp.Status))
	}

	slog.Info("Stream connected", "component", "stream", "url", u.Redacted())
	return NewReader(resp.Body, c.maxFrameBytes), resp.Body, nil
}

// Stream opens rawURL and pumps it into h.
func (c *Client) Stream(ctx context.Context, rawURL string, delay time.Duration, h Handler) (Result, error) {
	r, body, err := c.Open(ctx, rawURL, delay)
	if err != nil {
		return Result{}, err
	}
	defer body.Close()

	return Pump(logger.WithStreamURL(ctx, rawURL), r, h)
}
