package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrTimeout = errors.New("request timed out")
	ErrBusy    = errors.New("a request is already in flight")
)

// Client sends one request at a time over a transport.
type Client struct {
	transport Transport
	inflight  chan struct{}
}

func NewClient(t Transport) *Client {
	return &Client{
		transport: t,
		inflight:  make(chan struct{}, 1),
	}
}

// Send assigns a request ID, waits at most timeout for the answer and checks
// that the answer belongs to the request.
func (c *Client) Send(ctx context.Context, req Request, timeout time.Duration) (*Response, error) {
	select {
	case c.inflight <- struct{}{}:
	default:
		return nil, ErrBusy
	}
	defer func() { <-c.inflight }()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.transport.RoundTrip(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", req.Type, req.ID, ErrTimeout)
		}
		return nil, fmt.Errorf("%s %s: %w", req.Type, req.ID, err)
	}
	if resp.ID != "" && resp.ID != req.ID {
		return nil, fmt.Errorf("%s %s: response for %s", req.Type, req.ID, resp.ID)
	}
	return &resp, nil
}

// Ping reports whether a live handler answered ok within timeout.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) bool {
	resp, err := c.Send(ctx, PingRequest(), timeout)
	if err != nil {
		log.Debug().Err(err).Msg("ping failed")
		return false
	}
	return resp.OK
}
