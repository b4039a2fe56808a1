package bridge

import (
	"context"
)

// LocalTransport delivers requests to an in-process handler. The handler
// runs on its own goroutine so a slow page never blocks past the caller's
// deadline; a late answer is discarded.
type LocalTransport struct {
	handler Handler
}

func NewLocalTransport(h Handler) *LocalTransport {
	return &LocalTransport{handler: h}
}

func (t *LocalTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	done := make(chan Response, 1)
	go func() {
		done <- t.handler.Handle(ctx, req)
	}()

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}
