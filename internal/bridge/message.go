// Package bridge carries PING and ANALYSE requests between the controller
// and the page-side agent. At most one request is in flight per client and
// every wait is bounded.
package bridge

import (
	"context"

	"github.com/dzmitry-papkou/engagement/internal/models"
)

type Kind string

const (
	KindPing    Kind = "PING"
	KindAnalyse Kind = "ANALYSE"
)

type Request struct {
	ID       string   `json:"id"`
	Type     Kind     `json:"type"`
	Keywords []string `json:"keywords,omitempty"`
}

type Response struct {
	ID    string                 `json:"id,omitempty"`
	OK    bool                   `json:"ok"`
	Data  *models.AnalysisResult `json:"data,omitempty"`
	Error string                 `json:"error,omitempty"`
}

func PingRequest() Request {
	return Request{Type: KindPing}
}

func AnalyseRequest(keywords []string) Request {
	if keywords == nil {
		keywords = []string{}
	}
	return Request{Type: KindAnalyse, Keywords: keywords}
}

// Handler answers requests on the page side.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Transport moves one request to a handler and its response back.
type Transport interface {
	RoundTrip(ctx context.Context, req Request) (Response, error)
}
