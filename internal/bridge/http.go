package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const messagePath = "/message"

// Server exposes a Handler over HTTP so that a controller in another
// process can drive it.
type Server struct {
	addr    string
	handler Handler
	router  *gin.Engine
	server  *http.Server
}

func NewServer(addr string, h Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if err := router.SetTrustedProxies(nil); err != nil {
		log.Err(err).Msg("Failed to set trusted proxies")
	}
	router.Use(gin.Recovery(), gin.LoggerWithWriter(log.Logger, "/health"))

	s := &Server{addr: addr, handler: h, router: router}
	s.initRouter()
	s.server = &http.Server{Addr: addr, Handler: router}
	return s
}

func (s *Server) initRouter() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.POST(messagePath, s.handleMessage)
}

func (s *Server) handleMessage(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{OK: false, Error: "invalid request: " + err.Error()})
		return
	}
	switch req.Type {
	case KindPing, KindAnalyse:
	default:
		c.JSON(http.StatusBadRequest, Response{ID: req.ID, OK: false, Error: fmt.Sprintf("unknown message type %q", req.Type)})
		return
	}

	resp := s.handler.Handle(c.Request.Context(), req)
	if resp.ID == "" {
		resp.ID = req.ID
	}
	c.JSON(http.StatusOK, resp)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe() error {
	log.Info().Msg("Starting agent bridge on " + s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// HTTPTransport posts requests to a Server.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		endpoint: strings.TrimRight(baseURL, "/") + messagePath,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("failed to decode response (%s): %w", httpResp.Status, err)
	}
	return resp, nil
}
