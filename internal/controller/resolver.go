package controller

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dzmitry-papkou/engagement/internal/bridge"
	"github.com/dzmitry-papkou/engagement/internal/browser"
	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/scraper"
)

// Injector installs the page-side agent.
type Injector interface {
	Inject(ctx context.Context) error
}

// Endpoint is what one analysis run talks to. Injector is nil when the
// agent cannot be installed from here.
type Endpoint struct {
	Transport bridge.Transport
	Injector  Injector
	Close     func() error
}

func (e *Endpoint) close() {
	if e.Close == nil {
		return
	}
	if err := e.Close(); err != nil {
		log.Debug().Err(err).Msg("closing endpoint")
	}
}

// Resolver finds the page for a run.
type Resolver interface {
	Resolve(ctx context.Context) (*Endpoint, error)
}

// BrowserResolver attaches to a Slack tab in a running Chrome.
type BrowserResolver struct {
	cfg       *config.Config
	extractor *scraper.Extractor
}

func NewBrowserResolver(cfg *config.Config, extractor *scraper.Extractor) *BrowserResolver {
	return &BrowserResolver{cfg: cfg, extractor: extractor}
}

func (r *BrowserResolver) Resolve(ctx context.Context) (*Endpoint, error) {
	session, err := browser.Connect(ctx, r.cfg.Browser, r.cfg.Bridge)
	if err != nil {
		log.Debug().Err(err).Msg("browser unavailable")
		return nil, fmt.Errorf("%w: %v", browser.ErrNoTab, err)
	}

	tab, err := session.FindTab(ctx, r.cfg.Browser.TabURLPattern)
	if err != nil {
		_ = session.Close()
		return nil, err
	}

	return &Endpoint{
		Transport: bridge.NewLocalTransport(scraper.NewAgent(tab, r.extractor)),
		Injector:  tab,
		Close:     session.Close,
	}, nil
}

// FileResolver analyses a saved page.
type FileResolver struct {
	path      string
	extractor *scraper.Extractor
}

func NewFileResolver(path string, extractor *scraper.Extractor) *FileResolver {
	return &FileResolver{path: path, extractor: extractor}
}

func (r *FileResolver) Resolve(context.Context) (*Endpoint, error) {
	source := scraper.FileSource{Path: r.path}
	return &Endpoint{Transport: bridge.NewLocalTransport(scraper.NewAgent(source, r.extractor))}, nil
}

// RemoteResolver talks to an agent served over HTTP.
type RemoteResolver struct {
	url string
}

func NewRemoteResolver(url string) *RemoteResolver {
	return &RemoteResolver{url: url}
}

func (r *RemoteResolver) Resolve(context.Context) (*Endpoint, error) {
	return &Endpoint{Transport: bridge.NewHTTPTransport(r.url)}, nil
}
