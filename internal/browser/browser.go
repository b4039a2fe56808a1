package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog/log"

	"github.com/dzmitry-papkou/engagement/internal/config"
)

var ErrNoTab = errors.New("Open a Slack web tab (https://*.slack.com) first.")

// Session is a connection to a running Chrome over the DevTools protocol.
// The browser belongs to the user: closing a session only detaches.
type Session struct {
	browser *rod.Browser
	cfg     config.BridgeConfig
	conn    io.Closer
	cancel  context.CancelFunc
}

// Connect attaches to the browser at debugger_url, or to a local Chrome
// started with --remote-debugging-port when none is configured.
func Connect(ctx context.Context, bcfg config.BrowserConfig, bridge config.BridgeConfig) (*Session, error) {
	controlURL := bcfg.DebuggerURL
	if controlURL == "" {
		resolved, err := launcher.ResolveURL("")
		if err != nil {
			return nil, fmt.Errorf("no debugger_url and no local chrome: %w", err)
		}
		controlURL = resolved
	}

	ctx, cancel := context.WithCancel(ctx)
	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, controlURL, nil); err != nil {
		cancel()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	b := rod.New().Client(cdp.New().Start(ws)).Context(ctx)
	if err := b.Connect(); err != nil {
		_ = ws.Close()
		cancel()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	log.Debug().Str("url", controlURL).Msg("connected to browser")

	return &Session{browser: b, cfg: bridge, conn: ws, cancel: cancel}, nil
}

// Close drops the DevTools connection and leaves the browser and its tabs
// running.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// FindTab returns the first open page whose URL matches pattern.
func (s *Session) FindTab(ctx context.Context, pattern string) (*Tab, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid tab pattern: %w", err)
	}

	pages, err := s.browser.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}

	urls := make([]string, len(pages))
	for i, p := range pages {
		info, err := p.Info()
		if err != nil {
			log.Debug().Err(err).Msg("skipping tab without info")
			continue
		}
		urls[i] = info.URL
	}

	i := MatchTab(urls, re)
	if i < 0 {
		return nil, ErrNoTab
	}
	log.Debug().Str("url", urls[i]).Msg("using tab")
	return newTab(pages[i], s.cfg.SettleDelay), nil
}

// MatchTab returns the index of the first URL matching re, or -1.
func MatchTab(urls []string, re *regexp.Regexp) int {
	for i, u := range urls {
		if u != "" && re.MatchString(u) {
			return i
		}
	}
	return -1
}
