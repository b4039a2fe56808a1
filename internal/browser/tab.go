package browser

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/rs/zerolog/log"
)

//go:embed agent.js
var agentScript string

// Tab is one browser page with the engagement agent optionally installed.
type Tab struct {
	evaluate evalFunc
	settle   time.Duration
	once     sync.Once
}

// evalFunc runs a JS function in the page and returns its value as a string
// and as a bool.
type evalFunc func(ctx context.Context, js string) (string, bool, error)

func newTab(page *rod.Page, settle time.Duration) *Tab {
	return &Tab{evaluate: pageEvaluator(page), settle: settle}
}

func pageEvaluator(page *rod.Page) evalFunc {
	return func(ctx context.Context, js string) (string, bool, error) {
		res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
			JS:           js,
			ByValue:      true,
			AwaitPromise: true,
		})
		if err != nil {
			return "", false, err
		}
		if res == nil {
			return "", false, nil
		}
		return res.Value.Str(), res.Value.Bool(), nil
	}
}

// Settle waits once for a page that is still loading. Concurrent callers
// block until the first wait is over.
func (t *Tab) Settle(ctx context.Context) {
	t.once.Do(func() { t.settleOnce(ctx) })
}

func (t *Tab) settleOnce(ctx context.Context) {
	state, _, err := t.evaluate(ctx, `() => document.readyState`)
	if err != nil || state == "complete" {
		return
	}
	log.Debug().Str("state", state).Dur("delay", t.settle).Msg("tab still loading")

	select {
	case <-time.After(t.settle):
	case <-ctx.Done():
	}
}

// Ready reports whether the agent global answers in the page.
func (t *Tab) Ready(ctx context.Context) (bool, error) {
	t.Settle(ctx)
	_, ok, err := t.evaluate(ctx, `() => !!(window.__engagementAgent && window.__engagementAgent.ping())`)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Inject installs the agent. Installing twice is a no-op in the page.
func (t *Tab) Inject(ctx context.Context) error {
	if _, _, err := t.evaluate(ctx, agentScript); err != nil {
		return fmt.Errorf("inject agent: %w", err)
	}
	return nil
}

func (t *Tab) Snapshot(ctx context.Context) (string, error) {
	html, _, err := t.evaluate(ctx, `() => window.__engagementAgent.snapshot()`)
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return html, nil
}
