package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/dzmitry-papkou/engagement/internal/bridge"
	"github.com/dzmitry-papkou/engagement/internal/dom"
)

// Source gives the agent access to the page it analyses.
type Source interface {
	// Ready reports whether the page side is loaded and listening.
	Ready(ctx context.Context) (bool, error)
	// Snapshot returns the current document as HTML, shadow roots as
	// declarative templates and readable frames as srcdoc.
	Snapshot(ctx context.Context) (string, error)
}

var errNotLoaded = errors.New("extractor is not loaded in the page")

// Agent is the page-side endpoint of the bridge.
type Agent struct {
	source    Source
	extractor *Extractor
}

func NewAgent(source Source, extractor *Extractor) *Agent {
	return &Agent{source: source, extractor: extractor}
}

func (a *Agent) Handle(ctx context.Context, req bridge.Request) (resp bridge.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("type", string(req.Type)).Msg("agent request panicked")
			resp = bridge.Response{ID: req.ID, OK: false, Error: fmt.Sprint(r)}
		}
	}()

	switch req.Type {
	case bridge.KindPing:
		return a.ping(ctx, req)
	case bridge.KindAnalyse:
		return a.analyse(ctx, req)
	}
	return bridge.Response{ID: req.ID, OK: false, Error: fmt.Sprintf("unknown message type %q", req.Type)}
}

func (a *Agent) ping(ctx context.Context, req bridge.Request) bridge.Response {
	ready, err := a.source.Ready(ctx)
	if err != nil {
		return bridge.Response{ID: req.ID, OK: false, Error: err.Error()}
	}
	if !ready {
		return bridge.Response{ID: req.ID, OK: false, Error: errNotLoaded.Error()}
	}
	return bridge.Response{ID: req.ID, OK: true}
}

func (a *Agent) analyse(ctx context.Context, req bridge.Request) bridge.Response {
	html, err := a.source.Snapshot(ctx)
	if err != nil {
		return bridge.Response{ID: req.ID, OK: false, Error: fmt.Sprintf("failed to read page: %v", err)}
	}

	tree, err := dom.ParseString(html)
	if err != nil {
		return bridge.Response{ID: req.ID, OK: false, Error: err.Error()}
	}

	result, err := a.extractor.Analyse(tree, req.Keywords)
	if err != nil {
		return bridge.Response{ID: req.ID, OK: false, Error: err.Error()}
	}
	return bridge.Response{ID: req.ID, OK: true, Data: result}
}

// FileSource serves a saved HTML page.
type FileSource struct {
	Path string
}

func (f FileSource) Ready(context.Context) (bool, error) {
	if _, err := os.Stat(f.Path); err != nil {
		return false, err
	}
	return true, nil
}

func (f FileSource) Snapshot(context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
