// Package controller drives one analysis at a time against a page: it finds
// the page, makes sure the agent answers, runs the analysis and keeps the
// last result for display, copy and download.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dzmitry-papkou/engagement/internal/bridge"
	"github.com/dzmitry-papkou/engagement/internal/browser"
	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/export"
	"github.com/dzmitry-papkou/engagement/internal/models"
)

const defaultChannel = "slack"

var (
	ErrBusy              = errors.New("An analysis is already running.")
	ErrUnreachable       = errors.New("Could not reach the page. Reload the Slack tab and try again.")
	ErrNoData            = errors.New("No data found. Scroll the channel and try again.")
	ErrNothingToCopy     = errors.New("Nothing to copy")
	ErrNothingToDownload = errors.New("Nothing to download")
)

// PageError carries the agent's own failure text.
type PageError struct {
	Msg string
}

func (e *PageError) Error() string { return e.Msg }

// Cache is the last successful result.
type Cache struct {
	ChannelName string
	RowsCount   int
	Weeks       []export.Record
	Senders     []export.Record
}

type Controller struct {
	cfg       config.BridgeConfig
	resolver  Resolver
	exporter  *export.Exporter
	clipboard *export.Clipboard
	sleep     func(context.Context, time.Duration) error

	running chan struct{}

	mu     sync.RWMutex
	cache  Cache
	status string
	counts string
}

func New(cfg *config.Config, resolver Resolver) *Controller {
	return &Controller{
		cfg:       cfg.Bridge,
		resolver:  resolver,
		exporter:  export.NewExporter(cfg.App.ExportPath),
		clipboard: export.NewClipboard(cfg.Clipboard.RichCommand, cfg.Clipboard.PlainCommand),
		sleep:     sleepContext,
		running:   make(chan struct{}, 1),
		cache:     Cache{ChannelName: defaultChannel},
	}
}

// WithClipboard replaces the clipboard chain.
func (c *Controller) WithClipboard(cb *export.Clipboard) *Controller {
	c.clipboard = cb
	return c
}

// Analyse runs one analysis. On success the cache is replaced; on failure
// it is left alone and the status line carries the reason.
func (c *Controller) Analyse(ctx context.Context, keywords []string) (*models.AnalysisResult, error) {
	select {
	case c.running <- struct{}{}:
	default:
		return nil, ErrBusy
	}
	defer func() { <-c.running }()

	c.setStatus("Preparing...", "")

	result, err := c.analyse(ctx, keywords)
	if err != nil {
		c.setStatus(statusFor(err), "")
		return nil, err
	}

	channel := result.ChannelName
	if channel == "" {
		channel = defaultChannel
	}

	c.mu.Lock()
	c.cache = Cache{
		ChannelName: channel,
		RowsCount:   result.RowsCount,
		Weeks:       models.WeekRecords(result.WeekTable),
		Senders:     models.SenderRecords(result.SenderTable),
	}
	c.status = fmt.Sprintf("Done. Channel: %s. Use Copy or Download CSV for the selected tab.", channel)
	c.counts = fmt.Sprintf("Messages analysed: %d. Weeks: %d. Senders: %d.",
		result.RowsCount, len(result.WeekTable), len(result.SenderTable))
	c.mu.Unlock()

	return result, nil
}

func (c *Controller) analyse(ctx context.Context, keywords []string) (*models.AnalysisResult, error) {
	ep, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	defer ep.close()

	client := bridge.NewClient(ep.Transport)
	if err := c.EnsureReachable(ctx, client, ep.Injector); err != nil {
		return nil, err
	}

	startTime := time.Now()
	resp, err := client.Send(ctx, bridge.AnalyseRequest(keywords), c.cfg.AnalyseTimeout)
	if err != nil {
		log.Debug().Err(err).Msg("analyse request failed")
		return nil, ErrNoData
	}
	if !resp.OK || resp.Data == nil {
		if resp.Error != "" {
			return nil, &PageError{Msg: resp.Error}
		}
		return nil, ErrNoData
	}

	log.Debug().
		Str("channel", resp.Data.ChannelName).
		Int("rows", resp.Data.RowsCount).
		Dur("took", time.Since(startTime)).
		Msg("analysis finished")
	return resp.Data, nil
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, browser.ErrNoTab):
		return browser.ErrNoTab.Error()
	case errors.Is(err, ErrUnreachable):
		return ErrUnreachable.Error()
	}
	return err.Error()
}

func (c *Controller) setStatus(status, counts string) {
	c.mu.Lock()
	c.status, c.counts = status, counts
	c.mu.Unlock()
}

// Status returns the status line and the counts line.
func (c *Controller) Status() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.counts
}

// Channel is the cached channel name.
func (c *Controller) Channel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache.ChannelName
}

// Rows returns the cached table for view.
func (c *Controller) Rows(view export.View) []export.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var rows []export.Record
	if view == export.ViewWeeks {
		rows = c.cache.Weeks
	} else {
		rows = c.cache.Senders
	}
	out := make([]export.Record, len(rows))
	copy(out, rows)
	return out
}

// Sort returns the table for view ordered by column. The cache keeps its
// original order, so copy and download are unaffected.
func (c *Controller) Sort(view export.View, column string) ([]export.Record, error) {
	return SortRecords(c.Rows(view), column)
}

// Filter keeps rows with any value containing query, ignoring case.
func (c *Controller) Filter(view export.View, query string) []export.Record {
	rows := c.Rows(view)
	if query == "" {
		return rows
	}
	q := strings.ToLower(query)

	var kept []export.Record
	for _, r := range rows {
		for _, f := range r {
			if strings.Contains(strings.ToLower(fmt.Sprint(f.Value)), q) {
				kept = append(kept, r)
				break
			}
		}
	}
	return kept
}

// Copy puts the view on the clipboard and returns the strategy that took it.
func (c *Controller) Copy(ctx context.Context, view export.View) (string, error) {
	rows := c.Rows(view)
	if len(rows) == 0 {
		c.setStatusOnly(ErrNothingToCopy.Error())
		return "", ErrNothingToCopy
	}

	name, err := c.clipboard.Copy(ctx, rows)
	if err != nil {
		c.setStatusOnly(copyStatus(err))
		return "", err
	}
	c.setStatusOnly("Copied to clipboard")
	return name, nil
}

func copyStatus(err error) string {
	if errors.Is(err, export.ErrCopyFailed) {
		return export.ErrCopyFailed.Error()
	}
	return err.Error()
}

// Download writes the view as CSV into the export directory.
func (c *Controller) Download(view export.View) (*export.ExportResult, error) {
	rows := c.Rows(view)
	if len(rows) == 0 {
		c.setStatusOnly(ErrNothingToDownload.Error())
		return nil, ErrNothingToDownload
	}

	res, err := c.exporter.Download(c.Channel(), view, rows)
	if err != nil {
		c.setStatusOnly(err.Error())
		return nil, err
	}
	c.setStatusOnly(fmt.Sprintf("Saved %s (%s)", res.Path, res.HumanSize()))
	return res, nil
}

func (c *Controller) setStatusOnly(status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}
