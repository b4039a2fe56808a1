package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dzmitry-papkou/engagement/internal/bridge"
	"github.com/dzmitry-papkou/engagement/internal/browser"
	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/scraper"
)

var (
	serveFile   string
	serveListen string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the page agent behind the HTTP bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		ctx := cmd.Context()

		extractor, err := scraper.NewExtractor(cfg.Extractor)
		if err != nil {
			return err
		}

		source, closeSource, err := serveSource(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeSource()

		addr := serveListen
		if addr == "" {
			addr = cfg.Bridge.ListenAddr
		}
		server := bridge.NewServer(addr, scraper.NewAgent(source, extractor))

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		log.Info().Msg("shutting down agent bridge")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	},
}

// injectingSource installs the agent before the first read of a tab.
type injectingSource struct {
	tab *browser.Tab
}

func (s injectingSource) Ready(ctx context.Context) (bool, error) {
	ok, err := s.tab.Ready(ctx)
	if err != nil || ok {
		return ok, err
	}
	if err := s.tab.Inject(ctx); err != nil {
		return false, err
	}
	return s.tab.Ready(ctx)
}

func (s injectingSource) Snapshot(ctx context.Context) (string, error) {
	return s.tab.Snapshot(ctx)
}

func serveSource(ctx context.Context, cfg *config.Config) (scraper.Source, func(), error) {
	if serveFile != "" {
		return scraper.FileSource{Path: serveFile}, func() {}, nil
	}

	session, err := browser.Connect(ctx, cfg.Browser, cfg.Bridge)
	if err != nil {
		return nil, nil, err
	}
	tab, err := session.FindTab(ctx, cfg.Browser.TabURLPattern)
	if err != nil {
		_ = session.Close()
		return nil, nil, err
	}
	return injectingSource{tab: tab}, func() { _ = session.Close() }, nil
}

func init() {
	serveCmd.Flags().StringVar(&serveFile, "file", "", "Serve a saved HTML page instead of the browser tab")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from bridge.listen_addr)")
}
