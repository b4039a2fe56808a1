package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dzmitry-papkou/engagement/internal/cli"
	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/controller"
	"github.com/dzmitry-papkou/engagement/internal/scraper"
)

var (
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "engagement",
	Short:         "Slack channel engagement analyser",
	Long:          color.CyanString("Slack channel engagement analyser") + "\nWeekly and per-sender activity tables from the Slack tab you have open.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(configFile); err != nil {
			setupLogging("info")
			log.Warn().Err(err).Str("path", configFile).Msg("could not load config file, using default configuration")
			config.LoadDefault()
		}
		level := config.Get().App.LogLevel
		if debug {
			level = "debug"
		}
		setupLogging(level)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPanel(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "configs/config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Verbose logging")

	rootCmd.AddCommand(analyseCmd)
	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("✗"), err)
		os.Exit(1)
	}
}

func loadConfig(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		execPath, _ := os.Executable()
		execDir := filepath.Dir(execPath)
		altPath := filepath.Join(execDir, path)

		if _, err := os.Stat(altPath); err == nil {
			path = altPath
		} else {
			return fmt.Errorf("config file not found: %s", path)
		}
	}

	return config.Load(path)
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// newController picks the page source: a remote agent, a saved page, or
// the Slack tab in the local browser.
func newController(cfg *config.Config, file, agentURL string) (*controller.Controller, error) {
	if agentURL == "" {
		agentURL = cfg.Bridge.AgentURL
	}
	if agentURL != "" {
		return controller.New(cfg, controller.NewRemoteResolver(agentURL)), nil
	}

	extractor, err := scraper.NewExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	if file != "" {
		return controller.New(cfg, controller.NewFileResolver(file, extractor)), nil
	}
	return controller.New(cfg, controller.NewBrowserResolver(cfg, extractor)), nil
}

var panelFile, panelAgent string

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Interactive panel with analyse, tables, copy and download",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPanel(cmd.Context())
	},
}

func init() {
	panelCmd.Flags().StringVar(&panelFile, "file", "", "Analyse a saved HTML page instead of the browser tab")
	panelCmd.Flags().StringVar(&panelAgent, "agent", "", "URL of an agent started with 'engagement serve'")
}

func runPanel(ctx context.Context) error {
	cfg := config.Get()
	ctrl, err := newController(cfg, panelFile, panelAgent)
	if err != nil {
		return err
	}

	commander := cli.NewCommander(ctrl, cfg, os.Stdout)
	cli.PrintWelcome(os.Stdout)
	startInteractiveMode(ctx, commander, cfg)
	return nil
}

func startInteractiveMode(ctx context.Context, commander *cli.Commander, cfg *config.Config) {
	scanner := bufio.NewScanner(os.Stdin)
	prompt := cfg.App.CLI.Prompt
	if prompt == "" {
		prompt = "➜"
	}

	yellow := color.New(color.FgYellow).SprintFunc()

	for {
		fmt.Print(yellow("\n" + prompt + " "))
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())

		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		command := strings.ToLower(parts[0])
		args := parts[1:]

		if !commander.ExecuteCommand(ctx, command, args) {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
