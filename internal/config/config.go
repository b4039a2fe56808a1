package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	App       AppConfig       `yaml:"app"`
}

type BrowserConfig struct {
	DebuggerURL   string `yaml:"debugger_url" envconfig:"debugger_url"`
	TabURLPattern string `yaml:"tab_url_pattern" envconfig:"tab_url_pattern"`
}

type BridgeConfig struct {
	ProbeTimeout   time.Duration   `yaml:"probe_timeout" envconfig:"probe_timeout"`
	AnalyseTimeout time.Duration   `yaml:"analyse_timeout" envconfig:"analyse_timeout"`
	RetryDelays    []time.Duration `yaml:"retry_delays" envconfig:"retry_delays"`
	SettleDelay    time.Duration   `yaml:"settle_delay" envconfig:"settle_delay"`
	ListenAddr     string          `yaml:"listen_addr" envconfig:"listen_addr"`
	AgentURL       string          `yaml:"agent_url" envconfig:"agent_url"`
}

type ExtractorConfig struct {
	Timezone       string    `yaml:"timezone"`
	UnknownSender  string    `yaml:"unknown_sender"`
	DefaultChannel string    `yaml:"default_channel"`
	TitleSeparator string    `yaml:"title_separator"`
	TitleSentinels []string  `yaml:"title_sentinels"`
	Selectors      Selectors `yaml:"selectors"`
}

type Selectors struct {
	Message         string   `yaml:"message"`
	Sender          string   `yaml:"sender"`
	Timestamp       string   `yaml:"timestamp"`
	TimestampAttr   string   `yaml:"timestamp_attr"`
	TimestampLabel  string   `yaml:"timestamp_label"`
	ReactionCount   string   `yaml:"reaction_count"`
	Files           string   `yaml:"files"`
	ReplyControls   string   `yaml:"reply_controls"`
	MessageText     string   `yaml:"message_text"`
	ChannelHeadings []string `yaml:"channel_headings"`
}

type ClipboardConfig struct {
	RichCommand  []string `yaml:"rich_command"`
	PlainCommand []string `yaml:"plain_command"`
}

type AppConfig struct {
	LogLevel   string    `yaml:"log_level" envconfig:"log_level"`
	ExportPath string    `yaml:"export_path" envconfig:"export_path"`
	CLI        CLIConfig `yaml:"cli"`
}

type CLIConfig struct {
	Prompt string `yaml:"prompt"`
}

// Location resolves the configured time zone, defaulting to the local one.
func (c ExtractorConfig) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

var cfg *Config

func Load(path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	loaded := Default()
	if err := yaml.Unmarshal(file, loaded); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	setDefaults(loaded)
	if err := applyEnv(loaded); err != nil {
		return err
	}

	cfg = loaded
	return nil
}

func Get() *Config {
	if cfg == nil {
		LoadDefault()
	}
	return cfg
}

// LoadDefault installs the built-in configuration plus environment overrides.
func LoadDefault() {
	cfg = Default()
	if err := applyEnv(cfg); err != nil {
		log.Warn().Err(err).Msg("Ignoring malformed environment overrides")
	}
}

func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			TabURLPattern: `^https?://.*\.slack\.com/`,
		},
		Bridge: BridgeConfig{
			ProbeTimeout:   1500 * time.Millisecond,
			AnalyseTimeout: 15 * time.Second,
			RetryDelays:    []time.Duration{150 * time.Millisecond, 200 * time.Millisecond},
			SettleDelay:    300 * time.Millisecond,
			ListenAddr:     "127.0.0.1:8765",
		},
		Extractor: ExtractorConfig{
			Timezone:       "Local",
			UnknownSender:  "(unknown)",
			DefaultChannel: "slack",
			TitleSeparator: "|",
			TitleSentinels: []string{"slack", "thread"},
			Selectors:      DefaultSelectors(),
		},
		App: AppConfig{
			LogLevel:   "info",
			ExportPath: "./exports",
			CLI: CLIConfig{
				Prompt: "➜",
			},
		},
	}
}

func DefaultSelectors() Selectors {
	return Selectors{
		Message:        ".c-message_kit__background.p-message_pane_message__message",
		Sender:         ".c-message__sender_button",
		Timestamp:      "[data-ts]",
		TimestampAttr:  "data-ts",
		TimestampLabel: ".c-timestamp",
		ReactionCount:  ".c-reaction__count",
		Files:          `.p-message_file, [data-qa="message_kit_files"] .c-pillow_file_container`,
		ReplyControls:  "button, a",
		MessageText:    `[data-qa="message-text"]`,
		ChannelHeadings: []string{
			`[data-qa="channel_name"]`,
			`[data-qa="page_heading"]`,
			`[data-qa="channel_heading__name"]`,
			"div.p-view_header__title h1",
			"div.p-view_header__entity_name",
			"h1.p-classic_nav__channel_header__channel_name",
		},
	}
}

func setDefaults(c *Config) {
	d := Default()

	if c.Browser.TabURLPattern == "" {
		c.Browser.TabURLPattern = d.Browser.TabURLPattern
	}
	if c.Bridge.ProbeTimeout == 0 {
		c.Bridge.ProbeTimeout = d.Bridge.ProbeTimeout
	}
	if c.Bridge.AnalyseTimeout == 0 {
		c.Bridge.AnalyseTimeout = d.Bridge.AnalyseTimeout
	}
	if len(c.Bridge.RetryDelays) == 0 {
		c.Bridge.RetryDelays = d.Bridge.RetryDelays
	}
	if c.Bridge.ListenAddr == "" {
		c.Bridge.ListenAddr = d.Bridge.ListenAddr
	}
	if c.Extractor.UnknownSender == "" {
		c.Extractor.UnknownSender = d.Extractor.UnknownSender
	}
	if c.Extractor.DefaultChannel == "" {
		c.Extractor.DefaultChannel = d.Extractor.DefaultChannel
	}
	if c.Extractor.TitleSeparator == "" {
		c.Extractor.TitleSeparator = d.Extractor.TitleSeparator
	}

	s, ds := &c.Extractor.Selectors, d.Extractor.Selectors
	if s.Message == "" {
		s.Message = ds.Message
	}
	if s.Sender == "" {
		s.Sender = ds.Sender
	}
	if s.Timestamp == "" {
		s.Timestamp = ds.Timestamp
	}
	if s.TimestampAttr == "" {
		s.TimestampAttr = ds.TimestampAttr
	}
	if s.TimestampLabel == "" {
		s.TimestampLabel = ds.TimestampLabel
	}
	if s.ReactionCount == "" {
		s.ReactionCount = ds.ReactionCount
	}
	if s.Files == "" {
		s.Files = ds.Files
	}
	if s.ReplyControls == "" {
		s.ReplyControls = ds.ReplyControls
	}
	if s.MessageText == "" {
		s.MessageText = ds.MessageText
	}
	if len(s.ChannelHeadings) == 0 {
		s.ChannelHeadings = ds.ChannelHeadings
	}

	if c.App.ExportPath == "" {
		c.App.ExportPath = d.App.ExportPath
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = d.App.LogLevel
	}
}

func applyEnv(c *Config) error {
	if err := envconfig.Process("ENGAGEMENT_BROWSER", &c.Browser); err != nil {
		return fmt.Errorf("failed to read browser environment: %w", err)
	}
	if err := envconfig.Process("ENGAGEMENT_BRIDGE", &c.Bridge); err != nil {
		return fmt.Errorf("failed to read bridge environment: %w", err)
	}
	if err := envconfig.Process("ENGAGEMENT_APP", &c.App); err != nil {
		return fmt.Errorf("failed to read app environment: %w", err)
	}
	return nil
}
