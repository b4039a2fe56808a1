package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 1500*time.Millisecond, c.Bridge.ProbeTimeout)
	assert.Equal(t, []time.Duration{150 * time.Millisecond, 200 * time.Millisecond}, c.Bridge.RetryDelays)
	assert.Equal(t, "(unknown)", c.Extractor.UnknownSender)
	assert.Equal(t, "slack", c.Extractor.DefaultChannel)
	assert.Equal(t, []string{"slack", "thread"}, c.Extractor.TitleSentinels)
	assert.Len(t, c.Extractor.Selectors.ChannelHeadings, 6)
	assert.Equal(t, "./exports", c.App.ExportPath)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
browser:
  debugger_url: ws://127.0.0.1:9333/devtools/browser/abc
bridge:
  probe_timeout: 2s
  retry_delays: [100ms, 250ms, 500ms]
extractor:
  timezone: UTC
  selectors:
    sender: .author
app:
  export_path: /tmp/out
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, Load(path))

	c := Get()
	assert.Equal(t, "ws://127.0.0.1:9333/devtools/browser/abc", c.Browser.DebuggerURL)
	assert.Equal(t, 2*time.Second, c.Bridge.ProbeTimeout)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 250 * time.Millisecond, 500 * time.Millisecond}, c.Bridge.RetryDelays)
	assert.Equal(t, ".author", c.Extractor.Selectors.Sender)
	assert.Equal(t, DefaultSelectors().Message, c.Extractor.Selectors.Message)
	assert.Equal(t, "/tmp/out", c.App.ExportPath)

	loc, err := c.Extractor.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadFillsEmptyValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
bridge:
  probe_timeout: 0s
  retry_delays: []
extractor:
  unknown_sender: ""
  selectors:
    message: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, Load(path))

	c := Get()
	assert.Equal(t, 1500*time.Millisecond, c.Bridge.ProbeTimeout)
	assert.Len(t, c.Bridge.RetryDelays, 2)
	assert.Equal(t, "(unknown)", c.Extractor.UnknownSender)
	assert.Equal(t, DefaultSelectors().Message, c.Extractor.Selectors.Message)
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bridge: [oops"), 0644))
	assert.Error(t, Load(path))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENGAGEMENT_BROWSER_DEBUGGER_URL", "ws://env-host:9222/devtools/browser/x")
	t.Setenv("ENGAGEMENT_BRIDGE_PROBE_TIMEOUT", "3s")
	t.Setenv("ENGAGEMENT_APP_EXPORT_PATH", "/env/exports")

	LoadDefault()
	c := Get()
	assert.Equal(t, "ws://env-host:9222/devtools/browser/x", c.Browser.DebuggerURL)
	assert.Equal(t, 3*time.Second, c.Bridge.ProbeTimeout)
	assert.Equal(t, "/env/exports", c.App.ExportPath)
}

func TestLoadDefaultWarnsOnMalformedEnv(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = orig }()

	t.Setenv("ENGAGEMENT_BRIDGE_PROBE_TIMEOUT", "soon")

	LoadDefault()
	assert.Equal(t, 1500*time.Millisecond, Get().Bridge.ProbeTimeout)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "PROBE_TIMEOUT")
}

func TestLocation(t *testing.T) {
	loc, err := ExtractorConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = ExtractorConfig{Timezone: "Not/AZone"}.Location()
	assert.Error(t, err)
}
