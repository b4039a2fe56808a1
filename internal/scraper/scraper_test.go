package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzmitry-papkou/engagement/internal/analyzer"
	"github.com/dzmitry-papkou/engagement/internal/bridge"
	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/dom"
	"github.com/dzmitry-papkou/engagement/internal/models"
)

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	cfg := config.Default().Extractor
	cfg.Timezone = "UTC"
	e, err := NewExtractor(cfg)
	require.NoError(t, err)
	e.Parser().WithClock(func() time.Time { return fixedNow })
	return e
}

func slackMessage(sender, ts, text string, reactions int) string {
	inner := `<button class="c-message__sender_button">` + sender + `</button>`
	if ts != "" {
		inner += `<a class="c-timestamp" data-ts="` + ts + `"></a>`
	}
	inner += `<div data-qa="message-text">` + text + `</div>`
	for i := 0; i < reactions; i++ {
		inner += `<span class="c-reaction__count">1</span>`
	}
	return message(inner)
}

const (
	jan3 = "1704276000" // 2024-01-03T10:00:00Z
	jan4 = "1704362400" // 2024-01-04T10:00:00Z
)

func TestAnalyseSingleWeekExample(t *testing.T) {
	page := wrap(slackMessage("A", jan3, "hello", 1) + slackMessage("B", jan4, "world", 2))
	tree, err := dom.ParseString(page)
	require.NoError(t, err)

	res, err := testExtractor(t).Analyse(tree, nil)
	require.NoError(t, err)

	assert.Equal(t, "general", res.ChannelName)
	assert.Equal(t, 2, res.RowsCount)
	require.Len(t, res.WeekTable, 1)
	w := res.WeekTable[0]
	assert.Equal(t, "2024-W01", w.Week)
	assert.Equal(t, "2024-01-01", w.WeekStart)
	assert.Equal(t, 2, w.Messages)
	assert.Equal(t, 2, w.UniqueSenders)
	assert.Equal(t, 3, w.Reactions)
	assert.Equal(t, 5, w.AvgLength)

	require.Len(t, res.SenderTable, 2)
	assert.Equal(t, "A", res.SenderTable[0].Sender)
	assert.Equal(t, "B", res.SenderTable[1].Sender)

	assert.Contains(t, res.WeeksCSV, `"Week","Week start","Messages","Unique senders","Reactions","Files shared","Replies","Avg msg length"`)
	assert.Contains(t, res.WeeksCSV, `"2024-W01","2024-01-01","2","2","3","0","0","5"`)
	assert.Contains(t, res.SendersCSV, `"A","1","1","0","0"`)
}

func TestAnalyseKeywordFilter(t *testing.T) {
	page := wrap(
		slackMessage("A", jan3, "Release v2 is live", 0) +
			slackMessage("B", jan3, "lunch?", 0) +
			slackMessage("C", jan4, "nothing to see", 0))
	tree, err := dom.ParseString(page)
	require.NoError(t, err)

	res, err := testExtractor(t).Analyse(tree, []string{"release"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsCount)
	require.Len(t, res.SenderTable, 1)
	assert.Equal(t, "A", res.SenderTable[0].Sender)
}

func TestAnalyseKeywordsMatchNothing(t *testing.T) {
	tree, err := dom.ParseString(wrap(slackMessage("A", jan3, "hi", 0)))
	require.NoError(t, err)

	res, err := testExtractor(t).Analyse(tree, []string{"absent"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.RowsCount)
	assert.Empty(t, res.WeekTable)
	assert.Equal(t, "", res.WeeksCSV)
}

func TestAnalyseNoMessages(t *testing.T) {
	tree, err := dom.ParseString(wrap(`<p>empty channel</p>`))
	require.NoError(t, err)

	_, err = testExtractor(t).Analyse(tree, nil)
	assert.ErrorIs(t, err, ErrNoMessagesFound)
}

func TestAnalyseUndatedMessageLandsInCurrentWeek(t *testing.T) {
	tree, err := dom.ParseString(wrap(slackMessage("A", "", "no time", 0)))
	require.NoError(t, err)

	res, err := testExtractor(t).Analyse(tree, nil)
	require.NoError(t, err)

	key, _ := analyzer.ISOWeek(fixedNow, time.UTC)
	require.Len(t, res.WeekTable, 1)
	assert.Equal(t, key, res.WeekTable[0].Week)
}

func TestFilterByKeywords(t *testing.T) {
	rows := []models.Message{
		{Sender: "a", Text: "deploy friday"},
		{Sender: "b", Text: "release notes"},
		{Sender: "c", Text: "coffee"},
	}

	assert.Len(t, FilterByKeywords(rows, nil), 3)
	kept := FilterByKeywords(rows, []string{"RELEASE", "Deploy"})
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].Sender)
	assert.Equal(t, "b", kept[1].Sender)
}

type fakeSource struct {
	ready bool
	html  string
	err   error
}

func (f fakeSource) Ready(context.Context) (bool, error) { return f.ready, f.err }

func (f fakeSource) Snapshot(context.Context) (string, error) { return f.html, f.err }

func TestAgentPing(t *testing.T) {
	e := testExtractor(t)

	resp := NewAgent(fakeSource{ready: true}, e).Handle(context.Background(), bridge.Request{ID: "1", Type: bridge.KindPing})
	assert.True(t, resp.OK)
	assert.Equal(t, "1", resp.ID)

	resp = NewAgent(fakeSource{ready: false}, e).Handle(context.Background(), bridge.PingRequest())
	assert.False(t, resp.OK)

	resp = NewAgent(fakeSource{err: errors.New("tab closed")}, e).Handle(context.Background(), bridge.PingRequest())
	assert.False(t, resp.OK)
	assert.Equal(t, "tab closed", resp.Error)
}

func TestAgentAnalyse(t *testing.T) {
	src := fakeSource{ready: true, html: wrap(slackMessage("A", jan3, "x", 0))}
	resp := NewAgent(src, testExtractor(t)).Handle(context.Background(), bridge.AnalyseRequest(nil))
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, 1, resp.Data.RowsCount)

	empty := fakeSource{ready: true, html: wrap("")}
	resp = NewAgent(empty, testExtractor(t)).Handle(context.Background(), bridge.AnalyseRequest(nil))
	assert.False(t, resp.OK)
	assert.Equal(t, ErrNoMessagesFound.Error(), resp.Error)
}

func TestAgentUnknownType(t *testing.T) {
	resp := NewAgent(fakeSource{ready: true}, testExtractor(t)).Handle(context.Background(), bridge.Request{Type: "NOPE"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown message type")
}

type panickingSource struct{ fakeSource }

func (panickingSource) Snapshot(context.Context) (string, error) { panic("boom") }

func TestAgentRecoversFromPanic(t *testing.T) {
	resp := NewAgent(panickingSource{}, testExtractor(t)).Handle(context.Background(), bridge.AnalyseRequest(nil))
	assert.False(t, resp.OK)
	assert.Equal(t, "boom", resp.Error)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(wrap(slackMessage("A", jan3, "x", 0))), 0644))

	src := FileSource{Path: path}
	ready, err := src.Ready(context.Background())
	require.NoError(t, err)
	assert.True(t, ready)

	resp := NewAgent(src, testExtractor(t)).Handle(context.Background(), bridge.AnalyseRequest(nil))
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "general", resp.Data.ChannelName)

	missing := FileSource{Path: filepath.Join(t.TempDir(), "nope.html")}
	ready, err = missing.Ready(context.Background())
	assert.Error(t, err)
	assert.False(t, ready)
}
