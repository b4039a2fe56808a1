package scraper

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dzmitry-papkou/engagement/internal/analyzer"
	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/dom"
	"github.com/dzmitry-papkou/engagement/internal/export"
	"github.com/dzmitry-papkou/engagement/internal/models"
)

// ErrNoMessagesFound is the only hard failure of an analysis.
var ErrNoMessagesFound = errors.New("No Slack-like message nodes found in the current view. Scroll the channel to load more.")

// Extractor runs the whole analysis over one captured page.
type Extractor struct {
	parser *Parser
	loc    *time.Location
}

func NewExtractor(cfg config.ExtractorConfig) (*Extractor, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Extractor{parser: NewParser(cfg, loc), loc: loc}, nil
}

func (e *Extractor) Parser() *Parser {
	return e.parser
}

func (e *Extractor) Analyse(tree *dom.Tree, keywords []string) (*models.AnalysisResult, error) {
	startTime := time.Now()
	channelName := e.parser.ChannelName(tree)

	roots := dom.CollectRoots(tree)
	candidates := e.parser.FindCandidates(roots)
	if len(candidates) == 0 {
		return nil, ErrNoMessagesFound
	}

	rows := make([]models.Message, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, e.parser.ParseMessage(c))
	}
	rows = FilterByKeywords(rows, keywords)

	agg := analyzer.Aggregate(rows, e.loc)
	weekTable := agg.WeekTable()
	senderTable := agg.SenderTable()

	log.Debug().
		Str("channel", channelName).
		Int("roots", len(roots)).
		Int("candidates", len(candidates)).
		Int("rows", len(rows)).
		Dur("took", time.Since(startTime)).
		Msg("analysed page")

	return &models.AnalysisResult{
		ChannelName: channelName,
		RowsCount:   len(rows),
		WeekTable:   weekTable,
		SenderTable: senderTable,
		WeeksCSV:    export.CSV(models.WeekRecords(weekTable)),
		SendersCSV:  export.CSV(models.SenderRecords(senderTable)),
	}, nil
}

// FilterByKeywords keeps rows whose text contains any keyword, ignoring
// case. No keywords keeps everything.
func FilterByKeywords(rows []models.Message, keywords []string) []models.Message {
	if len(keywords) == 0 {
		return rows
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	var kept []models.Message
	for _, r := range rows {
		text := strings.ToLower(r.Text)
		for _, k := range lowered {
			if strings.Contains(text, k) {
				kept = append(kept, r)
				break
			}
		}
	}
	return kept
}
