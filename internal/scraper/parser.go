package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/rs/zerolog/log"

	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/dom"
	"github.com/dzmitry-papkou/engagement/internal/models"
)

var (
	replyPattern   = regexp.MustCompile(`(?i)repl(y|ies)`)
	firstNumber    = regexp.MustCompile(`\d+`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
	atSeparator    = regexp.MustCompile(`(?i) at `)
	ordinalSuffix  = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	weekdayPrefix  = regexp.MustCompile(`(?i)^(mon|tues?|wed(nes)?|thu(rs)?|fri|sat(ur)?|sun)(day)?\.?,?\s+`)
)

// maxEpochMillis is the largest timestamp a JS Date can hold.
const maxEpochMillis = 8.64e15

// Parser turns message elements into records. Every field is best effort:
// a missing or malformed field resolves to its default, never an error.
type Parser struct {
	sel            config.Selectors
	unknownSender  string
	defaultChannel string
	titleSeparator string
	titleSentinels []string
	loc            *time.Location
	now            func() time.Time
}

func NewParser(cfg config.ExtractorConfig, loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{
		sel:            cfg.Selectors,
		unknownSender:  cfg.UnknownSender,
		defaultChannel: cfg.DefaultChannel,
		titleSeparator: cfg.TitleSeparator,
		titleSentinels: cfg.TitleSentinels,
		loc:            loc,
		now:            time.Now,
	}
}

// WithClock replaces the clock used when no timestamp can be read.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// FindCandidates returns message elements from all roots, in root order
// and then document order.
func (p *Parser) FindCandidates(roots []*dom.Root) []*goquery.Selection {
	var candidates []*goquery.Selection
	for _, r := range roots {
		r.Find(p.sel.Message).Each(func(_ int, s *goquery.Selection) {
			candidates = append(candidates, s)
		})
	}
	return candidates
}

func (p *Parser) ParseMessage(s *goquery.Selection) models.Message {
	text := s.Find(p.sel.MessageText).First().Text()
	trimmed := strings.TrimSpace(text)

	return models.Message{
		Sender:    p.parseSender(s),
		Timestamp: p.parseTimestamp(s),
		Reactions: p.parseReactions(s),
		Files:     s.Find(p.sel.Files).Length(),
		Replies:   p.parseReplies(s),
		Chars:     utf8.RuneCountInString(trimmed),
		Text:      strings.ToLower(text),
	}
}

func (p *Parser) parseSender(s *goquery.Selection) string {
	sender := strings.TrimSpace(s.Find(p.sel.Sender).First().Text())
	if sender == "" {
		return p.unknownSender
	}
	return sender
}

// parseTimestamp prefers the epoch-seconds attribute, then the human label,
// then the current time.
func (p *Parser) parseTimestamp(s *goquery.Selection) time.Time {
	if raw, ok := s.Find(p.sel.Timestamp).First().Attr(p.sel.TimestampAttr); ok && raw != "" {
		sec, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil && !math.IsInf(sec, 0) && !math.IsNaN(sec) && math.Abs(sec*1000) <= maxEpochMillis {
			return time.UnixMilli(int64(math.Floor(sec * 1000))).In(p.loc)
		}
		log.Debug().Str("value", raw).Msg("unusable timestamp attribute")
	}

	label, _ := s.Find(p.sel.TimestampLabel).First().Attr("aria-label")
	if t, ok := p.parseLabel(label); ok {
		return t
	}

	log.Debug().Str("label", label).Msg("no timestamp, using current time")
	return p.now()
}

func (p *Parser) parseLabel(label string) (time.Time, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return time.Time{}, false
	}
	if loc := atSeparator.FindStringIndex(label); loc != nil {
		label = label[:loc[0]] + " " + label[loc[1]:]
	}
	label = ordinalSuffix.ReplaceAllString(label, "$1")
	label = weekdayPrefix.ReplaceAllString(label, "")

	t, err := dateparse.ParseIn(label, p.loc)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() == 0 {
		t = p.withCurrentYear(t)
	}
	return t, true
}

// withCurrentYear dates a year-less label in the current year, or in the
// previous one when that would put it in the future.
func (p *Parser) withCurrentYear(t time.Time) time.Time {
	now := p.now().In(p.loc)
	dated := time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), p.loc)
	if dated.After(now.Add(24 * time.Hour)) {
		dated = dated.AddDate(-1, 0, 0)
	}
	return dated
}

func (p *Parser) parseReactions(s *goquery.Selection) int {
	total := 0
	s.Find(p.sel.ReactionCount).Each(func(_ int, badge *goquery.Selection) {
		total += leadingInt(strings.TrimSpace(badge.Text()))
	})
	return total
}

func (p *Parser) parseReplies(s *goquery.Selection) int {
	replies := 0
	s.Find(p.sel.ReplyControls).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := el.Text()
		if !replyPattern.MatchString(text) {
			return true
		}
		if m := firstNumber.FindString(text); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				replies = n
			}
		}
		return false
	})
	return replies
}

func leadingInt(s string) int {
	m := leadingInteger.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// ChannelName tries the heading selectors on the main document, then the
// page title, then the configured default.
func (p *Parser) ChannelName(tree *dom.Tree) string {
	main := tree.Main()
	for _, sel := range p.sel.ChannelHeadings {
		if txt := strings.TrimSpace(main.Find(sel).First().Text()); txt != "" {
			return txt
		}
	}

	var kept []string
	for _, part := range strings.Split(main.Title(), p.titleSeparator) {
		part = strings.TrimSpace(part)
		if part == "" || p.isTitleSentinel(part) {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) > 0 {
		return kept[len(kept)-1]
	}
	return p.defaultChannel
}

func (p *Parser) isTitleSentinel(part string) bool {
	for _, s := range p.titleSentinels {
		if strings.EqualFold(part, s) {
			return true
		}
	}
	return false
}
