package analyzer

import (
	"time"

	"github.com/dzmitry-papkou/engagement/internal/models"
)

type WeekBucket struct {
	Key       string
	Start     time.Time
	Messages  int
	Senders   map[string]struct{}
	Reactions int
	Files     int
	Replies   int
	CharsSum  int
}

// AvgLength rounds half up; an empty bucket averages 0.
func (b *WeekBucket) AvgLength() int {
	if b.Messages == 0 {
		return 0
	}
	return (2*b.CharsSum + b.Messages) / (2 * b.Messages)
}

type SenderBucket struct {
	Sender    string
	Messages  int
	Reactions int
	Files     int
	Replies   int
}

// Aggregator accumulates messages into week and sender buckets, keeping the
// order in which each key was first seen.
type Aggregator struct {
	loc *time.Location

	weeks     []*WeekBucket
	weekIndex map[string]*WeekBucket

	senders     []*SenderBucket
	senderIndex map[string]*SenderBucket

	total int
}

func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{
		loc:         loc,
		weekIndex:   make(map[string]*WeekBucket),
		senderIndex: make(map[string]*SenderBucket),
	}
}

// Aggregate is a one-shot helper over a slice of rows.
func Aggregate(rows []models.Message, loc *time.Location) *Aggregator {
	a := NewAggregator(loc)
	for _, r := range rows {
		a.Add(r)
	}
	return a
}

func (a *Aggregator) Add(m models.Message) {
	a.total++

	key, start := ISOWeek(m.Timestamp, a.loc)
	w, ok := a.weekIndex[key]
	if !ok {
		w = &WeekBucket{Key: key, Start: start, Senders: make(map[string]struct{})}
		a.weekIndex[key] = w
		a.weeks = append(a.weeks, w)
	}
	w.Messages++
	w.Senders[m.Sender] = struct{}{}
	w.Reactions += m.Reactions
	w.Files += m.Files
	w.Replies += m.Replies
	w.CharsSum += m.Chars

	s, ok := a.senderIndex[m.Sender]
	if !ok {
		s = &SenderBucket{Sender: m.Sender}
		a.senderIndex[m.Sender] = s
		a.senders = append(a.senders, s)
	}
	s.Messages++
	s.Reactions += m.Reactions
	s.Files += m.Files
	s.Replies += m.Replies
}

// Total is the number of rows added.
func (a *Aggregator) Total() int {
	return a.total
}

func (a *Aggregator) Weeks() []*WeekBucket {
	return a.weeks
}

func (a *Aggregator) Senders() []*SenderBucket {
	return a.senders
}

func (a *Aggregator) WeekTable() []models.WeekRow {
	rows := make([]models.WeekRow, 0, len(a.weeks))
	for _, w := range a.weeks {
		rows = append(rows, models.WeekRow{
			Week:          w.Key,
			WeekStart:     w.Start.Format("2006-01-02"),
			Messages:      w.Messages,
			UniqueSenders: len(w.Senders),
			Reactions:     w.Reactions,
			FilesShared:   w.Files,
			Replies:       w.Replies,
			AvgLength:     w.AvgLength(),
		})
	}
	return rows
}

func (a *Aggregator) SenderTable() []models.SenderRow {
	rows := make([]models.SenderRow, 0, len(a.senders))
	for _, s := range a.senders {
		rows = append(rows, models.SenderRow{
			Sender:      s.Sender,
			Messages:    s.Messages,
			Reactions:   s.Reactions,
			FilesShared: s.Files,
			Replies:     s.Replies,
		})
	}
	return rows
}
