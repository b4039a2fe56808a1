package models

import (
	"time"

	"github.com/dzmitry-papkou/engagement/internal/export"
)

// Message is one parsed message element.
type Message struct {
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Reactions int       `json:"reactions"`
	Files     int       `json:"files"`
	Replies   int       `json:"replies"`
	Chars     int       `json:"chars"`

	// Text is the lower-cased message text, kept only for keyword filtering.
	Text string `json:"-"`
}

type WeekRow struct {
	Week          string `json:"Week"`
	WeekStart     string `json:"Week start"`
	Messages      int    `json:"Messages"`
	UniqueSenders int    `json:"Unique senders"`
	Reactions     int    `json:"Reactions"`
	FilesShared   int    `json:"Files shared"`
	Replies       int    `json:"Replies"`
	AvgLength     int    `json:"Avg msg length"`
}

func (r WeekRow) Record() export.Record {
	return export.Record{
		{Key: "Week", Value: r.Week},
		{Key: "Week start", Value: r.WeekStart},
		{Key: "Messages", Value: r.Messages},
		{Key: "Unique senders", Value: r.UniqueSenders},
		{Key: "Reactions", Value: r.Reactions},
		{Key: "Files shared", Value: r.FilesShared},
		{Key: "Replies", Value: r.Replies},
		{Key: "Avg msg length", Value: r.AvgLength},
	}
}

type SenderRow struct {
	Sender      string `json:"Sender"`
	Messages    int    `json:"Messages"`
	Reactions   int    `json:"Reactions"`
	FilesShared int    `json:"Files shared"`
	Replies     int    `json:"Replies"`
}

func (r SenderRow) Record() export.Record {
	return export.Record{
		{Key: "Sender", Value: r.Sender},
		{Key: "Messages", Value: r.Messages},
		{Key: "Reactions", Value: r.Reactions},
		{Key: "Files shared", Value: r.FilesShared},
		{Key: "Replies", Value: r.Replies},
	}
}

func WeekRecords(rows []WeekRow) []export.Record {
	records := make([]export.Record, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return records
}

func SenderRecords(rows []SenderRow) []export.Record {
	records := make([]export.Record, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return records
}

// AnalysisResult is the payload of a successful ANALYSE response.
type AnalysisResult struct {
	ChannelName string      `json:"channelName"`
	RowsCount   int         `json:"rowsCount"`
	WeekTable   []WeekRow   `json:"weekTable"`
	SenderTable []SenderRow `json:"senderTable"`
	WeeksCSV    string      `json:"weeksCSV"`
	SendersCSV  string      `json:"sendersCSV"`
}
