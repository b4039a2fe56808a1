package analyzer

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzmitry-papkou/engagement/internal/models"
)

func TestAggregateSingleWeek(t *testing.T) {
	rows := []models.Message{
		{Sender: "A", Timestamp: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), Reactions: 1},
		{Sender: "B", Timestamp: time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC), Reactions: 2},
	}

	a := Aggregate(rows, time.UTC)
	weeks := a.WeekTable()
	require.Len(t, weeks, 1)

	want := models.WeekRow{
		Week:          "2024-W01",
		WeekStart:     "2024-01-01",
		Messages:      2,
		UniqueSenders: 2,
		Reactions:     3,
	}
	if diff := cmp.Diff(want, weeks[0]); diff != "" {
		t.Errorf("week row mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateInsertionOrder(t *testing.T) {
	rows := []models.Message{
		{Sender: "Zed", Timestamp: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC), Files: 1},
		{Sender: "Amy", Timestamp: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), Replies: 4},
		{Sender: "Zed", Timestamp: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC), Reactions: 5},
	}

	a := Aggregate(rows, time.UTC)

	weeks := a.WeekTable()
	require.Len(t, weeks, 2)
	assert.Equal(t, "2024-W12", weeks[0].Week)
	assert.Equal(t, "2024-W01", weeks[1].Week)

	want := []models.SenderRow{
		{Sender: "Zed", Messages: 2, Reactions: 5, FilesShared: 1},
		{Sender: "Amy", Messages: 1, Replies: 4},
	}
	if diff := cmp.Diff(want, a.SenderTable()); diff != "" {
		t.Errorf("sender table mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateTotalsAndUniqueSenders(t *testing.T) {
	base := time.Date(2023, 12, 1, 12, 0, 0, 0, time.UTC)
	var rows []models.Message
	for i := 0; i < 200; i++ {
		rows = append(rows, models.Message{
			Sender:    fmt.Sprintf("user%d", i%7),
			Timestamp: base.Add(time.Duration(i*13) * time.Hour),
			Chars:     i,
		})
	}

	a := Aggregate(rows, time.UTC)
	assert.Equal(t, len(rows), a.Total())

	weekSum := 0
	for _, w := range a.WeekTable() {
		weekSum += w.Messages
		assert.LessOrEqual(t, w.UniqueSenders, w.Messages, w.Week)
	}
	assert.Equal(t, len(rows), weekSum)

	senderSum := 0
	for _, s := range a.SenderTable() {
		senderSum += s.Messages
	}
	assert.Equal(t, len(rows), senderSum)
	assert.Len(t, a.SenderTable(), 7)
}

func TestAggregateRepeatedSenderCountsOnce(t *testing.T) {
	ts := time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC)
	rows := []models.Message{
		{Sender: "A", Timestamp: ts},
		{Sender: "A", Timestamp: ts.Add(time.Hour)},
		{Sender: "A", Timestamp: ts.Add(2 * time.Hour)},
	}

	weeks := Aggregate(rows, time.UTC).WeekTable()
	require.Len(t, weeks, 1)
	assert.Equal(t, 3, weeks[0].Messages)
	assert.Equal(t, 1, weeks[0].UniqueSenders)
}

func TestAvgLengthRounding(t *testing.T) {
	tests := []struct {
		sum, n, want int
	}{
		{0, 0, 0},
		{10, 4, 3}, // 2.5 rounds up
		{9, 4, 2},  // 2.25
		{11, 4, 3}, // 2.75
		{7, 1, 7},
	}
	for _, tt := range tests {
		b := &WeekBucket{CharsSum: tt.sum, Messages: tt.n}
		assert.Equal(t, tt.want, b.AvgLength(), "sum=%d n=%d", tt.sum, tt.n)
	}
}

func TestAggregateEmpty(t *testing.T) {
	a := Aggregate(nil, time.UTC)
	assert.Empty(t, a.WeekTable())
	assert.Empty(t, a.SenderTable())
	assert.Equal(t, 0, a.Total())
}
