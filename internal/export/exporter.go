package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// View names one of the two result tables.
type View string

const (
	ViewWeeks   View = "weeks"
	ViewSenders View = "senders"
)

// ParseView accepts the view names and their short forms.
func ParseView(s string) (View, error) {
	switch s {
	case "weeks", "week", "w":
		return ViewWeeks, nil
	case "senders", "sender", "s":
		return ViewSenders, nil
	}
	return "", fmt.Errorf("unknown view %q (want weeks or senders)", s)
}

// Exporter materialises tables as CSV files under a directory.
type Exporter struct {
	dir string
}

func NewExporter(dir string) *Exporter {
	if dir == "" {
		dir = "./exports"
	}
	return &Exporter{dir: dir}
}

// Filename returns "<sanitized channel>_weeks.csv" or "..._senders.csv".
func Filename(channel string, view View) string {
	base := SanitizeFilename(channel)
	if view == ViewWeeks {
		return base + "_weeks.csv"
	}
	return base + "_senders.csv"
}

// ExportResult describes a written file.
type ExportResult struct {
	Path string
	Size int64
}

// HumanSize formats the file size for status lines.
func (r ExportResult) HumanSize() string {
	return humanize.Bytes(uint64(r.Size))
}

// Download writes records as CSV to the export directory.
func (e *Exporter) Download(channel string, view View, records []Record) (*ExportResult, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.dir, Filename(channel, view))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	n, err := file.WriteString(CSV(records))
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("rows", len(records)).Msg("exported table")
	return &ExportResult{Path: path, Size: int64(n)}, nil
}
