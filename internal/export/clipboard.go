package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnavailable marks a strategy that cannot run in this environment.
	ErrUnavailable = errors.New("clipboard mechanism unavailable")
	ErrCopyFailed  = errors.New("Copy failed. You can still use Download CSV.")
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// Strategy is one clipboard mechanism. plain is TSV, rich is an HTML table.
type Strategy interface {
	Name() string
	Copy(ctx context.Context, plain, rich string) error
}

// Clipboard tries its strategies in order until one succeeds.
type Clipboard struct {
	strategies []Strategy
}

// NewClipboard builds the default chain: a configured pair of commands for
// the HTML and plain flavours, the system clipboard, then an OSC 52 escape
// on the terminal.
func NewClipboard(richCommand, plainCommand []string) *Clipboard {
	return NewClipboardWith(
		&commandStrategy{html: richCommand, plain: plainCommand},
		systemStrategy{},
		&osc52Strategy{out: os.Stdout},
	)
}

func NewClipboardWith(strategies ...Strategy) *Clipboard {
	return &Clipboard{strategies: strategies}
}

// Copy places records on the clipboard and reports which mechanism worked.
func (c *Clipboard) Copy(ctx context.Context, records []Record) (string, error) {
	plain := TSV(records)
	rich := HTMLTable(records)

	for _, s := range c.strategies {
		err := s.Copy(ctx, plain, rich)
		if err == nil {
			return s.Name(), nil
		}
		log.Debug().Err(err).Str("strategy", s.Name()).Msg("clipboard write failed")
	}
	return "", ErrCopyFailed
}

// commandStrategy pipes the HTML table and the TSV into external tools
// such as "wl-copy --type text/html" and "wl-copy --type text/plain". It
// succeeds only when both flavours were written.
type commandStrategy struct {
	html  []string
	plain []string
}

func (s *commandStrategy) Name() string { return "rich" }

func (s *commandStrategy) Copy(ctx context.Context, plain, rich string) error {
	if len(s.html) == 0 || len(s.plain) == 0 {
		return ErrUnavailable
	}
	if err := pipe(ctx, s.html, rich); err != nil {
		return err
	}
	return pipe(ctx, s.plain, plain)
}

func pipe(ctx context.Context, argv []string, input string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(input)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w (%s)", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

type systemStrategy struct{}

func (systemStrategy) Name() string { return "system" }

func (systemStrategy) Copy(_ context.Context, plain, _ string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboardWriteAll(plain)
}

type osc52Strategy struct {
	out *os.File
}

func (s *osc52Strategy) Name() string { return "terminal" }

func (s *osc52Strategy) Copy(_ context.Context, plain, _ string) error {
	if s.out == nil || !isatty.IsTerminal(s.out.Fd()) {
		return ErrUnavailable
	}
	_, err := osc52.New(plain).WriteTo(s.out)
	return err
}
