package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/controller"
	"github.com/dzmitry-papkou/engagement/internal/export"
)

type Commander struct {
	ctrl     *controller.Controller
	config   *config.Config
	out      io.Writer
	view     export.View
	keywords []string

	// color
	green  func(a ...interface{}) string
	red    func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	blue   func(a ...interface{}) string
}

func NewCommander(ctrl *controller.Controller, cfg *config.Config, out io.Writer) *Commander {
	return &Commander{
		ctrl:     ctrl,
		config:   cfg,
		out:      out,
		view:     export.ViewWeeks,
		keywords: []string{},
		green:    color.New(color.FgGreen).SprintFunc(),
		red:      color.New(color.FgRed).SprintFunc(),
		yellow:   color.New(color.FgYellow).SprintFunc(),
		cyan:     color.New(color.FgCyan).SprintFunc(),
		blue:     color.New(color.FgBlue).SprintFunc(),
	}
}

// View is the table shown by show, sort, copy and download.
func (c *Commander) View() export.View {
	return c.view
}

// ExecuteCommand runs one panel command. It returns false once the user
// asked to quit.
func (c *Commander) ExecuteCommand(ctx context.Context, command string, args []string) bool {
	switch command {
	case "help", "h":
		c.showHelp()
	case "analyse", "analyze", "a":
		if len(args) > 0 {
			c.keywords = controller.ParseKeywords(strings.Join(args, " "))
		}
		c.Analyse(ctx, c.keywords)
	case "weeks", "w":
		c.view = export.ViewWeeks
		c.showTable(c.ctrl.Rows(c.view))
	case "senders", "s":
		c.view = export.ViewSenders
		c.showTable(c.ctrl.Rows(c.view))
	case "show":
		c.showTable(c.ctrl.Rows(c.view))
	case "sort":
		c.sortBy(strings.Join(args, " "))
	case "filter", "f":
		c.showTable(c.ctrl.Filter(c.view, strings.Join(args, " ")))
	case "copy", "c":
		c.Copy(ctx)
	case "download", "d":
		c.Download()
	case "status":
		c.showStatus()
	case "clear":
		c.clearScreen()
	case "quit", "exit", "q":
		fmt.Fprintf(c.out, "%s Goodbye!\n", c.green("✓"))
		return false
	default:
		fmt.Fprintf(c.out, "%s Unknown command: %s\n", c.red("✗"), command)
		fmt.Fprintln(c.out, "Type 'help' for available commands")
	}
	return true
}

func (c *Commander) showHelp() {
	fmt.Fprintln(c.out, c.blue("\nAvailable Commands:"))
	fmt.Fprintln(c.out, "\n"+c.cyan("Basic:"))
	fmt.Fprintln(c.out, "  help            - Show this help message")
	fmt.Fprintln(c.out, "  status          - Show the last status line")
	fmt.Fprintln(c.out, "  clear           - Clear screen")
	fmt.Fprintln(c.out, "  quit            - Exit program")

	fmt.Fprintln(c.out, "\n"+c.cyan("Analysis:"))
	fmt.Fprintln(c.out, "  analyse [kw;kw] - Analyse the Slack tab, keeping messages matching any keyword")

	fmt.Fprintln(c.out, "\n"+c.cyan("Tables:"))
	fmt.Fprintln(c.out, "  weeks / senders - Switch the selected table")
	fmt.Fprintln(c.out, "  show            - Show the selected table")
	fmt.Fprintln(c.out, "  sort <column>   - Show the selected table sorted by a column")
	fmt.Fprintln(c.out, "  filter <text>   - Show rows containing text")

	fmt.Fprintln(c.out, "\n"+c.cyan("Export:"))
	fmt.Fprintln(c.out, "  copy            - Copy the selected table to the clipboard")
	fmt.Fprintln(c.out, "  download        - Save the selected table as CSV")
}

// Analyse runs one analysis and prints the outcome and both tables.
func (c *Commander) Analyse(ctx context.Context, keywords []string) bool {
	if len(keywords) > 0 {
		fmt.Fprintf(c.out, "%s\n", c.cyan("Analysing messages matching: "+strings.Join(keywords, ", ")))
	} else {
		fmt.Fprintln(c.out, c.cyan("Analysing the current view..."))
	}

	_, err := c.ctrl.Analyse(ctx, keywords)
	status, counts := c.ctrl.Status()
	if err != nil {
		if errors.Is(err, controller.ErrBusy) {
			fmt.Fprintf(c.out, "%s %v\n", c.yellow("⚠"), err)
		} else {
			fmt.Fprintf(c.out, "%s %s\n", c.red("✗"), status)
		}
		return false
	}

	fmt.Fprintf(c.out, "%s %s\n", c.green("✓"), status)
	fmt.Fprintln(c.out, counts)

	for _, v := range []export.View{export.ViewWeeks, export.ViewSenders} {
		fmt.Fprintln(c.out, c.blue("\n"+viewTitle(v)))
		fmt.Fprintln(c.out, RenderTable(c.ctrl.Rows(v)))
	}
	return true
}

// SetView selects the table used by copy and download.
func (c *Commander) SetView(v export.View) {
	c.view = v
}

func (c *Commander) showTable(records []export.Record) {
	fmt.Fprintln(c.out, c.blue(fmt.Sprintf("\n%s (%s)", viewTitle(c.view), c.ctrl.Channel())))
	fmt.Fprintln(c.out, RenderTable(records))
}

func viewTitle(v export.View) string {
	if v == export.ViewSenders {
		return "Senders"
	}
	return "Weeks"
}

func (c *Commander) sortBy(column string) {
	if column == "" {
		fmt.Fprintf(c.out, "%s Usage: sort <column>\n", c.yellow("⚠"))
		return
	}
	sorted, err := c.ctrl.Sort(c.view, column)
	if err != nil {
		fmt.Fprintf(c.out, "%s %v\n", c.red("✗"), err)
		return
	}
	c.showTable(sorted)
}

// Copy puts the selected table on the clipboard.
func (c *Commander) Copy(ctx context.Context) bool {
	name, err := c.ctrl.Copy(ctx, c.view)
	status, _ := c.ctrl.Status()
	if err != nil {
		fmt.Fprintf(c.out, "%s %s\n", c.red("✗"), status)
		return false
	}
	fmt.Fprintf(c.out, "%s %s (%s)\n", c.green("✓"), status, name)
	return true
}

// Download saves the selected table as CSV.
func (c *Commander) Download() bool {
	_, err := c.ctrl.Download(c.view)
	status, _ := c.ctrl.Status()
	if err != nil {
		fmt.Fprintf(c.out, "%s %s\n", c.red("✗"), status)
		return false
	}
	fmt.Fprintf(c.out, "%s %s\n", c.green("✓"), status)
	return true
}

func (c *Commander) showStatus() {
	fmt.Fprintln(c.out, c.blue("\nStatus"))
	fmt.Fprintln(c.out, strings.Repeat("─", 40))

	status, counts := c.ctrl.Status()
	if status == "" {
		status = "Idle"
	}
	fmt.Fprintf(c.out, "Status:   %s\n", status)
	if counts != "" {
		fmt.Fprintf(c.out, "Counts:   %s\n", counts)
	}
	fmt.Fprintf(c.out, "Channel:  %s\n", c.cyan(c.ctrl.Channel()))
	fmt.Fprintf(c.out, "Table:    %s\n", c.view)
	if len(c.keywords) > 0 {
		fmt.Fprintf(c.out, "Keywords: %s\n", strings.Join(c.keywords, ", "))
	}
	fmt.Fprintf(c.out, "Exports:  %s\n", c.config.App.ExportPath)
}

func (c *Commander) clearScreen() {
	fmt.Fprint(c.out, "\033[H\033[2J")
	PrintWelcome(c.out)
}

// PrintWelcome prints the panel banner.
func PrintWelcome(out io.Writer) {
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintln(out, cyan("╔══════════════════════════════════════════╗"))
	fmt.Fprintln(out, cyan("║      Slack Channel Engagement Panel      ║"))
	fmt.Fprintln(out, cyan("╚══════════════════════════════════════════╝"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Type 'help' for available commands")
}
