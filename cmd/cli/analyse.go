package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dzmitry-papkou/engagement/internal/cli"
	"github.com/dzmitry-papkou/engagement/internal/config"
	"github.com/dzmitry-papkou/engagement/internal/controller"
	"github.com/dzmitry-papkou/engagement/internal/export"
)

var (
	analyseKeywords string
	analyseFile     string
	analyseAgent    string
	analyseView     string
	analyseCopy     bool
	analyseDownload bool
)

var errAnalyseFailed = errors.New("analysis failed")

var analyseCmd = &cobra.Command{
	Use:   "analyse",
	Short: "Analyse once, print both tables, optionally copy or save one",
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := export.ParseView(analyseView)
		if err != nil {
			return err
		}

		cfg := config.Get()
		ctrl, err := newController(cfg, analyseFile, analyseAgent)
		if err != nil {
			return err
		}

		commander := cli.NewCommander(ctrl, cfg, os.Stdout)
		commander.SetView(view)
		if !commander.Analyse(cmd.Context(), controller.ParseKeywords(analyseKeywords)) {
			return errAnalyseFailed
		}
		if analyseCopy {
			commander.Copy(cmd.Context())
		}
		if analyseDownload && !commander.Download() {
			return errors.New("download failed")
		}
		return nil
	},
}

func init() {
	analyseCmd.Flags().StringVarP(&analyseKeywords, "keywords", "k", "", "Keep messages containing any keyword (separated by ; or ,)")
	analyseCmd.Flags().StringVar(&analyseFile, "file", "", "Analyse a saved HTML page instead of the browser tab")
	analyseCmd.Flags().StringVar(&analyseAgent, "agent", "", "URL of an agent started with 'engagement serve'")
	analyseCmd.Flags().StringVar(&analyseView, "view", "weeks", "Table for --copy and --download (weeks or senders)")
	analyseCmd.Flags().BoolVar(&analyseCopy, "copy", false, "Copy the selected table to the clipboard")
	analyseCmd.Flags().BoolVar(&analyseDownload, "download", false, "Save the selected table as CSV")
}
