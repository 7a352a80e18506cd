package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/markovbot/internal/config"
	"github.com/ppiankov/markovbot/internal/report"
	"github.com/ppiankov/markovbot/internal/store"
)

var (
	historySince  string
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List generated notes",
	RunE:  historyAction,
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "", "time window (e.g. 168h), empty for all time")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum notes to show, 0 for no limit")
	historyCmd.Flags().StringVar(&historyFormat, "format", "terminal", "output format: terminal, json, markdown")
}

func historyAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var sinceDur time.Duration
	if historySince != "" {
		sinceDur, err = time.ParseDuration(historySince)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
	}

	var formatter report.Formatter
	switch historyFormat {
	case "", "terminal":
		formatter = report.NewTerminal(useColor())
	case "json":
		formatter = report.NewJSON()
	case "markdown":
		formatter = report.NewMarkdown()
	default:
		return fmt.Errorf("unknown format %q (use terminal, json, markdown)", historyFormat)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	now := time.Now()
	var since time.Time
	if sinceDur > 0 {
		since = now.Add(-sinceDur)
	}

	notes, err := db.ListNotes(cmd.Context(), since, historyLimit)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	return formatter.Format(os.Stdout, report.Input{
		Notes: notes,
		Since: sinceDur,
		Now:   now,
	})
}
