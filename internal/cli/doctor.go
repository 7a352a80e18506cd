package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ppiankov/markovbot/internal/config"
	"github.com/ppiankov/markovbot/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, cached snapshots and history",
	RunE:  doctorAction,
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "%s: %v", config.DefaultConfigFile, err)
		return fmt.Errorf("some checks failed")
	}
	mode := "posting"
	if cfg.DisablePost {
		mode = "dry run"
	}
	printCheck(true, "%s (%s, %d accounts, %s)", config.DefaultConfigFile, cfg.Instance, len(cfg.Accounts), mode)

	// Snapshots
	now := time.Now()
	for _, acct := range cfg.Accounts {
		snap := snapshotFor(cfg, acct.ID, zerolog.Nop())
		age, found, err := snap.Age()
		switch {
		case err != nil:
			printCheck(false, "cache %s: %v", snap.Path(), err)
			ok = false
		case !found:
			printInfo("cache %s: none yet, next run fetches %s", snap.Path(), acct.ID)
		case age > snap.MaxAge():
			printInfo("cache %s: stale (%s), next run refetches", snap.Path(), humanize.RelTime(now.Add(-age), now, "old", ""))
		default:
			printCheck(true, "cache %s (%s)", snap.Path(), humanize.RelTime(now.Add(-age), now, "old", ""))
		}
	}

	// Database
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		printCheck(false, "database: %v", err)
		ok = false
	} else {
		defer func() { _ = db.Close() }()
		printCheck(true, "database %s", cfg.Storage.Path)
		checkLastNote(cmd.Context(), db)
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func checkLastNote(ctx context.Context, db *store.Store) {
	if ctx == nil {
		ctx = context.Background()
	}
	notes, err := db.ListNotes(ctx, time.Time{}, 1)
	if err != nil || len(notes) == 0 {
		return
	}
	last := notes[0]
	kind := "published"
	if last.DryRun {
		kind = "dry run"
	}
	printInfo("last note: %s %s", kind, humanize.Time(last.CreatedAt))
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
