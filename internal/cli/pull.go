package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/markovbot/internal/config"
)

var pullRefresh bool

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch or refresh the cached posts of every account",
	RunE:  pullAction,
}

func init() {
	pullCmd.Flags().BoolVar(&pullRefresh, "refresh", false, "delete cached snapshots before fetching")
}

func pullAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.Log.Level)
	ctx := cmd.Context()

	client, err := newClient(cfg, log)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	retriever := newRetriever(cfg, client, log)

	total := 0
	for _, acct := range cfg.Accounts {
		if pullRefresh {
			if err := snapshotFor(cfg, acct.ID, log).Remove(); err != nil {
				return err
			}
		}

		notes, err := retriever.GetPosts(ctx, acct)
		if err != nil {
			return fmt.Errorf("retrieve posts: %w", err)
		}

		withText := 0
		for _, n := range notes {
			if n.HasText() {
				withText++
			}
		}
		total += len(notes)
		fmt.Printf("  %s: %s posts (%s with text)\n", acct.ID, humanize.Comma(int64(len(notes))), humanize.Comma(int64(withText)))
	}

	fmt.Printf("Pulled %s posts from %d accounts\n", humanize.Comma(int64(total)), len(cfg.Accounts))
	return nil
}
