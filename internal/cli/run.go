package cli

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/markovbot/internal/config"
	"github.com/ppiankov/markovbot/internal/markov"
	"github.com/ppiankov/markovbot/internal/privacy"
	"github.com/ppiankov/markovbot/internal/publish"
	"github.com/ppiankov/markovbot/internal/store"
)

var (
	runDryRun bool
	runSeed   int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect posts, generate a note and publish it",
	RunE:  runAction,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the note instead of posting it")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "random seed, 0 seeds from the clock")
}

func runAction(cmd *cobra.Command, _ []string) error {
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

	notes, err := newRetriever(cfg, client, log).GetAll(ctx, cfg.Accounts)
	if err != nil {
		return fmt.Errorf("retrieve posts: %w", err)
	}

	chain := markov.NewChain(cfg.Markov.Order)
	for _, n := range notes {
		if n.HasText() {
			chain.Feed(*n.Text)
		}
	}
	if chain.Len() == 0 {
		return errors.New("no posts with text to build a chain from")
	}
	log.Info().Int("posts", len(notes)).Int("texts", chain.Len()).Msg("chain built")

	text := markov.Compose(chain, newRand(), cfg.Multiplier)
	log.Info().Str("text", text).Msg("generated text")

	redactor, err := buildRedactor(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	pub := publish.New(client, publish.Options{
		Token:      cfg.PostingToken,
		Visibility: cfg.Visibility,
		CW:         cfg.CWText(),
		Disabled:   cfg.DisablePost || runDryRun,
		Redactor:   redactor,
		Out:        os.Stdout,
		Logger:     log,
	})

	if seen, err := db.CountPublished(ctx, pub.Sanitize(text)); err != nil {
		return fmt.Errorf("check history: %w", err)
	} else if seen > 0 {
		log.Warn().Int("times", seen).Msg("identical note was published before")
	}

	res, err := pub.Publish(ctx, text)
	if err != nil {
		return err
	}

	if _, err := db.RecordNote(ctx, store.NoteInput{
		NoteID:      res.NoteID,
		URL:         res.URL,
		Text:        res.Text,
		CW:          res.CW,
		Visibility:  res.Visibility,
		DryRun:      res.DryRun,
		SourcePosts: chain.Len(),
	}); err != nil {
		return fmt.Errorf("record note: %w", err)
	}

	pruned, err := db.PruneOld(ctx, cfg.Storage.RetainDays)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	if pruned > 0 {
		log.Debug().Int64("pruned", pruned).Msg("old history pruned")
	}
	return nil
}

func buildRedactor(cfg *config.Config) (*privacy.Redactor, error) {
	if !cfg.Privacy.Redact.Enabled {
		return nil, nil
	}
	r, err := privacy.NewRedactor(cfg.Privacy.Redact.Patterns)
	if err != nil {
		return nil, fmt.Errorf("compile redact patterns: %w", err)
	}
	return r, nil
}

func newRand() *rand.Rand {
	seed := runSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
