package cli

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ppiankov/markovbot/internal/cache"
	"github.com/ppiankov/markovbot/internal/config"
	"github.com/ppiankov/markovbot/internal/misskey"
	"github.com/ppiankov/markovbot/internal/posts"
)

// newClient builds the API client. Tests replace it to point at a local server.
var newClient = func(cfg *config.Config, log zerolog.Logger) (*misskey.Client, error) {
	return misskey.NewClient(cfg.Instance,
		misskey.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout.Duration}),
		misskey.WithUserAgent("markovbot/"+Version),
		misskey.WithLogger(log),
	)
}

func snapshotFor(cfg *config.Config, accountID string, log zerolog.Logger) *cache.Store {
	return cache.New(
		cache.PathFor(cfg.Cache.Path, accountID),
		cache.WithMaxAge(cfg.Cache.MaxAge.Duration),
		cache.WithLogger(log),
	)
}

func newRetriever(cfg *config.Config, client *misskey.Client, log zerolog.Logger) *posts.Retriever {
	return posts.NewRetriever(client, func(accountID string) posts.Snapshot {
		return snapshotFor(cfg, accountID, log)
	}, log)
}
