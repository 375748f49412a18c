package mediator

import (
	"context"
	"log/slog"
	"time"

	"chorus/internal/fault"
	"chorus/internal/logging"
	"chorus/internal/store"
)

// ResolvedFeed is the metadata a FeedResolver extracted from a podcast feed.
type ResolvedFeed struct {
	Title    string
	FeedURL  string
	ImageURL *string
	Language *string
	LinkURL  *string
}

// FeedResolver fetches and parses the feed behind a directory podcast.
// Implementations do outbound HTTP and must honor the context.
type FeedResolver interface {
	Resolve(ctx context.Context, feedURL string) (*ResolvedFeed, error)
}

// DirectoryExpander turns a directory search result into a catalog podcast.
// An already-expanded row is returned as-is. A resolver failure is recorded
// as an exception row so the page layer can surface it; retries overwrite
// the previous exception.
type DirectoryExpander struct {
	Conn     *store.Conn
	Dir      *store.DirectoryPodcast
	Resolver FeedResolver
}

// DirectoryResult carries exactly one of Podcast or Exception.
type DirectoryResult struct {
	Podcast   *store.Podcast
	Exception *store.DirectoryPodcastException
}

func (e *DirectoryExpander) Run(ctx context.Context, log *slog.Logger) (*DirectoryResult, error) {
	result := &DirectoryResult{}
	err := e.Conn.WithTx(ctx, func(tx *store.Tx) error {
		if e.Dir.PodcastID != nil {
			podcast, err := tx.PodcastByID(ctx, *e.Dir.PodcastID)
			if err != nil {
				return fault.Wrap(err, "Error loading linked podcast")
			}
			result.Podcast = podcast
			return nil
		}
		return e.expand(ctx, tx, log, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *DirectoryExpander) expand(ctx context.Context, tx *store.Tx, log *slog.Logger, result *DirectoryResult) error {
	if e.Dir.FeedURL == nil {
		return e.recordException(ctx, tx, result, "directory podcast has no feed URL")
	}
	if e.Resolver == nil {
		return e.recordException(ctx, tx, result, "no feed resolver configured")
	}

	feed, err := e.Resolver.Resolve(ctx, *e.Dir.FeedURL)
	if err != nil {
		log.Warn("feed resolution failed",
			logging.Int64("directory_podcast_id", e.Dir.ID),
			logging.Error(err))
		return e.recordException(ctx, tx, result, err.Error())
	}

	// The feed may already be in the catalog under another directory entry.
	podcast, err := tx.PodcastByFeedURL(ctx, feed.FeedURL)
	if err != nil {
		return fault.Wrap(err, "Error looking up podcast by feed URL")
	}
	if podcast == nil {
		podcast, err = tx.InsertPodcast(ctx, store.NewPodcast{
			Title:    feed.Title,
			FeedURL:  feed.FeedURL,
			ImageURL: feed.ImageURL,
			Language: feed.Language,
			LinkURL:  feed.LinkURL,
		})
		if err != nil {
			return fault.Wrap(err, "Error inserting podcast")
		}
	}
	if err := tx.LinkDirectoryPodcast(ctx, e.Dir.ID, podcast.ID); err != nil {
		return fault.Wrap(err, "Error linking directory podcast")
	}
	result.Podcast = podcast
	return nil
}

func (e *DirectoryExpander) recordException(ctx context.Context, tx *store.Tx, result *DirectoryResult, message string) error {
	exception, err := tx.RecordDirectoryException(ctx, e.Dir.ID, message, time.Now().UTC())
	if err != nil {
		return fault.Wrap(err, "Error recording directory podcast exception")
	}
	result.Exception = exception
	return nil
}
