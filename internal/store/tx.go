package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Tx exposes the write operations mediators run inside one transaction.
type Tx struct {
	tx *sql.Tx
}

// UpsertAccountPodcast inserts or refreshes the subscribed row for the
// (account, podcast) pair. The inserted values win on conflict, so the row
// flips back to subscribed with a fresh subscribed_at and a cleared
// unsubscribed_at while keeping its id.
func (t *Tx) UpsertAccountPodcast(ctx context.Context, accountID, podcastID int64, at time.Time) (*AccountPodcast, error) {
	return upsertAccountPodcast(ctx, t.tx, accountID, podcastID, at)
}

// AccountPodcastExists reports whether a row exists for the pair.
func (t *Tx) AccountPodcastExists(ctx context.Context, accountID, podcastID int64) (bool, error) {
	return accountPodcastExists(ctx, t.tx, accountID, podcastID)
}

// MarkAccountPodcastUnsubscribed stamps unsubscribed_at, leaving
// subscribed_at untouched. Callers check existence first; the row is expected
// to be present.
func (t *Tx) MarkAccountPodcastUnsubscribed(ctx context.Context, accountID, podcastID int64, at time.Time) (*AccountPodcast, error) {
	return markAccountPodcastUnsubscribed(ctx, t.tx, accountID, podcastID, at)
}

// UpsertProgress inserts or overwrites the listen-progress row for the
// (account-podcast, episode) pair. Last write wins.
func (t *Tx) UpsertProgress(ctx context.Context, accountPodcastID, episodeID int64, listenedSeconds *int64, played bool, at time.Time) (*AccountPodcastEpisode, error) {
	return upsertProgress(ctx, t.tx, accountPodcastID, episodeID, listenedSeconds, played, at)
}

// PodcastByID loads a podcast inside the transaction, nil when unknown.
func (t *Tx) PodcastByID(ctx context.Context, id int64) (*Podcast, error) {
	return podcastByID(ctx, t.tx, id)
}

// PodcastByFeedURL loads a podcast by feed url, nil when unknown.
func (t *Tx) PodcastByFeedURL(ctx context.Context, feedURL string) (*Podcast, error) {
	row := t.tx.QueryRowContext(ctx, "SELECT "+podcastColumns+" FROM podcast WHERE feed_url = ?", feedURL)
	podcast, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load podcast by feed url: %w", err)
	}
	return podcast, nil
}

// InsertPodcast inserts a catalog podcast inside the transaction.
func (t *Tx) InsertPodcast(ctx context.Context, ins NewPodcast) (*Podcast, error) {
	return insertPodcast(ctx, t.tx, ins, time.Now())
}

// LinkDirectoryPodcast points a directory podcast at its catalog podcast.
func (t *Tx) LinkDirectoryPodcast(ctx context.Context, directoryPodcastID, podcastID int64) error {
	return linkDirectoryPodcast(ctx, t.tx, directoryPodcastID, podcastID)
}

// RecordDirectoryException stores (or refreshes) the expansion failure for a
// directory podcast.
func (t *Tx) RecordDirectoryException(ctx context.Context, directoryPodcastID int64, errorsText string, at time.Time) (*DirectoryPodcastException, error) {
	return upsertDirectoryException(ctx, t.tx, directoryPodcastID, errorsText, at)
}

// DirectoryExceptionFor loads the recorded failure inside the transaction.
func (t *Tx) DirectoryExceptionFor(ctx context.Context, directoryPodcastID int64) (*DirectoryPodcastException, error) {
	return directoryExceptionFor(ctx, t.tx, directoryPodcastID)
}
