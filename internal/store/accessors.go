package store

import (
	"context"
	"time"
)

// Direct accessors on the shared handle. The server's request path never uses
// these; it goes through Pool-checked-out connections. They exist for the
// authenticators, the CLI, and test seeding.

// AccountByID loads an account, returning nil when the id is unknown.
func (s *Store) AccountByID(ctx context.Context, id int64) (*Account, error) {
	return accountByID(ctx, s.db, id)
}

// AccountForKeySecret resolves an API key secret to its account, returning
// nil when no key matches.
func (s *Store) AccountForKeySecret(ctx context.Context, secret string) (*Account, error) {
	return accountForKeySecret(ctx, s.db, secret)
}

// AccountForSessionSecret resolves a session secret to its account, returning
// nil when no live session matches.
func (s *Store) AccountForSessionSecret(ctx context.Context, secret string) (*Account, error) {
	return accountForSessionSecret(ctx, s.db, secret, time.Now())
}

// PodcastsAlphabetical lists podcasts ordered by title.
func (s *Store) PodcastsAlphabetical(ctx context.Context, limit int) ([]Podcast, error) {
	return podcastsAlphabetical(ctx, s.db, limit)
}

// PodcastByID loads a podcast, returning nil when the id is unknown.
func (s *Store) PodcastByID(ctx context.Context, id int64) (*Podcast, error) {
	return podcastByID(ctx, s.db, id)
}

// AccountPodcastFor loads subscription state for the pair, nil when absent.
func (s *Store) AccountPodcastFor(ctx context.Context, accountID, podcastID int64) (*AccountPodcast, error) {
	return accountPodcastFor(ctx, s.db, accountID, podcastID)
}

// ProgressFor loads listen progress for the pair, nil when absent.
func (s *Store) ProgressFor(ctx context.Context, accountPodcastID, episodeID int64) (*AccountPodcastEpisode, error) {
	return progressFor(ctx, s.db, accountPodcastID, episodeID)
}

// ProgressCountFor counts progress rows under one subscription.
func (s *Store) ProgressCountFor(ctx context.Context, accountPodcastID int64) (int64, error) {
	return progressCountFor(ctx, s.db, accountPodcastID)
}

// CreateAccount inserts an account.
func (s *Store) CreateAccount(ctx context.Context, email string, ephemeral bool) (*Account, error) {
	return insertAccount(ctx, s.db, email, ephemeral, time.Now())
}

// CreateAccountKey attaches an API key secret to an account.
func (s *Store) CreateAccountKey(ctx context.Context, accountID int64, secret string) error {
	return insertAccountKey(ctx, s.db, accountID, secret, time.Now())
}

// CreateAccountSession attaches a session secret to an account.
func (s *Store) CreateAccountSession(ctx context.Context, accountID int64, secret string, expiresAt time.Time) error {
	return insertAccountSession(ctx, s.db, accountID, secret, expiresAt)
}

// CreatePodcast inserts a catalog podcast, normalizing its language tag.
func (s *Store) CreatePodcast(ctx context.Context, ins NewPodcast) (*Podcast, error) {
	return insertPodcast(ctx, s.db, ins, time.Now())
}

// CreateEpisode inserts an episode.
func (s *Store) CreateEpisode(ctx context.Context, ins NewEpisode) (*Episode, error) {
	return insertEpisode(ctx, s.db, ins)
}

// CreateDirectoryPodcast inserts a directory search result.
func (s *Store) CreateDirectoryPodcast(ctx context.Context, ins NewDirectoryPodcast) (*DirectoryPodcast, error) {
	return insertDirectoryPodcast(ctx, s.db, ins)
}

// DirectoryPodcastByID loads a directory podcast, nil when unknown.
func (s *Store) DirectoryPodcastByID(ctx context.Context, id int64) (*DirectoryPodcast, error) {
	return directoryPodcastByID(ctx, s.db, id)
}

// DirectoryExceptionFor loads the recorded expansion failure, nil when none.
func (s *Store) DirectoryExceptionFor(ctx context.Context, directoryPodcastID int64) (*DirectoryPodcastException, error) {
	return directoryExceptionFor(ctx, s.db, directoryPodcastID)
}
