package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// querier is satisfied by *sql.DB, *sql.Conn, and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	accountColumns          = "id, email, ephemeral, created_at, last_seen_at"
	podcastColumns          = "id, title, feed_url, image_url, language, link_url, created_at"
	episodeColumns          = "id, podcast_id, guid, title, description, explicit, link_url, media_url, published_at"
	directoryPodcastColumns = "id, directory, vendor_id, title, feed_url, podcast_id"
	accountPodcastColumns   = "id, account_id, podcast_id, subscribed_at, unsubscribed_at"
	progressColumns         = "id, account_podcast_id, episode_id, listened_seconds, played, updated_at"
)

func scanAccount(row rowScanner) (*Account, error) {
	var (
		a        Account
		created  string
		lastSeen sql.NullString
		eph      int64
	)
	if err := row.Scan(&a.ID, &a.Email, &eph, &created, &lastSeen); err != nil {
		return nil, err
	}
	a.Ephemeral = eph != 0
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.LastSeenAt, err = timeFromNull(lastSeen); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanPodcast(row rowScanner) (*Podcast, error) {
	var (
		p                       Podcast
		created                 string
		imageURL, lang, linkURL sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Title, &p.FeedURL, &imageURL, &lang, &linkURL, &created); err != nil {
		return nil, err
	}
	p.ImageURL = stringPtr(imageURL)
	p.Language = stringPtr(lang)
	p.LinkURL = stringPtr(linkURL)
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanEpisode(row rowScanner) (*Episode, error) {
	var (
		e             Episode
		published     string
		desc, linkURL sql.NullString
		explicit      sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.PodcastID, &e.GUID, &e.Title, &desc, &explicit, &linkURL, &e.MediaURL, &published); err != nil {
		return nil, err
	}
	e.Description = stringPtr(desc)
	e.Explicit = boolPtr(explicit)
	e.LinkURL = stringPtr(linkURL)
	var err error
	if e.PublishedAt, err = parseTime(published); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanDirectoryPodcast(row rowScanner) (*DirectoryPodcast, error) {
	var (
		dp        DirectoryPodcast
		feedURL   sql.NullString
		podcastID sql.NullInt64
	)
	if err := row.Scan(&dp.ID, &dp.Directory, &dp.VendorID, &dp.Title, &feedURL, &podcastID); err != nil {
		return nil, err
	}
	dp.FeedURL = stringPtr(feedURL)
	dp.PodcastID = int64Ptr(podcastID)
	return &dp, nil
}

func scanAccountPodcast(row rowScanner) (*AccountPodcast, error) {
	var (
		ap             AccountPodcast
		subAt, unsubAt sql.NullString
	)
	if err := row.Scan(&ap.ID, &ap.AccountID, &ap.PodcastID, &subAt, &unsubAt); err != nil {
		return nil, err
	}
	var err error
	if ap.SubscribedAt, err = timeFromNull(subAt); err != nil {
		return nil, err
	}
	if ap.UnsubscribedAt, err = timeFromNull(unsubAt); err != nil {
		return nil, err
	}
	return &ap, nil
}

func scanProgress(row rowScanner) (*AccountPodcastEpisode, error) {
	var (
		ape      AccountPodcastEpisode
		listened sql.NullInt64
		played   int64
		updated  string
	)
	if err := row.Scan(&ape.ID, &ape.AccountPodcastID, &ape.EpisodeID, &listened, &played, &updated); err != nil {
		return nil, err
	}
	ape.ListenedSeconds = int64Ptr(listened)
	ape.Played = played != 0
	var err error
	if ape.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &ape, nil
}

//
// Accounts
//

func accountByID(ctx context.Context, q querier, id int64) (*Account, error) {
	row := q.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id = ?", id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

func accountForKeySecret(ctx context.Context, q querier, secret string) (*Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT a.id, a.email, a.ephemeral, a.created_at, a.last_seen_at
         FROM account a JOIN account_key k ON k.account_id = a.id
         WHERE k.secret = ?`, secret)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account by key: %w", err)
	}
	return account, nil
}

func accountForSessionSecret(ctx context.Context, q querier, secret string, now time.Time) (*Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT a.id, a.email, a.ephemeral, a.created_at, a.last_seen_at
         FROM account a JOIN account_session s ON s.account_id = a.id
         WHERE s.secret = ? AND s.expires_at > ?`, secret, formatTime(now))
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account by session: %w", err)
	}
	return account, nil
}

//
// Catalog
//

func podcastByID(ctx context.Context, q querier, id int64) (*Podcast, error) {
	row := q.QueryRowContext(ctx, "SELECT "+podcastColumns+" FROM podcast WHERE id = ?", id)
	podcast, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load podcast: %w", err)
	}
	return podcast, nil
}

func podcastsAlphabetical(ctx context.Context, q querier, limit int) ([]Podcast, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+podcastColumns+" FROM podcast ORDER BY title ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query podcasts: %w", err)
	}
	defer rows.Close()

	podcasts := make([]Podcast, 0, limit)
	for rows.Next() {
		p, err := scanPodcast(rows)
		if err != nil {
			return nil, fmt.Errorf("scan podcast: %w", err)
		}
		podcasts = append(podcasts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate podcasts: %w", err)
	}
	return podcasts, nil
}

func episodeByID(ctx context.Context, q querier, id int64) (*Episode, error) {
	row := q.QueryRowContext(ctx, "SELECT "+episodeColumns+" FROM episode WHERE id = ?", id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load episode: %w", err)
	}
	return episode, nil
}

func episodesByPodcast(ctx context.Context, q querier, podcastID int64, limit int) ([]Episode, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+episodeColumns+" FROM episode WHERE podcast_id = ? ORDER BY published_at DESC LIMIT ?",
		podcastID, limit)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	episodes := make([]Episode, 0, limit)
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}

//
// Directory podcasts
//

func directoryPodcastByID(ctx context.Context, q querier, id int64) (*DirectoryPodcast, error) {
	row := q.QueryRowContext(ctx, "SELECT "+directoryPodcastColumns+" FROM directory_podcast WHERE id = ?", id)
	dp, err := scanDirectoryPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load directory podcast: %w", err)
	}
	return dp, nil
}

func directoryExceptionFor(ctx context.Context, q querier, directoryPodcastID int64) (*DirectoryPodcastException, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, directory_podcast_id, errors, occurred_at FROM directory_podcast_exception WHERE directory_podcast_id = ?",
		directoryPodcastID)
	var (
		ex       DirectoryPodcastException
		occurred string
	)
	err := row.Scan(&ex.ID, &ex.DirectoryPodcastID, &ex.Errors, &occurred)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load directory podcast exception: %w", err)
	}
	if ex.OccurredAt, err = parseTime(occurred); err != nil {
		return nil, err
	}
	return &ex, nil
}

//
// Subscriptions and progress
//

func accountPodcastFor(ctx context.Context, q querier, accountID, podcastID int64) (*AccountPodcast, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+accountPodcastColumns+" FROM account_podcast WHERE account_id = ? AND podcast_id = ?",
		accountID, podcastID)
	ap, err := scanAccountPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account podcast: %w", err)
	}
	return ap, nil
}

func accountPodcastExists(ctx context.Context, q querier, accountID, podcastID int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM account_podcast WHERE account_id = ? AND podcast_id = ?",
		accountID, podcastID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check account podcast existence: %w", err)
	}
	return true, nil
}

// upsertAccountPodcast inserts the subscribed row, or on conflict on the
// (account_id, podcast_id) pair overwrites both timestamps with the inserted
// values. The conflict resolution takes the new values, never a merge, so a
// resubscription clears any earlier unsubscribed_at.
func upsertAccountPodcast(ctx context.Context, q querier, accountID, podcastID int64, at time.Time) (*AccountPodcast, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO account_podcast (account_id, podcast_id, subscribed_at, unsubscribed_at)
         VALUES (?, ?, ?, NULL)
         ON CONFLICT (account_id, podcast_id) DO UPDATE SET
             subscribed_at = excluded.subscribed_at,
             unsubscribed_at = excluded.unsubscribed_at
         RETURNING `+accountPodcastColumns,
		accountID, podcastID, formatTime(at))
	return scanAccountPodcast(row)
}

func markAccountPodcastUnsubscribed(ctx context.Context, q querier, accountID, podcastID int64, at time.Time) (*AccountPodcast, error) {
	row := q.QueryRowContext(ctx,
		`UPDATE account_podcast SET unsubscribed_at = ?
         WHERE account_id = ? AND podcast_id = ?
         RETURNING `+accountPodcastColumns,
		formatTime(at), accountID, podcastID)
	return scanAccountPodcast(row)
}

// upsertProgress overwrites listened_seconds and played with the supplied
// values on conflict. Last write wins; numeric progress is never merged.
func upsertProgress(ctx context.Context, q querier, accountPodcastID, episodeID int64, listenedSeconds *int64, played bool, at time.Time) (*AccountPodcastEpisode, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO account_podcast_episode (account_podcast_id, episode_id, listened_seconds, played, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (account_podcast_id, episode_id) DO UPDATE SET
             listened_seconds = excluded.listened_seconds,
             played = excluded.played,
             updated_at = excluded.updated_at
         RETURNING `+progressColumns,
		accountPodcastID, episodeID, nullableInt64(listenedSeconds), boolToInt(played), formatTime(at))
	return scanProgress(row)
}

func progressFor(ctx context.Context, q querier, accountPodcastID, episodeID int64) (*AccountPodcastEpisode, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+progressColumns+" FROM account_podcast_episode WHERE account_podcast_id = ? AND episode_id = ?",
		accountPodcastID, episodeID)
	ape, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load listen progress: %w", err)
	}
	return ape, nil
}

func progressCountFor(ctx context.Context, q querier, accountPodcastID int64) (int64, error) {
	var count int64
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM account_podcast_episode WHERE account_podcast_id = ?",
		accountPodcastID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count listen progress rows: %w", err)
	}
	return count, nil
}

//
// Inserts
//

func insertAccount(ctx context.Context, q querier, email string, ephemeral bool, at time.Time) (*Account, error) {
	row := q.QueryRowContext(ctx,
		"INSERT INTO account (email, ephemeral, created_at) VALUES (?, ?, ?) RETURNING "+accountColumns,
		email, boolToInt(ephemeral), formatTime(at))
	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

func insertAccountKey(ctx context.Context, q querier, accountID int64, secret string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO account_key (account_id, secret, created_at) VALUES (?, ?, ?)",
		accountID, secret, formatTime(at))
	if err != nil {
		return fmt.Errorf("insert account key: %w", err)
	}
	return nil
}

func insertAccountSession(ctx context.Context, q querier, accountID int64, secret string, expiresAt time.Time) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO account_session (account_id, secret, expires_at) VALUES (?, ?, ?)",
		accountID, secret, formatTime(expiresAt))
	if err != nil {
		return fmt.Errorf("insert account session: %w", err)
	}
	return nil
}

func insertPodcast(ctx context.Context, q querier, ins NewPodcast, at time.Time) (*Podcast, error) {
	var lang any
	if ins.Language != nil {
		lang = nullableString(NormalizeLanguage(*ins.Language))
	}
	row := q.QueryRowContext(ctx,
		`INSERT INTO podcast (title, feed_url, image_url, language, link_url, created_at)
         VALUES (?, ?, ?, ?, ?, ?) RETURNING `+podcastColumns,
		ins.Title, ins.FeedURL, nullableString(ins.ImageURL), lang, nullableString(ins.LinkURL), formatTime(at))
	podcast, err := scanPodcast(row)
	if err != nil {
		return nil, fmt.Errorf("insert podcast: %w", err)
	}
	return podcast, nil
}

func insertEpisode(ctx context.Context, q querier, ins NewEpisode) (*Episode, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO episode (podcast_id, guid, title, description, explicit, link_url, media_url, published_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING `+episodeColumns,
		ins.PodcastID, ins.GUID, ins.Title, nullableString(ins.Description), nullableBool(ins.Explicit),
		nullableString(ins.LinkURL), ins.MediaURL, formatTime(ins.PublishedAt))
	episode, err := scanEpisode(row)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	return episode, nil
}

func insertDirectoryPodcast(ctx context.Context, q querier, ins NewDirectoryPodcast) (*DirectoryPodcast, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO directory_podcast (directory, vendor_id, title, feed_url, podcast_id)
         VALUES (?, ?, ?, ?, ?) RETURNING `+directoryPodcastColumns,
		ins.Directory, ins.VendorID, ins.Title, nullableString(ins.FeedURL), nullableInt64(ins.PodcastID))
	dp, err := scanDirectoryPodcast(row)
	if err != nil {
		return nil, fmt.Errorf("insert directory podcast: %w", err)
	}
	return dp, nil
}

func linkDirectoryPodcast(ctx context.Context, q querier, directoryPodcastID, podcastID int64) error {
	_, err := q.ExecContext(ctx,
		"UPDATE directory_podcast SET podcast_id = ? WHERE id = ?", podcastID, directoryPodcastID)
	if err != nil {
		return fmt.Errorf("link directory podcast: %w", err)
	}
	return nil
}

// upsertDirectoryException keeps at most one exception row per directory
// podcast; a retry overwrites the previous failure.
func upsertDirectoryException(ctx context.Context, q querier, directoryPodcastID int64, errorsText string, at time.Time) (*DirectoryPodcastException, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO directory_podcast_exception (directory_podcast_id, errors, occurred_at)
         VALUES (?, ?, ?)
         ON CONFLICT (directory_podcast_id) DO UPDATE SET
             errors = excluded.errors,
             occurred_at = excluded.occurred_at
         RETURNING id, directory_podcast_id, errors, occurred_at`,
		directoryPodcastID, errorsText, formatTime(at))
	var (
		ex       DirectoryPodcastException
		occurred string
	)
	if err := row.Scan(&ex.ID, &ex.DirectoryPodcastID, &ex.Errors, &occurred); err != nil {
		return nil, fmt.Errorf("upsert directory podcast exception: %w", err)
	}
	var err error
	if ex.OccurredAt, err = parseTime(occurred); err != nil {
		return nil, err
	}
	return &ex, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
