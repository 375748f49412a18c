// Package mediator holds the transactional write paths. Each mediator runs
// its whole operation inside a single transaction on a pool connection and
// is safe to replay: reruns converge on the same row instead of duplicating
// state.
package mediator

import (
	"context"
	"log/slog"
	"time"

	"chorus/internal/fault"
	"chorus/internal/logging"
	"chorus/internal/store"
)

// Subscriber moves an (account, podcast) pair into or out of the subscribed
// state. The pair's row id is stable across subscribe and unsubscribe cycles.
type Subscriber struct {
	Conn       *store.Conn
	Account    *store.Account
	Podcast    *store.Podcast
	Subscribed bool
}

// SubscriberResult reports the row after the transition. AccountPodcast is
// nil when an unsubscribe found no row to touch.
type SubscriberResult struct {
	AccountPodcast *store.AccountPodcast
}

func (s *Subscriber) Run(ctx context.Context, log *slog.Logger) (*SubscriberResult, error) {
	result := &SubscriberResult{}
	err := s.Conn.WithTx(ctx, func(tx *store.Tx) error {
		if s.Subscribed {
			return s.subscribe(ctx, tx, result)
		}
		return s.unsubscribe(ctx, tx, log, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Subscriber) subscribe(ctx context.Context, tx *store.Tx, result *SubscriberResult) error {
	ap, err := tx.UpsertAccountPodcast(ctx, s.Account.ID, s.Podcast.ID, time.Now().UTC())
	if err != nil {
		return fault.Wrap(err, "Error upserting account podcast")
	}
	result.AccountPodcast = ap
	return nil
}

func (s *Subscriber) unsubscribe(ctx context.Context, tx *store.Tx, log *slog.Logger, result *SubscriberResult) error {
	exists, err := tx.AccountPodcastExists(ctx, s.Account.ID, s.Podcast.ID)
	if err != nil {
		return fault.Wrap(err, "Error checking for existing account podcast")
	}
	if !exists {
		// Unsubscribing from a podcast the account never touched must not
		// create a row.
		log.Debug("no subscription row to unsubscribe",
			logging.Int64("account_id", s.Account.ID),
			logging.Int64("podcast_id", s.Podcast.ID))
		return nil
	}
	ap, err := tx.MarkAccountPodcastUnsubscribed(ctx, s.Account.ID, s.Podcast.ID, time.Now().UTC())
	if err != nil {
		return fault.Wrap(err, "Error marking account podcast unsubscribed")
	}
	result.AccountPodcast = ap
	return nil
}
