package mediator

import (
	"context"
	"log/slog"
	"time"

	"chorus/internal/fault"
	"chorus/internal/logging"
	"chorus/internal/store"
)

// ProgressRecorder writes listen progress for one (account-podcast, episode)
// pair. Conflicting writes are resolved last-write-wins on listened seconds
// and the played flag.
type ProgressRecorder struct {
	Conn            *store.Conn
	AccountPodcast  *store.AccountPodcast
	Episode         *store.Episode
	ListenedSeconds *int64
	Played          bool
}

// ProgressResult reports the progress row after the upsert.
type ProgressResult struct {
	Progress *store.AccountPodcastEpisode
}

func (r *ProgressRecorder) Run(ctx context.Context, log *slog.Logger) (*ProgressResult, error) {
	result := &ProgressResult{}
	err := r.Conn.WithTx(ctx, func(tx *store.Tx) error {
		progress, err := tx.UpsertProgress(ctx, r.AccountPodcast.ID, r.Episode.ID,
			r.ListenedSeconds, r.Played, time.Now().UTC())
		if err != nil {
			return fault.Wrap(err, "Error upserting episode progress")
		}
		result.Progress = progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("recorded episode progress",
		logging.Int64("account_podcast_id", r.AccountPodcast.ID),
		logging.Int64("episode_id", r.Episode.ID),
		logging.Bool("played", r.Played))
	return result, nil
}
