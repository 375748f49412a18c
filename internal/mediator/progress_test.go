package mediator_test

import (
	"context"
	"testing"

	"chorus/internal/logging"
	"chorus/internal/mediator"
	"chorus/internal/store"
	"chorus/internal/testsupport"
)

func progressFixture(t *testing.T) (*store.Store, *store.Conn, *store.AccountPodcast, *store.Episode) {
	t.Helper()
	st, conn, account, podcast := subscriberFixture(t)
	episode := testsupport.SeedEpisode(t, st, podcast.ID)
	sub := runSubscriber(t, conn, account, podcast, true)
	return st, conn, sub.AccountPodcast, episode
}

func recordProgress(t *testing.T, conn *store.Conn, ap *store.AccountPodcast, episode *store.Episode, seconds *int64, played bool) *mediator.ProgressResult {
	t.Helper()
	rec := &mediator.ProgressRecorder{
		Conn:            conn,
		AccountPodcast:  ap,
		Episode:         episode,
		ListenedSeconds: seconds,
		Played:          played,
	}
	result, err := rec.Run(context.Background(), logging.NewNop())
	if err != nil {
		t.Fatalf("ProgressRecorder.Run failed: %v", err)
	}
	return result
}

func TestProgressUpsertCreatesRow(t *testing.T) {
	_, conn, ap, episode := progressFixture(t)

	seconds := int64(120)
	result := recordProgress(t, conn, ap, episode, &seconds, false)
	progress := result.Progress
	if progress == nil {
		t.Fatal("expected a progress row")
	}
	if progress.ListenedSeconds == nil || *progress.ListenedSeconds != 120 {
		t.Fatalf("unexpected listened seconds: %v", progress.ListenedSeconds)
	}
	if progress.Played {
		t.Fatal("expected played to be false")
	}
}

func TestProgressLastWriteWins(t *testing.T) {
	st, conn, ap, episode := progressFixture(t)
	ctx := context.Background()

	first := int64(30)
	initial := recordProgress(t, conn, ap, episode, &first, false)

	second := int64(450)
	updated := recordProgress(t, conn, ap, episode, &second, true)

	if initial.Progress.ID != updated.Progress.ID {
		t.Fatalf("progress row duplicated: %d vs %d", initial.Progress.ID, updated.Progress.ID)
	}
	if updated.Progress.ListenedSeconds == nil || *updated.Progress.ListenedSeconds != 450 {
		t.Fatalf("unexpected listened seconds: %v", updated.Progress.ListenedSeconds)
	}
	if !updated.Progress.Played {
		t.Fatal("expected played to flip to true")
	}

	count, err := st.ProgressCountFor(ctx, ap.ID)
	if err != nil {
		t.Fatalf("ProgressCountFor failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single progress row, got %d", count)
	}
}

func TestProgressNullSecondsOverwrites(t *testing.T) {
	_, conn, ap, episode := progressFixture(t)

	seconds := int64(90)
	recordProgress(t, conn, ap, episode, &seconds, false)
	cleared := recordProgress(t, conn, ap, episode, nil, true)

	if cleared.Progress.ListenedSeconds != nil {
		t.Fatalf("expected listened seconds cleared, got %v", *cleared.Progress.ListenedSeconds)
	}
	if !cleared.Progress.Played {
		t.Fatal("expected played to be true")
	}
}
