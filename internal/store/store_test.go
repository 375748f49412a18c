package store_test

import (
	"context"
	"testing"
	"time"

	"chorus/internal/store"
	"chorus/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	podcast := testsupport.SeedPodcast(t, st)
	if podcast.ID == 0 {
		t.Fatal("expected podcast id to be assigned")
	}

	fetched, err := st.PodcastByID(context.Background(), podcast.ID)
	if err != nil {
		t.Fatalf("PodcastByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != podcast.Title {
		t.Fatalf("unexpected fetched podcast: %#v", fetched)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedPodcast(t, st)
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	podcasts, err := reopened.PodcastsAlphabetical(context.Background(), 5)
	if err != nil {
		t.Fatalf("PodcastsAlphabetical failed: %v", err)
	}
	if len(podcasts) != 1 {
		t.Fatalf("expected surviving podcast after reopen, got %d", len(podcasts))
	}
}

func TestPodcastsAlphabeticalOrdersAndLimits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	for i := 0; i < 7; i++ {
		testsupport.SeedPodcast(t, st)
	}

	podcasts, err := st.PodcastsAlphabetical(context.Background(), 5)
	if err != nil {
		t.Fatalf("PodcastsAlphabetical failed: %v", err)
	}
	if len(podcasts) != 5 {
		t.Fatalf("expected limit of 5, got %d", len(podcasts))
	}
	for i := 1; i < len(podcasts); i++ {
		if podcasts[i-1].Title > podcasts[i].Title {
			t.Fatalf("podcasts out of order: %q before %q", podcasts[i-1].Title, podcasts[i].Title)
		}
	}
}

func TestLanguageNormalizedOnInsert(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	lang := "EN-us"
	podcast, err := st.CreatePodcast(context.Background(), store.NewPodcast{
		Title:    "Tagged",
		FeedURL:  "https://feeds.example.com/tagged.xml",
		Language: &lang,
	})
	if err != nil {
		t.Fatalf("CreatePodcast failed: %v", err)
	}
	if podcast.Language == nil || *podcast.Language != "en-US" {
		t.Fatalf("expected canonical language tag, got %v", podcast.Language)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	if got := store.NormalizeLanguage(""); got != nil {
		t.Fatalf("empty tag should be nil, got %q", *got)
	}
	if got := store.NormalizeLanguage("de"); got == nil || *got != "de" {
		t.Fatalf("unexpected normalization: %v", got)
	}
	if got := store.NormalizeLanguage("not a tag"); got == nil || *got != "not a tag" {
		t.Fatalf("unparseable tags should pass through, got %v", got)
	}
}

func TestAccountLookupBySecrets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	account := testsupport.SeedAccount(t, st)
	if err := st.CreateAccountKey(ctx, account.ID, "key-secret"); err != nil {
		t.Fatalf("CreateAccountKey failed: %v", err)
	}
	if err := st.CreateAccountSession(ctx, account.ID, "session-secret", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateAccountSession failed: %v", err)
	}
	if err := st.CreateAccountSession(ctx, account.ID, "expired-secret", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("CreateAccountSession failed: %v", err)
	}

	byKey, err := st.AccountForKeySecret(ctx, "key-secret")
	if err != nil || byKey == nil || byKey.ID != account.ID {
		t.Fatalf("key lookup failed: %v %#v", err, byKey)
	}
	bySession, err := st.AccountForSessionSecret(ctx, "session-secret")
	if err != nil || bySession == nil || bySession.ID != account.ID {
		t.Fatalf("session lookup failed: %v %#v", err, bySession)
	}

	missing, err := st.AccountForKeySecret(ctx, "wrong")
	if err != nil || missing != nil {
		t.Fatalf("unknown key should yield nil, got %v %#v", err, missing)
	}
	expired, err := st.AccountForSessionSecret(ctx, "expired-secret")
	if err != nil || expired != nil {
		t.Fatalf("expired session should yield nil, got %v %#v", err, expired)
	}
}

func TestEpisodesByPodcastRecentFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	podcast := testsupport.SeedPodcast(t, st)
	for i := 0; i < 3; i++ {
		testsupport.SeedEpisode(t, st, podcast.ID)
	}

	pool := testsupport.MustOpenPool(t, cfg, st)
	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer conn.Release()

	episodes, err := conn.EpisodesByPodcast(ctx, podcast.ID, 50)
	if err != nil {
		t.Fatalf("EpisodesByPodcast failed: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(episodes))
	}
	for i := 1; i < len(episodes); i++ {
		if episodes[i-1].PublishedAt.Before(episodes[i].PublishedAt) {
			t.Fatal("episodes not ordered most recent first")
		}
	}
}
