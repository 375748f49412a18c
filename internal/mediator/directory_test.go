package mediator_test

import (
	"context"
	"errors"
	"testing"

	"chorus/internal/logging"
	"chorus/internal/mediator"
	"chorus/internal/store"
	"chorus/internal/testsupport"
)

type stubResolver struct {
	feed *mediator.ResolvedFeed
	err  error
}

func (r *stubResolver) Resolve(ctx context.Context, feedURL string) (*mediator.ResolvedFeed, error) {
	if r.err != nil {
		return nil, r.err
	}
	feed := *r.feed
	if feed.FeedURL == "" {
		feed.FeedURL = feedURL
	}
	return &feed, nil
}

func directoryFixture(t *testing.T) (*store.Store, *store.Conn) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	pool := testsupport.MustOpenPool(t, cfg, st)
	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	t.Cleanup(conn.Release)
	return st, conn
}

func TestExpandResolvesAndLinks(t *testing.T) {
	st, conn := directoryFixture(t)
	dir := testsupport.SeedDirectoryPodcast(t, st)

	expander := &mediator.DirectoryExpander{
		Conn:     conn,
		Dir:      dir,
		Resolver: &stubResolver{feed: &mediator.ResolvedFeed{Title: "Resolved Show"}},
	}
	result, err := expander.Run(context.Background(), logging.NewNop())
	if err != nil {
		t.Fatalf("DirectoryExpander.Run failed: %v", err)
	}
	if result.Podcast == nil {
		t.Fatal("expected a podcast")
	}
	if result.Exception != nil {
		t.Fatalf("unexpected exception: %#v", result.Exception)
	}
	if result.Podcast.Title != "Resolved Show" {
		t.Fatalf("unexpected podcast: %#v", result.Podcast)
	}

	linked, err := st.DirectoryPodcastByID(context.Background(), dir.ID)
	if err != nil {
		t.Fatalf("DirectoryPodcastByID failed: %v", err)
	}
	if linked.PodcastID == nil || *linked.PodcastID != result.Podcast.ID {
		t.Fatalf("directory podcast not linked: %#v", linked)
	}
}

func TestExpandReturnsLinkedPodcast(t *testing.T) {
	st, conn := directoryFixture(t)
	dir, podcast := testsupport.SeedExpandedDirectoryPodcast(t, st)

	expander := &mediator.DirectoryExpander{
		Conn: conn,
		Dir:  dir,
		// A linked row must never hit the resolver again.
		Resolver: &stubResolver{err: errors.New("resolver must not be called")},
	}
	result, err := expander.Run(context.Background(), logging.NewNop())
	if err != nil {
		t.Fatalf("DirectoryExpander.Run failed: %v", err)
	}
	if result.Podcast == nil || result.Podcast.ID != podcast.ID {
		t.Fatalf("expected linked podcast %d, got %#v", podcast.ID, result.Podcast)
	}
}

func TestExpandReusesExistingFeed(t *testing.T) {
	st, conn := directoryFixture(t)
	existing := testsupport.SeedPodcast(t, st)
	dir := testsupport.SeedDirectoryPodcast(t, st)

	expander := &mediator.DirectoryExpander{
		Conn:     conn,
		Dir:      dir,
		Resolver: &stubResolver{feed: &mediator.ResolvedFeed{Title: "Duplicate", FeedURL: existing.FeedURL}},
	}
	result, err := expander.Run(context.Background(), logging.NewNop())
	if err != nil {
		t.Fatalf("DirectoryExpander.Run failed: %v", err)
	}
	if result.Podcast == nil || result.Podcast.ID != existing.ID {
		t.Fatalf("expected existing podcast %d, got %#v", existing.ID, result.Podcast)
	}
}

func TestExpandRecordsException(t *testing.T) {
	st, conn := directoryFixture(t)
	dir := testsupport.SeedDirectoryPodcast(t, st)

	expander := &mediator.DirectoryExpander{
		Conn:     conn,
		Dir:      dir,
		Resolver: &stubResolver{err: errors.New("fetch feed: connection refused")},
	}
	result, err := expander.Run(context.Background(), logging.NewNop())
	if err != nil {
		t.Fatalf("DirectoryExpander.Run failed: %v", err)
	}
	if result.Podcast != nil {
		t.Fatalf("unexpected podcast: %#v", result.Podcast)
	}
	if result.Exception == nil {
		t.Fatal("expected an exception row")
	}
	if result.Exception.Errors != "fetch feed: connection refused" {
		t.Fatalf("unexpected exception text: %q", result.Exception.Errors)
	}

	// Retrying overwrites the recorded failure instead of stacking rows.
	expander.Resolver = &stubResolver{err: errors.New("fetch feed: timeout")}
	retried, err := expander.Run(context.Background(), logging.NewNop())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if retried.Exception == nil || retried.Exception.ID != result.Exception.ID {
		t.Fatalf("expected exception row to be reused, got %#v", retried.Exception)
	}
	if retried.Exception.Errors != "fetch feed: timeout" {
		t.Fatalf("unexpected exception text after retry: %q", retried.Exception.Errors)
	}
}
