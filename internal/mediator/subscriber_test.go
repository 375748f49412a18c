package mediator_test

import (
	"context"
	"testing"

	"chorus/internal/logging"
	"chorus/internal/mediator"
	"chorus/internal/store"
	"chorus/internal/testsupport"
)

func subscriberFixture(t *testing.T) (*store.Store, *store.Conn, *store.Account, *store.Podcast) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	pool := testsupport.MustOpenPool(t, cfg, st)
	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	t.Cleanup(conn.Release)
	return st, conn, testsupport.SeedAccount(t, st), testsupport.SeedPodcast(t, st)
}

func runSubscriber(t *testing.T, conn *store.Conn, account *store.Account, podcast *store.Podcast, subscribed bool) *mediator.SubscriberResult {
	t.Helper()
	sub := &mediator.Subscriber{Conn: conn, Account: account, Podcast: podcast, Subscribed: subscribed}
	result, err := sub.Run(context.Background(), logging.NewNop())
	if err != nil {
		t.Fatalf("Subscriber.Run failed: %v", err)
	}
	return result
}

func TestSubscribeCreatesRow(t *testing.T) {
	_, conn, account, podcast := subscriberFixture(t)

	result := runSubscriber(t, conn, account, podcast, true)
	ap := result.AccountPodcast
	if ap == nil {
		t.Fatal("expected an account podcast row")
	}
	if !ap.Subscribed() {
		t.Fatalf("expected subscribed state, got %#v", ap)
	}
	if ap.AccountID != account.ID || ap.PodcastID != podcast.ID {
		t.Fatalf("row bound to wrong pair: %#v", ap)
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	st, conn, account, podcast := subscriberFixture(t)

	first := runSubscriber(t, conn, account, podcast, true)
	second := runSubscriber(t, conn, account, podcast, true)

	if first.AccountPodcast.ID != second.AccountPodcast.ID {
		t.Fatalf("row id changed across repeat subscribes: %d vs %d",
			first.AccountPodcast.ID, second.AccountPodcast.ID)
	}

	ap, err := st.AccountPodcastFor(context.Background(), account.ID, podcast.ID)
	if err != nil {
		t.Fatalf("AccountPodcastFor failed: %v", err)
	}
	if !ap.Subscribed() {
		t.Fatalf("expected subscribed state, got %#v", ap)
	}
}

func TestRowIDStableAcrossResubscribe(t *testing.T) {
	_, conn, account, podcast := subscriberFixture(t)

	first := runSubscriber(t, conn, account, podcast, true)
	unsubbed := runSubscriber(t, conn, account, podcast, false)
	resubbed := runSubscriber(t, conn, account, podcast, true)

	if unsubbed.AccountPodcast == nil || unsubbed.AccountPodcast.ID != first.AccountPodcast.ID {
		t.Fatalf("unsubscribe touched a different row: %#v", unsubbed.AccountPodcast)
	}
	if unsubbed.AccountPodcast.Subscribed() {
		t.Fatal("expected unsubscribed state after unsubscribe")
	}
	if unsubbed.AccountPodcast.SubscribedAt == nil {
		t.Fatal("unsubscribe must leave subscribed_at in place")
	}
	if resubbed.AccountPodcast.ID != first.AccountPodcast.ID {
		t.Fatalf("row id changed across resubscribe: %d vs %d",
			first.AccountPodcast.ID, resubbed.AccountPodcast.ID)
	}
	if !resubbed.AccountPodcast.Subscribed() {
		t.Fatal("expected subscribed state after resubscribe")
	}
}

func TestUnsubscribeWithoutRowIsNoOp(t *testing.T) {
	st, conn, account, podcast := subscriberFixture(t)

	result := runSubscriber(t, conn, account, podcast, false)
	if result.AccountPodcast != nil {
		t.Fatalf("expected nil result, got %#v", result.AccountPodcast)
	}

	ap, err := st.AccountPodcastFor(context.Background(), account.ID, podcast.ID)
	if err != nil {
		t.Fatalf("AccountPodcastFor failed: %v", err)
	}
	if ap != nil {
		t.Fatalf("unsubscribe must not create a row, found %#v", ap)
	}
}
