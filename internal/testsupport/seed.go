package testsupport

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"chorus/internal/store"
)

var seedCounter atomic.Int64

func nextSeed() int64 {
	return seedCounter.Add(1)
}

// SeedAccount inserts an account with a unique email.
func SeedAccount(t testing.TB, st *store.Store) *store.Account {
	t.Helper()
	account, err := st.CreateAccount(context.Background(), fmt.Sprintf("listener-%d@example.com", nextSeed()), false)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

// SeedPodcast inserts a podcast with a unique feed url.
func SeedPodcast(t testing.TB, st *store.Store) *store.Podcast {
	t.Helper()
	n := nextSeed()
	lang := "en-US"
	podcast, err := st.CreatePodcast(context.Background(), store.NewPodcast{
		Title:    fmt.Sprintf("Podcast %03d", n),
		FeedURL:  fmt.Sprintf("https://feeds.example.com/podcast-%d.xml", n),
		Language: &lang,
	})
	if err != nil {
		t.Fatalf("seed podcast: %v", err)
	}
	return podcast
}

// SeedEpisode inserts an episode under the given podcast.
func SeedEpisode(t testing.TB, st *store.Store, podcastID int64) *store.Episode {
	t.Helper()
	n := nextSeed()
	episode, err := st.CreateEpisode(context.Background(), store.NewEpisode{
		PodcastID:   podcastID,
		GUID:        fmt.Sprintf("guid-%d", n),
		Title:       fmt.Sprintf("Episode %03d", n),
		MediaURL:    fmt.Sprintf("https://media.example.com/episode-%d.mp3", n),
		PublishedAt: time.Now().Add(-time.Duration(n) * time.Hour),
	})
	if err != nil {
		t.Fatalf("seed episode: %v", err)
	}
	return episode
}

// SeedDirectoryPodcast inserts an unexpanded directory search result.
func SeedDirectoryPodcast(t testing.TB, st *store.Store) *store.DirectoryPodcast {
	t.Helper()
	n := nextSeed()
	feed := fmt.Sprintf("https://feeds.example.com/directory-%d.xml", n)
	dp, err := st.CreateDirectoryPodcast(context.Background(), store.NewDirectoryPodcast{
		Directory: "apple",
		VendorID:  fmt.Sprintf("vendor-%d", n),
		Title:     fmt.Sprintf("Directory Podcast %03d", n),
		FeedURL:   &feed,
	})
	if err != nil {
		t.Fatalf("seed directory podcast: %v", err)
	}
	return dp
}

// SeedExpandedDirectoryPodcast inserts a directory result already linked to a
// catalog podcast.
func SeedExpandedDirectoryPodcast(t testing.TB, st *store.Store) (*store.DirectoryPodcast, *store.Podcast) {
	t.Helper()
	podcast := SeedPodcast(t, st)
	n := nextSeed()
	dp, err := st.CreateDirectoryPodcast(context.Background(), store.NewDirectoryPodcast{
		Directory: "apple",
		VendorID:  fmt.Sprintf("vendor-%d", n),
		Title:     podcast.Title,
		FeedURL:   &podcast.FeedURL,
		PodcastID: &podcast.ID,
	})
	if err != nil {
		t.Fatalf("seed expanded directory podcast: %v", err)
	}
	return dp, podcast
}
