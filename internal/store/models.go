package store

import "time"

// Account is an authenticated principal. Cloned by value into request params
// when crossing the async/sync boundary.
type Account struct {
	ID         int64
	Email      string
	Ephemeral  bool
	CreatedAt  time.Time
	LastSeenAt *time.Time
}

// Podcast is a catalog entry, read-mostly.
type Podcast struct {
	ID        int64
	Title     string
	FeedURL   string
	ImageURL  *string
	Language  *string
	LinkURL   *string
	CreatedAt time.Time
}

// Episode belongs to a podcast, read-mostly.
type Episode struct {
	ID          int64
	PodcastID   int64
	GUID        string
	Title       string
	Description *string
	Explicit    *bool
	LinkURL     *string
	MediaURL    string
	PublishedAt time.Time
}

// DirectoryPodcast is a search result from an external podcast directory. It
// points at a catalog podcast once the feed has been expanded.
type DirectoryPodcast struct {
	ID        int64
	Directory string
	VendorID  string
	Title     string
	FeedURL   *string
	PodcastID *int64
}

// DirectoryPodcastException records a failed feed expansion for a directory
// podcast. At most one row per directory podcast; retries overwrite it.
type DirectoryPodcastException struct {
	ID                 int64
	DirectoryPodcastID int64
	Errors             string
	OccurredAt         time.Time
}

// AccountPodcast is subscription state for one (account, podcast) pair.
// At most one row per pair; the row id never changes across subscribe and
// unsubscribe transitions.
type AccountPodcast struct {
	ID             int64
	AccountID      int64
	PodcastID      int64
	SubscribedAt   *time.Time
	UnsubscribedAt *time.Time
}

// Subscribed reports whether the pair is currently in the subscribed state.
func (ap *AccountPodcast) Subscribed() bool {
	return ap != nil && ap.SubscribedAt != nil && ap.UnsubscribedAt == nil
}

// AccountPodcastEpisode is listen progress for one (account-podcast, episode)
// pair. At most one row per pair.
type AccountPodcastEpisode struct {
	ID               int64
	AccountPodcastID int64
	EpisodeID        int64
	ListenedSeconds  *int64
	Played           bool
	UpdatedAt        time.Time
}

// NewPodcast carries the fields for a podcast insert.
type NewPodcast struct {
	Title    string
	FeedURL  string
	ImageURL *string
	Language *string
	LinkURL  *string
}

// NewEpisode carries the fields for an episode insert.
type NewEpisode struct {
	PodcastID   int64
	GUID        string
	Title       string
	Description *string
	Explicit    *bool
	LinkURL     *string
	MediaURL    string
	PublishedAt time.Time
}

// NewDirectoryPodcast carries the fields for a directory podcast insert.
type NewDirectoryPodcast struct {
	Directory string
	VendorID  string
	Title     string
	FeedURL   *string
	PodcastID *int64
}
