// Package gql declares the query schema and executes requests against a
// worker's checked-out connection.
package gql

import (
	"strconv"
	"time"

	"github.com/graphql-go/graphql"

	"chorus/internal/fault"
	"chorus/internal/store"
)

const apiVersion = "1.0"

// List limits keep a single query from monopolizing a worker connection.
const (
	podcastLimit = 5
	episodeLimit = 50
)

type podcastView struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	FeedURL  string  `json:"feedUrl"`
	ImageURL *string `json:"imageUrl"`
	Language *string `json:"language"`
	LinkURL  *string `json:"linkUrl"`
}

type episodeView struct {
	ID          string  `json:"id"`
	PodcastID   string  `json:"podcastId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	MediaURL    string  `json:"mediaUrl"`
	LinkURL     *string `json:"linkUrl"`
	PublishedAt string  `json:"publishedAt"`
}

func podcastToView(p store.Podcast) podcastView {
	return podcastView{
		ID:       strconv.FormatInt(p.ID, 10),
		Title:    p.Title,
		FeedURL:  p.FeedURL,
		ImageURL: p.ImageURL,
		Language: p.Language,
		LinkURL:  p.LinkURL,
	}
}

func episodeToView(e store.Episode) episodeView {
	return episodeView{
		ID:          strconv.FormatInt(e.ID, 10),
		PodcastID:   strconv.FormatInt(e.PodcastID, 10),
		Title:       e.Title,
		Description: e.Description,
		MediaURL:    e.MediaURL,
		LinkURL:     e.LinkURL,
		PublishedAt: e.PublishedAt.UTC().Format(time.RFC3339),
	}
}

// NewSchema builds the query schema. Ids are 64-bit integers exposed as
// strings.
func NewSchema() (graphql.Schema, error) {
	podcastType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Podcast",
		Description: "A podcast in the catalog.",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"feedUrl":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"imageUrl": &graphql.Field{Type: graphql.String},
			"language": &graphql.Field{Type: graphql.String},
			"linkUrl":  &graphql.Field{Type: graphql.String},
		},
	})

	episodeType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Episode",
		Description: "An episode of a podcast.",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"podcastId":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"mediaUrl":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"linkUrl":     &graphql.Field{Type: graphql.String},
			"publishedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"apiVersion": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "The version of the API.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return apiVersion, nil
				},
			},
			"podcast": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(podcastType))),
				Description: "Podcasts in the catalog, alphabetical by title.",
				Resolve:     resolvePodcasts,
			},
			"episode": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(episodeType))),
				Description: "Episodes of one podcast, most recent first.",
				Args: graphql.FieldConfigArgument{
					"podcastId": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.ID),
						Description: "The id of the podcast to fetch episodes for.",
					},
				},
				Resolve: resolveEpisodes,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

func resolvePodcasts(p graphql.ResolveParams) (interface{}, error) {
	exec := execFrom(p.Context)
	podcasts, err := exec.Conn.PodcastsAlphabetical(p.Context, podcastLimit)
	if err != nil {
		return nil, fault.Wrap(err, "Error loading podcasts from the database")
	}
	views := make([]podcastView, 0, len(podcasts))
	for _, podcast := range podcasts {
		views = append(views, podcastToView(podcast))
	}
	return views, nil
}

func resolveEpisodes(p graphql.ResolveParams) (interface{}, error) {
	exec := execFrom(p.Context)
	raw, _ := p.Args["podcastId"].(string)
	podcastID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fault.Wrap(err, "Error parsing podcast ID")
	}
	episodes, err := exec.Conn.EpisodesByPodcast(p.Context, podcastID, episodeLimit)
	if err != nil {
		return nil, fault.Wrap(err, "Error loading episodes from the database")
	}
	views := make([]episodeView, 0, len(episodes))
	for _, episode := range episodes {
		views = append(views, episodeToView(episode))
	}
	return views, nil
}
