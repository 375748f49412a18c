package gql_test

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"chorus/internal/gql"
	"chorus/internal/logging"
	"chorus/internal/store"
	"chorus/internal/testsupport"
)

func execFixture(t *testing.T) (*store.Store, *gql.Exec) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	pool := testsupport.MustOpenPool(t, cfg, st)
	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	t.Cleanup(conn.Release)
	account := testsupport.SeedAccount(t, st)
	return st, &gql.Exec{Conn: conn, Account: account, Log: logging.NewNop()}
}

func run(t *testing.T, exec *gql.Exec, query string) map[string]interface{} {
	t.Helper()
	schema, err := gql.NewSchema()
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	result := gql.Execute(context.Background(), schema, exec, gql.Request{Query: query})
	if result.HasErrors() {
		t.Fatalf("unexpected execution errors: %v", result.Errors)
	}
	data, ok := result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data shape: %#v", result.Data)
	}
	return data
}

func TestAPIVersion(t *testing.T) {
	_, exec := execFixture(t)
	data := run(t, exec, "{apiVersion}")
	if data["apiVersion"] != "1.0" {
		t.Fatalf("unexpected apiVersion: %v", data["apiVersion"])
	}
}

func TestPodcastEmptyCatalogRendersEmptyArray(t *testing.T) {
	_, exec := execFixture(t)
	schema, err := gql.NewSchema()
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	result := gql.Execute(context.Background(), schema, exec, gql.Request{Query: "{podcast{id}}"})
	if result.HasErrors() {
		t.Fatalf("unexpected execution errors: %v", result.Errors)
	}
	body, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if string(body) != `{"data":{"podcast":[]}}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestPodcastAlphabeticalLimitFive(t *testing.T) {
	st, exec := execFixture(t)
	for i := 0; i < 7; i++ {
		testsupport.SeedPodcast(t, st)
	}

	data := run(t, exec, "{podcast{id title}}")
	podcasts, ok := data["podcast"].([]interface{})
	if !ok {
		t.Fatalf("unexpected podcast shape: %#v", data["podcast"])
	}
	if len(podcasts) != 5 {
		t.Fatalf("expected 5 podcasts, got %d", len(podcasts))
	}
	var prev string
	for _, raw := range podcasts {
		podcast := raw.(map[string]interface{})
		title := podcast["title"].(string)
		if prev != "" && prev > title {
			t.Fatalf("podcasts out of order: %q before %q", prev, title)
		}
		prev = title
		if _, ok := podcast["id"].(string); !ok {
			t.Fatalf("id should be a string, got %T", podcast["id"])
		}
	}
}

func TestEpisodesRecentFirst(t *testing.T) {
	st, exec := execFixture(t)
	podcast := testsupport.SeedPodcast(t, st)
	for i := 0; i < 3; i++ {
		testsupport.SeedEpisode(t, st, podcast.ID)
	}

	query := `{episode(podcastId: "` + strconv.FormatInt(podcast.ID, 10) + `"){id publishedAt}}`
	data := run(t, exec, query)
	episodes, ok := data["episode"].([]interface{})
	if !ok {
		t.Fatalf("unexpected episode shape: %#v", data["episode"])
	}
	if len(episodes) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(episodes))
	}
	var prev string
	for _, raw := range episodes {
		episode := raw.(map[string]interface{})
		published := episode["publishedAt"].(string)
		if prev != "" && prev < published {
			t.Fatal("episodes not ordered most recent first")
		}
		prev = published
	}
}

func TestEpisodesBadPodcastID(t *testing.T) {
	_, exec := execFixture(t)
	schema, err := gql.NewSchema()
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	result := gql.Execute(context.Background(), schema, exec, gql.Request{
		Query: `{episode(podcastId: "not-a-number"){id}}`,
	})
	if !result.HasErrors() {
		t.Fatal("expected execution errors")
	}
	if !strings.Contains(result.Errors[0].Message, "Error parsing podcast ID") {
		t.Fatalf("unexpected error message: %q", result.Errors[0].Message)
	}
}

func TestVariablesAndOperationName(t *testing.T) {
	st, exec := execFixture(t)
	podcast := testsupport.SeedPodcast(t, st)
	testsupport.SeedEpisode(t, st, podcast.ID)

	schema, err := gql.NewSchema()
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	result := gql.Execute(context.Background(), schema, exec, gql.Request{
		Query:         `query Episodes($id: ID!) { episode(podcastId: $id) { id } }`,
		OperationName: "Episodes",
		Variables:     map[string]interface{}{"id": strconv.FormatInt(podcast.ID, 10)},
	})
	if result.HasErrors() {
		t.Fatalf("unexpected execution errors: %v", result.Errors)
	}
}
