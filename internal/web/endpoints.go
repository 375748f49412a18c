package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"chorus/internal/executor"
	"chorus/internal/fault"
	"chorus/internal/mediator"
	"chorus/internal/store"
)

type directoryParams struct {
	Account store.Account
	ID      int64
}

// handleDirectoryPodcast expands a directory search result into a catalog
// podcast and redirects to it. An expansion that recorded an exception
// renders as an internal error page.
func (s *Server) handleDirectoryPodcast(w http.ResponseWriter, r *http.Request) {
	account, log, ok := s.withAccount(w, r, false)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idStr, ok := pathID(r.URL.Path, "/directory-podcasts/", "")
	if !ok {
		writePageError(w, log, fault.NotFoundGeneral("directory podcast not found"))
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writePageError(w, log, fault.BadParameter("id", "must be an integer"))
		return
	}

	params := directoryParams{Account: *account, ID: id}
	result, err := executor.Submit(r.Context(), s.workers, executor.NewMessage(log, params),
		func(ctx context.Context, conn *store.Conn, msg executor.Message[directoryParams]) (*mediator.DirectoryResult, error) {
			dir, err := conn.DirectoryPodcastByID(ctx, msg.Params.ID)
			if err != nil {
				return nil, fault.Wrap(err, "Error loading directory podcast")
			}
			if dir == nil {
				return nil, fault.NotFound("directory podcast", msg.Params.ID)
			}
			expander := &mediator.DirectoryExpander{Conn: conn, Dir: dir, Resolver: s.resolver}
			return expander.Run(ctx, msg.Log)
		})
	if err != nil {
		writePageError(w, log, err)
		return
	}
	if result.Exception != nil {
		writePageError(w, log, fmt.Errorf("directory podcast expansion failed: %s", result.Exception.Errors))
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/podcasts/%d", result.Podcast.ID))
	w.WriteHeader(http.StatusPermanentRedirect)
}

type subscriptionParams struct {
	Account    store.Account
	PodcastID  int64
	Subscribed bool
}

type subscriptionBody struct {
	Subscribed bool `json:"subscribed"`
}

type subscriptionView struct {
	PodcastID      string  `json:"podcastId"`
	Subscribed     bool    `json:"subscribed"`
	SubscribedAt   *string `json:"subscribedAt"`
	UnsubscribedAt *string `json:"unsubscribedAt"`
}

// handleSubscription flips the caller's subscription state for a podcast.
func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	account, log, ok := s.withAccount(w, r, true)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeQueryError(w, log, fault.BadRequest("Method not allowed"))
		return
	}
	idStr, ok := pathID(r.URL.Path, "/api/podcasts/", "/subscription")
	if !ok {
		writeQueryError(w, log, fault.NotFoundGeneral("no such endpoint"))
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeQueryError(w, log, fault.BadParameter("id", "must be an integer"))
		return
	}
	var body subscriptionBody
	if err := decodeBody(r, &body); err != nil {
		writeQueryError(w, log, err)
		return
	}

	params := subscriptionParams{Account: *account, PodcastID: id, Subscribed: body.Subscribed}
	result, err := executor.Submit(r.Context(), s.workers, executor.NewMessage(log, params),
		func(ctx context.Context, conn *store.Conn, msg executor.Message[subscriptionParams]) (*subscriptionView, error) {
			podcast, err := conn.PodcastByID(ctx, msg.Params.PodcastID)
			if err != nil {
				return nil, fault.Wrap(err, "Error loading podcast")
			}
			if podcast == nil {
				return nil, fault.NotFound("podcast", msg.Params.PodcastID)
			}
			sub := &mediator.Subscriber{
				Conn:       conn,
				Account:    &msg.Params.Account,
				Podcast:    podcast,
				Subscribed: msg.Params.Subscribed,
			}
			mediated, err := sub.Run(ctx, msg.Log)
			if err != nil {
				return nil, err
			}
			return subscriptionToView(msg.Params.PodcastID, mediated.AccountPodcast), nil
		})
	if err != nil {
		writeQueryError(w, log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result); err != nil {
		writeQueryError(w, log, err)
	}
}

func subscriptionToView(podcastID int64, ap *store.AccountPodcast) *subscriptionView {
	view := &subscriptionView{PodcastID: strconv.FormatInt(podcastID, 10)}
	if ap == nil {
		return view
	}
	view.Subscribed = ap.Subscribed()
	view.SubscribedAt = formatTimePtr(ap.SubscribedAt)
	view.UnsubscribedAt = formatTimePtr(ap.UnsubscribedAt)
	return view
}

type progressParams struct {
	Account         store.Account
	EpisodeID       int64
	ListenedSeconds *int64
	Played          bool
}

type progressBody struct {
	ListenedSeconds *int64 `json:"listened_seconds"`
	Played          bool   `json:"played"`
}

type progressView struct {
	EpisodeID       string `json:"episodeId"`
	ListenedSeconds *int64 `json:"listenedSeconds"`
	Played          bool   `json:"played"`
	UpdatedAt       string `json:"updatedAt"`
}

// handleProgress records listen progress for an episode of a podcast the
// caller is subscribed to.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	account, log, ok := s.withAccount(w, r, true)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeQueryError(w, log, fault.BadRequest("Method not allowed"))
		return
	}
	idStr, ok := pathID(r.URL.Path, "/api/episodes/", "/progress")
	if !ok {
		writeQueryError(w, log, fault.NotFoundGeneral("no such endpoint"))
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeQueryError(w, log, fault.BadParameter("id", "must be an integer"))
		return
	}
	var body progressBody
	if err := decodeBody(r, &body); err != nil {
		writeQueryError(w, log, err)
		return
	}
	if body.ListenedSeconds != nil && *body.ListenedSeconds < 0 {
		writeQueryError(w, log, fault.BadParameter("listened_seconds", "must not be negative"))
		return
	}

	params := progressParams{
		Account:         *account,
		EpisodeID:       id,
		ListenedSeconds: body.ListenedSeconds,
		Played:          body.Played,
	}
	result, err := executor.Submit(r.Context(), s.workers, executor.NewMessage(log, params),
		func(ctx context.Context, conn *store.Conn, msg executor.Message[progressParams]) (*progressView, error) {
			episode, err := conn.EpisodeByID(ctx, msg.Params.EpisodeID)
			if err != nil {
				return nil, fault.Wrap(err, "Error loading episode")
			}
			if episode == nil {
				return nil, fault.NotFound("episode", msg.Params.EpisodeID)
			}
			ap, err := conn.AccountPodcastFor(ctx, msg.Params.Account.ID, episode.PodcastID)
			if err != nil {
				return nil, fault.Wrap(err, "Error loading account podcast")
			}
			if ap == nil {
				return nil, fault.NotFoundGeneral("no subscription for podcast %d", episode.PodcastID)
			}
			rec := &mediator.ProgressRecorder{
				Conn:            conn,
				AccountPodcast:  ap,
				Episode:         episode,
				ListenedSeconds: msg.Params.ListenedSeconds,
				Played:          msg.Params.Played,
			}
			mediated, err := rec.Run(ctx, msg.Log)
			if err != nil {
				return nil, err
			}
			progress := mediated.Progress
			return &progressView{
				EpisodeID:       strconv.FormatInt(progress.EpisodeID, 10),
				ListenedSeconds: progress.ListenedSeconds,
				Played:          progress.Played,
				UpdatedAt:       progress.UpdatedAt.UTC().Format(time.RFC3339),
			}, nil
		})
	if err != nil {
		writeQueryError(w, log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result); err != nil {
		writeQueryError(w, log, err)
	}
}

// decodeBody reads a JSON request body with the standard decoder; its
// diagnostics are part of the error contract.
func decodeBody(r *http.Request, dest any) error {
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fault.BadRequest("Error reading request body: %v", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fault.BadRequest("Error deserializing request body: %v", err)
	}
	return nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
