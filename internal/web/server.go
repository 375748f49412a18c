// Package web is the asynchronous network-facing layer. Handlers run on
// request goroutines, build plain params, and submit messages to the worker
// pool; no database work happens on this side except authentication lookups.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"chorus/internal/config"
	"chorus/internal/executor"
	"chorus/internal/logging"
	"chorus/internal/mediator"
	"chorus/internal/request"
	"chorus/internal/store"
)

// Server serves the query interface, the page endpoints, and the JSON API.
type Server struct {
	bind     string
	logger   *slog.Logger
	schema   graphql.Schema
	workers  *executor.Pool
	auth     []Authenticator
	resolver mediator.FeedResolver

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// Options carries the collaborators a Server needs beyond config.
type Options struct {
	Schema   graphql.Schema
	Workers  *executor.Pool
	Auth     []Authenticator
	Resolver mediator.FeedResolver
}

// NewServer wires the route table. Call Start to begin listening.
func NewServer(cfg *config.Config, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		bind:     strings.TrimSpace(cfg.Server.Bind),
		logger:   logger.With(logging.Component("web")),
		schema:   opts.Schema,
		workers:  opts.Workers,
		auth:     opts.Auth,
		resolver: opts.Resolver,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", s.handleGraphQL)
	mux.HandleFunc("/graphiql", s.handleGraphiQL)
	mux.HandleFunc("/directory-podcasts/", s.handleDirectoryPodcast)
	mux.HandleFunc("/api/podcasts/", s.handleSubscription)
	mux.HandleFunc("/api/episodes/", s.handleProgress)

	s.handler = s.requestLog(mux)
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the route table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, letting in-flight requests drain.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound address once Start has returned.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// requestLog stamps every request with an id and a request-scoped logger.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		ctx := request.WithRequestID(r.Context(), id)
		log := s.logger.With(logging.String(logging.FieldRequestID, id))
		ctx = request.WithLogger(ctx, log)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		log.Debug("request handled",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(start)))
	})
}

// withAccount authenticates the request before the handler runs. Failures
// never reach the worker pool.
func (s *Server) withAccount(w http.ResponseWriter, r *http.Request, json bool) (*store.Account, *slog.Logger, bool) {
	log := request.LoggerFromContext(r.Context())
	if log == nil {
		log = s.logger
	}
	account, err := authenticate(r, s.auth)
	if err != nil {
		if json {
			writeQueryError(w, log, err)
		} else {
			writePageError(w, log, err)
		}
		return nil, nil, false
	}
	log = log.With(logging.Int64(logging.FieldAccountID, account.ID))
	return account, log, true
}

// pathID extracts the numeric id segment after prefix, optionally requiring
// a trailing suffix segment.
func pathID(path, prefix, suffix string) (string, bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path {
		return "", false
	}
	if suffix != "" {
		if !strings.HasSuffix(rest, suffix) {
			return "", false
		}
		rest = strings.TrimSuffix(rest, suffix)
	}
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
