package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"chorus/internal/executor"
	"chorus/internal/fault"
	"chorus/internal/gql"
	"chorus/internal/store"
)

//go:embed graphiql.html
var graphiqlPage []byte

// graphQLParams is the owned, prevalidated input that crosses to a worker.
type graphQLParams struct {
	Account store.Account
	Request gql.Request
}

type graphQLBody struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	account, log, ok := s.withAccount(w, r, true)
	if !ok {
		return
	}

	var req gql.Request
	var err error
	switch r.Method {
	case http.MethodGet:
		req, err = graphQLRequestFromQuery(r)
	case http.MethodPost:
		req, err = graphQLRequestFromBody(r)
	default:
		writeQueryError(w, log, fault.BadRequest("Method not allowed"))
		return
	}
	if err != nil {
		writeQueryError(w, log, err)
		return
	}

	params := graphQLParams{Account: *account, Request: req}
	result, err := executor.Submit(r.Context(), s.workers, executor.NewMessage(log, params),
		func(ctx context.Context, conn *store.Conn, msg executor.Message[graphQLParams]) (*executionResponse, error) {
			return s.executeQuery(ctx, conn, msg.Log, msg.Params)
		})
	if err != nil {
		writeQueryError(w, log, err)
		return
	}

	status := http.StatusOK
	if !result.OK {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(result.JSON)
}

// executionResponse carries the serialized result back across the boundary.
// OK distinguishes a clean execution from one that completed with errors;
// the body is identical in shape either way.
type executionResponse struct {
	JSON []byte
	OK   bool
}

func (s *Server) executeQuery(ctx context.Context, conn *store.Conn, log *slog.Logger, params graphQLParams) (*executionResponse, error) {
	exec := &gql.Exec{Conn: conn, Account: &params.Account, Log: log}
	result := gql.Execute(ctx, s.schema, exec, params.Request)
	body, err := respondJSON.Marshal(result)
	if err != nil {
		return nil, fault.Wrap(err, "Error serializing execution result")
	}
	return &executionResponse{JSON: body, OK: !result.HasErrors()}, nil
}

func graphQLRequestFromQuery(r *http.Request) (gql.Request, error) {
	values := r.URL.Query()
	query := values.Get("query")
	if query == "" {
		return gql.Request{}, fault.BadRequest("No query provided")
	}
	req := gql.Request{
		Query:         query,
		OperationName: values.Get("operationName"),
	}
	if raw := values.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return gql.Request{}, fault.BadRequest("Malformed variables JSON: %v", err)
		}
	}
	return req, nil
}

// graphQLRequestFromBody decodes a POST body with the standard decoder; its
// diagnostics are part of the endpoint's error contract.
func graphQLRequestFromBody(r *http.Request) (gql.Request, error) {
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return gql.Request{}, fault.BadRequest("Error reading request body: %v", err)
	}
	var body graphQLBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return gql.Request{}, fault.BadRequest("Error deserializing request body: %v", err)
	}
	if body.Query == "" {
		return gql.Request{}, fault.BadRequest("No query provided")
	}
	return gql.Request{
		Query:         body.Query,
		OperationName: body.OperationName,
		Variables:     body.Variables,
	}, nil
}

// handleGraphiQL serves the development query console. No auth, no params.
func (s *Server) handleGraphiQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(graphiqlPage)
}
