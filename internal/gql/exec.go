package gql

import (
	"context"
	"log/slog"

	"github.com/graphql-go/graphql"

	"chorus/internal/logging"
	"chorus/internal/store"
)

type contextKey int

const execKey contextKey = 0

// Exec carries the per-message execution state resolvers read from: the
// worker's exclusive connection, the authenticated account, and the
// request-scoped logger.
type Exec struct {
	Conn    *store.Conn
	Account *store.Account
	Log     *slog.Logger
}

func withExec(ctx context.Context, exec *Exec) context.Context {
	return context.WithValue(ctx, execKey, exec)
}

func execFrom(ctx context.Context) *Exec {
	if exec, ok := ctx.Value(execKey).(*Exec); ok {
		return exec
	}
	return &Exec{Log: logging.NewNop()}
}

// Request is one parsed query-interface request.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]interface{}
}

// Execute runs the request against the schema on the given execution state.
// The result always marshals to the wire shape; callers decide the transport
// status from HasErrors.
func Execute(ctx context.Context, schema graphql.Schema, exec *Exec, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        withExec(ctx, exec),
	})
}
