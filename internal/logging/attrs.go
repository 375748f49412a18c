package logging

import (
	"log/slog"
	"time"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the structured logging key for request correlation ids.
	FieldRequestID = "request_id"
	// FieldAccountID is the structured logging key for authenticated accounts.
	FieldAccountID = "account_id"
	// FieldStep is the structured logging key for pipeline step names.
	FieldStep = "step"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Component(name string) Attr { return slog.String(FieldComponent, name) }

func Step(name string) Attr { return slog.String(FieldStep, name) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}
