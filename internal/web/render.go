package web

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"chorus/internal/fault"
	"chorus/internal/logging"
)

var respondJSON = jsoniter.ConfigCompatibleWithStandardLibrary

const internalErrorMessage = "Internal server error"

type errorEnvelope struct {
	Errors []errorEntry `json:"errors"`
}

type errorEntry struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) error {
	body, err := respondJSON.Marshal(payload)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return nil
}

// writeQueryError renders an error on the query interface: user-facing
// faults keep their display message and mapped status, everything else is
// logged verbosely and collapsed to a generic internal message. A failure
// while rendering the user form falls through to the internal form.
func writeQueryError(w http.ResponseWriter, log *slog.Logger, err error) {
	if fault.IsUser(err) {
		envelope := errorEnvelope{Errors: []errorEntry{{Message: fault.UserMessage(err)}}}
		if renderErr := writeJSON(w, fault.HTTPStatus(err), envelope); renderErr == nil {
			return
		}
	}
	log.Error("request failed", logging.Error(err))
	envelope := errorEnvelope{Errors: []errorEntry{{Message: internalErrorMessage}}}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	body, renderErr := respondJSON.Marshal(envelope)
	if renderErr != nil {
		return
	}
	_, _ = w.Write(body)
}

// writePageError is the HTML counterpart for page endpoints.
func writePageError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	message := internalErrorMessage
	if fault.IsUser(err) {
		status = fault.HTTPStatus(err)
		message = fault.UserMessage(err)
	} else {
		log.Error("request failed", logging.Error(err))
	}
	writeErrorPage(w, status, message)
}

func writeErrorPage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!doctype html><html><body><h1>Error</h1><p>%s</p></body></html>", html.EscapeString(message))
}
