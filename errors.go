/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Seednode/secretsanta/groups"
	"github.com/Seednode/secretsanta/pairing"
)

// logf writes a debug line; it only shows with --verbose or LOG_LEVEL=debug.
func logf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...))
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusFor(err error) int {
	var verr *pairing.ValidationError

	switch {
	case errors.As(err, &verr):
		if verr.Reason == pairing.DuplicateName {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case errors.Is(err, groups.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, groups.ErrAlreadyStarted), errors.Is(err, groups.ErrInsufficientMembers):
		return http.StatusConflict
	case errors.Is(err, groups.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, groups.ErrContention):
		return http.StatusServiceUnavailable
	case groups.Code(err) == "not_assigned":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logf("ERROR: failed to write response: %v", err)
	}
}

func writeError(cfg *Config, w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "client", realIP(r), "error", err)
		msg = "An error has occurred. Please try again."
	}

	writeJSON(cfg, w, status, apiError{Error: msg, Code: groups.Code(err)})
}
