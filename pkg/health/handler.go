package health

import (
	"encoding/json"
	"net/http"
	"strings"
)

// LivenessHandler returns an http.HandlerFunc that always responds OK.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, &Report{Status: StatusHealthy})
			return
		}
		writeText(w, http.StatusOK, "OK")
	}
}

// ReadinessHandler returns an http.HandlerFunc that runs checks on every probe.
// It responds 503 when any check fails.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		report := runChecks(r.Context(), checks, cfg)

		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}

		if wantsJSON(r) {
			writeJSON(w, status, report)
			return
		}
		writeText(w, status, http.StatusText(status))
	}
}

// Mux serves the liveness probe at livePath and the readiness probe at
// readyPath, both relative to wherever the handler is mounted.
func Mux(livePath, readyPath string, checks Checks, opts ...Option) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET "+livePath, LivenessHandler())
	mux.Handle("GET "+readyPath, ReadinessHandler(checks, opts...))
	return mux
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
