package api

import (
	"context"
	"net/http"
	"time"
)

// IndexChecker reports whether the passage index is reachable.
// *index.Store satisfies this.
type IndexChecker interface {
	Count(ctx context.Context) (int, error)
}

// health is the liveness probe. Returns 200 as long as the process can
// serve requests at all.
func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness reports whether the passage index is reachable and
// non-empty. A tutor with no passages can only refuse, so an empty
// index is not ready.
func readiness(checker IndexChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		count, err := checker.Count(ctx)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "index_unreachable", err.Error())
			return
		}
		if count == 0 {
			writeError(w, http.StatusServiceUnavailable, "index_empty", "passage index has no entries")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "passages": count})
	}
}
