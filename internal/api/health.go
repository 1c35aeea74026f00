package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const readinessPingTimeout = 2 * time.Second

// health reports process liveness for container probes.
func health(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, http.StatusOK, `{"status":"ok"}`)
}

// readiness reports whether the server can take traffic. With a pool
// configured it pings the database; without one it only confirms the
// process is up.
func readiness(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
			defer cancel()

			if err := pool.Ping(ctx); err != nil {
				writeProbe(w, http.StatusServiceUnavailable, `{"status":"unavailable"}`)
				return
			}
		}
		writeProbe(w, http.StatusOK, `{"status":"ok"}`)
	})
}

func writeProbe(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
