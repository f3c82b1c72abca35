package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool     `json:"ok"`
	Entries    *int     `json:"entries,omitempty"`
	Pending    *int     `json:"pending,omitempty"`
	LastFlush  string   `json:"last_flush,omitempty"`
	LastBackup string   `json:"last_backup,omitempty"`
	Sinks      []string `json:"sinks,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Impact     string   `json:"impact,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"index":    indexStatus(d),
			"backup":   backupStatus(d),
			"handoffs": handoffStatus(r.Context(), d),
			"redis":    checkRedis(r.Context(), d),
			"payments": {OK: d.Payments.Enabled(), Mode: paymentsMode(d)},
		}

		response := infraResponse{
			Status:     determineStatus(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func indexStatus(d deps.Deps) componentStatus {
	entries := d.Index.Count()
	pending := 0
	if state, dirty := d.Index.Dirty(); dirty {
		pending = state.Pending
	}
	return componentStatus{
		OK:        true,
		Entries:   &entries,
		Pending:   &pending,
		LastFlush: formatTime(d.Index.LastFlush()),
	}
}

func backupStatus(d deps.Deps) componentStatus {
	if d.Backup == nil {
		return componentStatus{OK: false, Mode: "disabled", Impact: "no-cold-backup"}
	}
	last := d.Backup.LastBackup()
	return componentStatus{
		OK:         true,
		LastBackup: formatTime(last),
		Sinks:      d.Backup.Sinks(),
	}
}

func handoffStatus(ctx context.Context, d deps.Deps) componentStatus {
	st := componentStatus{OK: true, Mode: d.Handoffs.StoreMode()}
	n, err := d.Handoffs.Count(ctx)
	if err != nil {
		st.OK = false
		st.Error = err.Error()
		return st
	}
	st.Entries = &n
	return st
}

func paymentsMode(d deps.Deps) string {
	if d.Payments.Enabled() {
		return "enabled"
	}
	return "disabled"
}

// determineStatus is "degraded" when an optional collaborator that was
// configured is failing.
func determineStatus(components map[string]componentStatus) string {
	if h, ok := components["handoffs"]; ok && !h.OK {
		return "critical"
	}
	if redis, ok := components["redis"]; ok && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}
	return "ok"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "single-instance-handoffs",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "handoffs-unavailable",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "shared",
		Impact: "multi-instance-handoffs",
	}
}
