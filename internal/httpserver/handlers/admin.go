package handlers

import (
	"net/http"

	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/logger"
)

// FlushIndex asks the index flusher to write the reverse index now.
func FlushIndex(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.FlushTrigger <- struct{}{}:
			d.Logger.Info("manual index flush triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Index flush triggered\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("index flush already pending",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Index flush already pending, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
