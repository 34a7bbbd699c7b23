package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
)

const maxRequestBytes = 1 << 20

// Handler serves POST /api/yields.
func Handler(f *Forwarder, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
		if err := dec.Decode(&req); err != nil {
			writeError(w, clierr.Wrap(clierr.CodeUsage, "decode proxy request", err))
			return
		}

		raw, err := f.forwardRaw(r.Context(), req)
		if err != nil {
			logger.Warn("proxy request rejected", "endpoint", req.Endpoint, "error", err)
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(clierr.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
