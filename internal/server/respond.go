package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MAX_JSON_BODY caps JSON request bodies at 1 MiB.
const MAX_JSON_BODY = 1 << 20

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("[Server] Failed to encode response",
			slog.String("error", err.Error()))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MAX_JSON_BODY)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
