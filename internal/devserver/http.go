package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
)

// NewHTTPHandler serves the websocket endpoint plus health and diagnostics.
func NewHTTPHandler(hub *Hub, logger telemetry.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		state := hub.Snapshot()
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			TickRate   int    `json:"tickRate"`
			RoundOver  bool   `json:"roundOver"`
			Players    any    `json:"players"`
			Sweets     int    `json:"sweets"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   hub.cfg.TickRate,
			RoundOver:  hub.RoundOver(),
			Players:    state.Players,
			Sweets:     len(state.Sweets),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.Handle("/ws", NewHandler(hub, logger))
	return mux
}
