package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPHandlerHealthAndDiagnostics(t *testing.T) {
	hub, _ := newTestHub(Config{GridWidth: 4, GridHeight: 4, Sweets: 2})
	hub.Join("ann")
	srv := httptest.NewServer(NewHTTPHandler(hub, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	defer resp.Body.Close()
	var payload struct {
		Status    string `json:"status"`
		RoundOver bool   `json:"roundOver"`
		Sweets    int    `json:"sweets"`
		Players   []struct {
			Name string `json:"name"`
		} `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	if payload.Status != "ok" || payload.RoundOver || payload.Sweets != 2 {
		t.Fatalf("unexpected diagnostics %+v", payload)
	}
	if len(payload.Players) != 1 || payload.Players[0].Name != "ann" {
		t.Fatalf("unexpected players %+v", payload.Players)
	}
}
