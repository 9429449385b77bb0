package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"AvailabilityBot/model"
	"AvailabilityBot/repo"
	"AvailabilityBot/service"
)

func newTestServer(t *testing.T, indexPath string) (*Server, *model.Event) {
	t.Helper()
	ctx := context.Background()
	svc := service.New(repo.NewMemoryStore())

	draft, err := svc.StartDraft(ctx, service.DraftInput{Name: "Standup", RequiredParticipants: []string{"ann", "bob"}})
	if err != nil {
		t.Fatalf("StartDraft: %v", err)
	}
	ev, err := svc.PromoteDraft(ctx, draft.ID, model.ModeTime)
	if err != nil {
		t.Fatalf("PromoteDraft: %v", err)
	}
	return NewServer(svc, indexPath, 5, zerolog.Nop()), ev
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitAvailability(t *testing.T) {
	srv, ev := newTestServer(t, "")
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/submit_availability",
		`{"eventId":"`+ev.ID+`","userId":1001,"slots":{"0-9":"yes","0-10":"maybe"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp submitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || resp.Count != 1 {
		t.Fatalf("response = %+v", resp)
	}

	rec = do(t, h, http.MethodPost, "/submit_availability",
		`{"eventId":"`+ev.ID+`","userId":"ann","displayName":"Ann","slots":["0-9"]}`)
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d", resp.Count)
	}

	rec = do(t, h, http.MethodGet, "/events/"+ev.ID+"/results?top=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d", rec.Code)
	}
	var results struct {
		Result struct {
			TotalParticipants int `json:"totalParticipants"`
		} `json:"result"`
		Top []struct {
			Slot  string  `json:"slot"`
			Score float64 `json:"score"`
		} `json:"top"`
		Matrix struct {
			Columns []struct {
				Label string `json:"label"`
			} `json:"columns"`
		} `json:"matrix"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if results.Result.TotalParticipants != 2 || len(results.Top) != 1 || results.Top[0].Slot != "0-9" || results.Top[0].Score != 2 {
		t.Fatalf("results = %+v", results)
	}
	if len(results.Matrix.Columns) != 1 || results.Matrix.Columns[0].Label != "Mon" {
		t.Fatalf("matrix columns = %+v", results.Matrix.Columns)
	}

	rec = do(t, h, http.MethodGet, "/events/"+ev.ID+"/missing", "")
	var missing map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&missing); err != nil {
		t.Fatalf("decode missing: %v", err)
	}
	if len(missing["missing"]) != 1 || missing["missing"][0] != "bob" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestErrorsMapToStatus(t *testing.T) {
	srv, ev := newTestServer(t, "")
	h := srv.Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"unknown event submit", http.MethodPost, "/submit_availability", `{"eventId":"nope","userId":1,"slots":[]}`, http.StatusNotFound},
		{"missing user", http.MethodPost, "/submit_availability", `{"eventId":"` + ev.ID + `","slots":[]}`, http.StatusBadRequest},
		{"user id spanning segments", http.MethodPost, "/submit_availability", `{"eventId":"` + ev.ID + `","userId":"alice/slots","slots":["3-3"]}`, http.StatusBadRequest},
		{"event id spanning segments", http.MethodPost, "/submit_availability", `{"eventId":"` + ev.ID + `/votes/alice","userId":"x","slots":["3-3"]}`, http.StatusBadRequest},
		{"bad user type", http.MethodPost, "/submit_availability", `{"eventId":"` + ev.ID + `","userId":true}`, http.StatusBadRequest},
		{"bad body", http.MethodPost, "/submit_availability", `{`, http.StatusBadRequest},
		{"unknown event", http.MethodGet, "/events/nope", "", http.StatusNotFound},
		{"unknown results", http.MethodGet, "/events/nope/results", "", http.StatusNotFound},
		{"bad top", http.MethodGet, "/events/" + ev.ID + "/results?top=x", "", http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/submit_availability", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestMalformedSlotsStillAccepted(t *testing.T) {
	srv, ev := newTestServer(t, "")
	rec := do(t, srv.Handler(), http.MethodPost, "/submit_availability",
		`{"eventId":"`+ev.ID+`","userId":"7","slots":42}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestEventSnapshot(t *testing.T) {
	srv, ev := newTestServer(t, "")
	h := srv.Handler()
	do(t, h, http.MethodPost, "/submit_availability", `{"eventId":"`+ev.ID+`","userId":"9","slots":["3-15"]}`)

	rec := do(t, h, http.MethodGet, "/events/"+ev.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got model.Event
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != ev.ID || got.Mode != model.ModeTime || len(got.Votes) != 1 {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestIndexAndHealth(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "index.html")
	if err := os.WriteFile(index, []byte("<html>grid</html>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	srv, _ := newTestServer(t, index)
	rec := do(t, srv.Handler(), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "grid") {
		t.Fatalf("index = %d %q", rec.Code, rec.Body.String())
	}

	missing, _ := newTestServer(t, filepath.Join(dir, "absent.html"))
	if rec := do(t, missing.Handler(), http.MethodGet, "/", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing index = %d", rec.Code)
	}

	if rec := do(t, srv.Handler(), http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/submit_availability", nil)
	req.Header.Set("Origin", "https://web.telegram.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS allow origin header, got none (status %d)", rec.Code)
	}
}
