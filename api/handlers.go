package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"AvailabilityBot/engine"
	"AvailabilityBot/model"
	"AvailabilityBot/service"
)

// participantID accepts a JSON string or number; Telegram user ids arrive as
// numbers from the mini-app.
type participantID string

func (p *participantID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = participantID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("userId must be a string or a number")
	}
	*p = participantID(n.String())
	return nil
}

type submitRequest struct {
	EventID     string          `json:"eventId"`
	UserID      participantID   `json:"userId"`
	DisplayName string          `json:"displayName"`
	Slots       json.RawMessage `json:"slots"`
}

type submitResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type resultsResponse struct {
	*service.Report
	Top []engine.SlotScore `json:"top"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(s.indexPath)
	if err != nil {
		s.log.Error().Err(err).Str("path", s.indexPath).Msg("error reading mini-app page")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<h1>Error: index.html not found on server</h1>"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.svc.Submit(r.Context(), service.SubmitRequest{
		EventID:       req.EventID,
		ParticipantID: string(req.UserID),
		DisplayName:   req.DisplayName,
		Slots:         req.Slots,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Status: "success", Count: res.Participants})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.svc.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	_, report, err := s.svc.Report(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	top := s.topN
	if v := strings.TrimSpace(r.URL.Query().Get("top")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = n
	}
	writeJSON(w, http.StatusOK, resultsResponse{Report: report, Top: report.Result.Top(top)})
}

func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	missing, err := s.svc.Missing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"missing": missing})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrInvalidRequest), errors.Is(err, model.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
