// Package api serves the availability mini-app and its submission endpoint.
package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"AvailabilityBot/service"
)

type Server struct {
	svc       *service.Service
	indexPath string
	topN      int
	log       zerolog.Logger
}

func NewServer(svc *service.Service, indexPath string, topN int, logger zerolog.Logger) *Server {
	return &Server{
		svc:       svc,
		indexPath: indexPath,
		topN:      topN,
		log:       logger.With().Str("component", "api").Logger(),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/submit_availability", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/events/{id}", s.handleEvent).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/results", s.handleResults).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/missing", s.handleMissing).Methods(http.MethodGet)

	return r
}

// Handler wraps the router with CORS for the mini-app, which is served from
// Telegram's web view.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(s.Router())
}
