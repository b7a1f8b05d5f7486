package rest

import (
	"net/http"
	"strings"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

type TimelineResponse struct {
	Timeline []models.TimelineDay `json:"timeline"`
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.Stats(r.Context(), s.caller(r), kindParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, stats)
}

func (s *Server) timelineHandler(w http.ResponseWriter, r *http.Request) {
	days, err := s.app.Timeline(r.Context(), s.caller(r), kindParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, TimelineResponse{Timeline: days})
}

func kindParam(r *http.Request) models.Kind {
	return models.Kind(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("kind"))))
}
