package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

const internalErrorMessage = "internal server error"

type App interface {
	Register(ctx context.Context, req models.UserRequest) (models.User, error)
	Login(ctx context.Context, creds models.Credentials) (models.TokenResponse, error)
	Me(ctx context.Context, caller models.Caller) (models.User, error)

	CreateRequest(ctx context.Context, caller models.Caller, kind models.Kind, draft models.Draft) (models.Request, error)
	ListRequests(ctx context.Context, caller models.Caller, kind models.Kind) ([]models.Request, error)
	GetRequest(ctx context.Context, caller models.Caller, kind models.Kind, id string) (models.Request, error)
	AuthorizeRequest(ctx context.Context, caller models.Caller, kind models.Kind, id string, decision models.Decision) (models.Request, error)
	DeleteRequest(ctx context.Context, caller models.Caller, kind models.Kind, id string) error

	Stats(ctx context.Context, caller models.Caller, kind models.Kind) (models.Stats, error)
	Timeline(ctx context.Context, caller models.Caller, kind models.Kind) ([]models.TimelineDay, error)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RequestResponse struct {
	Message string         `json:"message,omitempty"`
	Request models.Request `json:"request"`
}

type RequestsResponse struct {
	Requests []models.Request `json:"requests"`
}

func (s *Server) versionHandler(w http.ResponseWriter, _ *http.Request) {
	_, err := fmt.Fprintf(w, "%s\n", s.cfg.Version)
	if err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createRequestHandler(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, err := decodeDraft(kind, r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		req, err := s.app.CreateRequest(r.Context(), s.caller(r), kind, draft)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, http.StatusCreated, RequestResponse{Message: "Solicitud creada exitosamente", Request: req})
	}
}

func decodeDraft(kind models.Kind, r *http.Request) (models.Draft, error) {
	switch kind {
	case models.KindServidor:
		var form models.ServerLoanForm
		if err := decodeBody(r, &form); err != nil {
			return models.Draft{}, err
		}
		return form.Draft(), nil
	case models.KindArduino:
		var form models.KitLoanForm
		if err := decodeBody(r, &form); err != nil {
			return models.Draft{}, err
		}
		return form.Draft(), nil
	}
	return models.Draft{}, fmt.Errorf("%w: unknown request kind %q", models.ErrValidation, kind)
}

func (s *Server) listRequestsHandler(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqs, err := s.app.ListRequests(r.Context(), s.caller(r), kind)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, http.StatusOK, RequestsResponse{Requests: reqs})
	}
}

func (s *Server) getRequestHandler(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := s.app.GetRequest(r.Context(), s.caller(r), kind, chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, http.StatusOK, RequestResponse{Request: req})
	}
}

func (s *Server) authorizeRequestHandler(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var decision models.Decision
		if err := decodeBody(r, &decision); err != nil {
			s.writeError(w, err)
			return
		}
		req, err := s.app.AuthorizeRequest(r.Context(), s.caller(r), kind, chi.URLParam(r, "id"), decision)
		if err != nil {
			s.writeError(w, err)
			return
		}
		msg := "Solicitud aprobada exitosamente"
		if req.Status == models.StatusRechazada {
			msg = "Solicitud rechazada exitosamente"
		}
		s.writeResponse(w, http.StatusOK, RequestResponse{Message: msg, Request: req})
	}
}

func (s *Server) deleteRequestHandler(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.app.DeleteRequest(r.Context(), s.caller(r), kind, chi.URLParam(r, "id")); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, http.StatusOK, MessageResponse{Message: "Solicitud eliminada exitosamente"})
	}
}

func decodeBody(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: malformed json body: %v", models.ErrValidation, err)
	}
	return nil
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError maps err onto its status. Unexpected errors are logged and
// replaced by a generic message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Errorf("unexpected error: %v", err)
		err = errors.New(internalErrorMessage)
	}
	s.writeResponse(w, status, err)
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if x, ok := data.(error); ok {
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: x.Error()}); err != nil {
			s.log.Warnf("err during encoding error: %v", err)
		}
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("err during encoding response: %v", err)
	}
}
