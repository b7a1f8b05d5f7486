package rest

import (
	"net/http"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

type UserResponse struct {
	Message string      `json:"message,omitempty"`
	User    models.User `json:"user"`
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.app.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusCreated, UserResponse{Message: "Usuario creado exitosamente", User: user})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decodeBody(r, &creds); err != nil {
		s.writeError(w, err)
		return
	}
	resp, err := s.app.Login(r.Context(), creds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, resp)
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.app.Me(r.Context(), s.caller(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, UserResponse{User: user})
}
