package server

import (
	"fmt"
	"net/http"

	"github.com/yudswin/nettube/internal/api"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeBody[api.Credentials](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("email and password are required"))
		return
	}

	user, err := s.upstream.Login(r.Context(), creds)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeBody[api.Credentials](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("email and password are required"))
		return
	}

	user, err := s.upstream.Register(r.Context(), creds)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	if err := s.upstream.Logout(); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.upstream.Me(r.Context())
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
