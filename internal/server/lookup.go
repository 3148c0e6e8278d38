package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/slug"
)

// --- genres ---

func (s *Server) handleCreateGenre(w http.ResponseWriter, r *http.Request) {
	g, err := decodeBody[models.Genre](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if g.Name == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if g.Slug == "" {
		g.Slug = slug.Make(g.Name)
	}

	created, err := s.upstream.CreateGenre(r.Context(), g)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "genre", created.ID, func(ctx context.Context) error {
		return s.store.UpsertGenre(ctx, created)
	})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateGenre(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	g, err := decodeBody[models.Genre](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	updated, err := s.upstream.UpdateGenre(r.Context(), id, g)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "genre", updated.ID, func(ctx context.Context) error {
		return s.store.UpsertGenre(ctx, updated)
	})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteGenre(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.upstream.DeleteGenre(r.Context(), id); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "genre", id, func(ctx context.Context) error {
		return s.store.DeleteGenre(ctx, id)
	})
	writeNoContent(w)
}

// --- countries ---

func (s *Server) handleCreateCountry(w http.ResponseWriter, r *http.Request) {
	co, err := decodeBody[models.Country](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if co.Name == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if co.Slug == "" {
		co.Slug = slug.Make(co.Name)
	}

	created, err := s.upstream.CreateCountry(r.Context(), co)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "country", created.ID, func(ctx context.Context) error {
		return s.store.UpsertCountry(ctx, created)
	})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCountry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	co, err := decodeBody[models.Country](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	updated, err := s.upstream.UpdateCountry(r.Context(), id, co)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "country", updated.ID, func(ctx context.Context) error {
		return s.store.UpsertCountry(ctx, updated)
	})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCountry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.upstream.DeleteCountry(r.Context(), id); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "country", id, func(ctx context.Context) error {
		return s.store.DeleteCountry(ctx, id)
	})
	writeNoContent(w)
}

// --- departments (not mirrored, upstream only) ---

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := s.upstream.ListDepartments(r.Context())
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	if depts == nil {
		depts = []models.Department{}
	}
	writeJSON(w, http.StatusOK, depts)
}

func (s *Server) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	d, err := decodeBody[models.Department](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if d.Name == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if d.Slug == "" {
		d.Slug = slug.Make(d.Name)
	}

	created, err := s.upstream.CreateDepartment(r.Context(), d)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	d, err := decodeBody[models.Department](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	updated, err := s.upstream.UpdateDepartment(r.Context(), r.PathValue("id"), d)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := s.upstream.DeleteDepartment(r.Context(), r.PathValue("id")); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeNoContent(w)
}
