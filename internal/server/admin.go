package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/slug"
	"github.com/yudswin/nettube/internal/syncview"
)

// --- content management ---

func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	ct, err := decodeBody[models.Content](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if ct.Title == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("title is required"))
		return
	}
	if ct.Type != models.TypeMovie && ct.Type != models.TypeTVShow {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("type must be %s or %s", models.TypeMovie, models.TypeTVShow))
		return
	}
	if ct.Slug == "" {
		ct.Slug = slug.Make(ct.Title)
	}

	created, err := s.upstream.CreateContent(r.Context(), ct)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.workspace.Contents().Add(*created)
	s.mirror(r, "content", created.ID, func(ctx context.Context) error {
		return s.store.UpsertContent(ctx, created)
	})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	patch, err := decodeBody[models.ContentPatch](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	updated, err := s.upstream.UpdateContent(r.Context(), id, patch)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.workspace.Contents().Replace(*updated)
	s.mirror(r, "content", updated.ID, func(ctx context.Context) error {
		return s.store.UpsertContent(ctx, updated)
	})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.upstream.DeleteContent(r.Context(), id); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.workspace.DropContent(id)
	s.mirror(r, "content", id, func(ctx context.Context) error {
		return s.store.DeleteContent(ctx, id)
	})
	writeNoContent(w)
}

// mirror applies a best-effort write to the local mirror so facade
// reads see the admin change before the next full sync. A failure is
// logged, never surfaced: the upstream accepted the write and the sync
// will reconcile the mirror eventually.
func (s *Server) mirror(r *http.Request, kind, id string, fn func(context.Context) error) {
	if s.store == nil {
		return
	}
	if err := fn(r.Context()); err != nil {
		log.Printf("mirror %s %s: %v", kind, id, err)
	}
}

// ensureLoaded loads a workspace list from the upstream on first
// access. A failed load leaves the list empty with the error recorded;
// handlers surface that error alongside the (empty) snapshot.
func ensureLoaded[T syncview.Entity](r *http.Request, list *syncview.List[T], fetch func(context.Context) ([]T, error)) {
	if !list.Loaded() {
		_ = list.Load(r.Context(), fetch)
	}
}

// listResponse wraps a workspace list snapshot under the given key,
// attaching the recorded load error when there is one.
func listResponse[T syncview.Entity](key string, list *syncview.List[T]) map[string]any {
	items := list.Snapshot()
	if items == nil {
		items = []T{}
	}
	out := map[string]any{key: items}
	if err := list.Err(); err != nil {
		out["error"] = err.Error()
	}
	return out
}

// --- cast ---

func (s *Server) handleListCast(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	list := s.workspace.Cast(contentID)
	ensureLoaded(r, list, func(ctx context.Context) ([]models.CastMember, error) {
		return s.upstream.ListCast(ctx, contentID)
	})
	writeJSON(w, http.StatusOK, listResponse("cast", list))
}

type castRequest struct {
	PersonID   string `json:"personId"`
	PersonName string `json:"personName"`
	Character  string `json:"character"`
	Rank       int    `json:"rank"`
}

func (s *Server) handleAddCast(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	req, err := decodeBody[castRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.PersonID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("personId is required"))
		return
	}

	created, err := s.upstream.AddCast(r.Context(), models.CastMember{
		ContentID:  contentID,
		PersonID:   req.PersonID,
		PersonName: req.PersonName,
		Character:  req.Character,
		Rank:       req.Rank,
	})
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.workspace.Cast(contentID).Add(*created)
	writeJSON(w, http.StatusCreated, created)
}

type castUpdateRequest struct {
	Character string `json:"character"`
	Rank      int    `json:"rank"`
}

func (s *Server) handleUpdateCast(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	personID := r.PathValue("personId")
	req, err := decodeBody[castUpdateRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	list := s.workspace.Cast(contentID)
	ensureLoaded(r, list, func(ctx context.Context) ([]models.CastMember, error) {
		return s.upstream.ListCast(ctx, contentID)
	})

	old, ok := list.Get(personID)
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("cast member %s not found on content %s", personID, contentID))
		return
	}
	updated := old
	updated.Character = req.Character
	updated.Rank = req.Rank

	if err := syncview.UpdateCast(r.Context(), s.upstream, list, old, updated); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	row, _ := list.Get(personID)
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleRemoveCast(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	personID := r.PathValue("personId")
	if err := s.upstream.RemoveCast(r.Context(), contentID, personID); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.workspace.Cast(contentID).Remove(personID)
	writeNoContent(w)
}

// --- directors ---

func (s *Server) handleListDirectors(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	list := s.workspace.Directors(contentID)
	ensureLoaded(r, list, func(ctx context.Context) ([]models.Director, error) {
		return s.upstream.ListDirectors(ctx, contentID)
	})
	writeJSON(w, http.StatusOK, listResponse("directors", list))
}

type directorRequest struct {
	PersonID   string `json:"personId"`
	PersonName string `json:"personName"`
	Rank       int    `json:"rank"`
}

func (s *Server) handleAddDirector(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	req, err := decodeBody[directorRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.PersonID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("personId is required"))
		return
	}

	created, err := s.upstream.AddDirector(r.Context(), models.Director{
		ContentID:  contentID,
		PersonID:   req.PersonID,
		PersonName: req.PersonName,
		Rank:       req.Rank,
	})
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.workspace.Directors(contentID).Add(*created)
	writeJSON(w, http.StatusCreated, created)
}

type directorUpdateRequest struct {
	Rank int `json:"rank"`
}

func (s *Server) handleUpdateDirector(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	personID := r.PathValue("personId")
	req, err := decodeBody[directorUpdateRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	list := s.workspace.Directors(contentID)
	ensureLoaded(r, list, func(ctx context.Context) ([]models.Director, error) {
		return s.upstream.ListDirectors(ctx, contentID)
	})

	old, ok := list.Get(personID)
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("director %s not found on content %s", personID, contentID))
		return
	}
	updated := old
	updated.Rank = req.Rank

	if err := syncview.UpdateDirector(r.Context(), s.upstream, list, old, updated); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	row, _ := list.Get(personID)
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleRemoveDirector(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	personID := r.PathValue("personId")
	if err := s.upstream.RemoveDirector(r.Context(), contentID, personID); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.workspace.Directors(contentID).Remove(personID)
	writeNoContent(w)
}
