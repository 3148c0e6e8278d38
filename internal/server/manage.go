package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/slug"
	"github.com/yudswin/nettube/internal/store"
)

// --- persons ---

func (s *Server) handleSearchPersons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("q parameter is required"))
		return
	}

	page, limit := 1, 20
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid page: %s", v))
			return
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		limit = n
	}

	// The mirror answers person lookups offline; the upstream is the
	// fallback when no mirror is configured.
	if s.store != nil {
		persons, err := s.store.SearchPersons(r.Context(), query, limit)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if persons == nil {
			persons = []models.Person{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"persons": persons, "limit": limit})
		return
	}

	res, err := s.upstream.SearchPersons(r.Context(), query, page, limit)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	if res.Items == nil {
		res.Items = []models.Person{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"persons": res.Items,
		"total":   res.Total,
		"page":    page,
		"limit":   limit,
	})
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.upstream.GetPerson(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPersonDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := s.upstream.ListPersonDepartments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	if depts == nil {
		depts = []models.Department{}
	}
	writeJSON(w, http.StatusOK, depts)
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	p, err := decodeBody[models.Person](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if p.Name == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Name)
	}

	created, err := s.upstream.CreatePerson(r.Context(), p)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "person", created.ID, func(ctx context.Context) error {
		return s.store.UpsertPerson(ctx, created)
	})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	patch, err := decodeBody[models.PersonPatch](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	updated, err := s.upstream.UpdatePerson(r.Context(), id, patch)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "person", updated.ID, func(ctx context.Context) error {
		return s.store.UpsertPerson(ctx, updated)
	})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.upstream.DeletePerson(r.Context(), id); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "person", id, func(ctx context.Context) error {
		return s.store.DeletePerson(ctx, id)
	})
	writeNoContent(w)
}

func (s *Server) handleAddPersonDepartment(w http.ResponseWriter, r *http.Request) {
	if err := s.upstream.AddPersonDepartment(r.Context(), r.PathValue("id"), r.PathValue("deptId")); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleRemovePersonDepartment(w http.ResponseWriter, r *http.Request) {
	if err := s.upstream.RemovePersonDepartment(r.Context(), r.PathValue("id"), r.PathValue("deptId")); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeNoContent(w)
}

// --- collection management ---

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.upstream.GetCollection(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	col, err := decodeBody[models.Collection](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if col.Name == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if col.Type != models.CollectionTopic && col.Type != models.CollectionHot {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("type must be %s or %s", models.CollectionTopic, models.CollectionHot))
		return
	}
	if col.Slug == "" {
		col.Slug = slug.Make(col.Name)
	}

	created, err := s.upstream.CreateCollection(r.Context(), col)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "collection", created.ID, func(ctx context.Context) error {
		return s.store.UpsertCollection(ctx, created)
	})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	patch, err := decodeBody[models.CollectionPatch](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	updated, err := s.upstream.UpdateCollection(r.Context(), id, patch)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "collection", updated.ID, func(ctx context.Context) error {
		return s.store.UpsertCollection(ctx, updated)
	})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.upstream.DeleteCollection(r.Context(), id); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.mirror(r, "collection", id, func(ctx context.Context) error {
		return s.store.DeleteCollection(ctx, id)
	})
	writeNoContent(w)
}

type rankRequest struct {
	Rank int `json:"rank"`
}

func (s *Server) handleAddCollectionContent(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[rankRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.upstream.AddCollectionContent(r.Context(), r.PathValue("id"), r.PathValue("contentId"), req.Rank); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.refreshCollectionMirror(r, r.PathValue("id"))
	writeNoContent(w)
}

func (s *Server) handleRemoveCollectionContent(w http.ResponseWriter, r *http.Request) {
	if err := s.upstream.RemoveCollectionContent(r.Context(), r.PathValue("id"), r.PathValue("contentId")); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.refreshCollectionMirror(r, r.PathValue("id"))
	writeNoContent(w)
}

func (s *Server) handleSetContentRank(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[rankRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.upstream.SetContentRank(r.Context(), r.PathValue("id"), r.PathValue("contentId"), req.Rank); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.refreshCollectionMirror(r, r.PathValue("id"))
	writeNoContent(w)
}

// refreshCollectionMirror re-reads a collection's ordered membership
// from the upstream after a membership change so mirror reads stay in
// step. Best effort, same contract as mirror.
func (s *Server) refreshCollectionMirror(r *http.Request, collectionID string) {
	if s.store == nil {
		return
	}
	ctx := r.Context()
	contents, err := s.upstream.CollectionContents(ctx, collectionID)
	if err != nil {
		log.Printf("mirror collection %s membership: %v", collectionID, err)
		return
	}
	entries := make([]store.RankedContent, 0, len(contents))
	for i, ct := range contents {
		rank := i
		if ct.Rank != nil {
			rank = *ct.Rank
		}
		// Membership rows reference mirrored contents, so upsert first.
		if err := s.store.UpsertContent(ctx, &ct); err != nil {
			log.Printf("mirror content %s: %v", ct.ID, err)
			return
		}
		entries = append(entries, store.RankedContent{ContentID: ct.ID, Rank: rank})
	}
	if err := s.store.ReplaceCollectionContents(ctx, collectionID, entries); err != nil {
		log.Printf("mirror collection %s membership: %v", collectionID, err)
	}
}

// --- media ---

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	media, err := s.upstream.ListMedia(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	if media == nil {
		media = []models.Media{}
	}
	writeJSON(w, http.StatusOK, media)
}

// handleUploadMedia streams a multipart upload through to the upstream
// without buffering the file in memory.
func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("file field is required: %w", err))
		return
	}
	defer file.Close()

	meta := models.Media{
		AudioType: r.FormValue("audioType"),
		Title:     r.FormValue("title"),
	}
	if v := r.FormValue("season"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid season: %s", v))
			return
		}
		meta.Season = n
	}
	if v := r.FormValue("episode"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid episode: %s", v))
			return
		}
		meta.Episode = n
	}
	if meta.AudioType == "" {
		meta.AudioType = models.AudioSubtitle
	}

	created, err := s.upstream.UploadMedia(r.Context(), contentID, header.Filename, file, meta)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	m, err := s.upstream.GetMedia(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	patch, err := decodeBody[models.MediaPatch](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	updated, err := s.upstream.UpdateMedia(r.Context(), id, patch)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := s.upstream.DeleteMedia(r.Context(), r.PathValue("id")); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeNoContent(w)
}

// --- user library ---

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.upstream.ListFavorites(r.Context())
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	writeJSON(w, http.StatusOK, favs)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	if err := s.upstream.AddFavorite(r.Context(), r.PathValue("contentId")); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := s.upstream.RemoveFavorite(r.Context(), r.PathValue("contentId")); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.upstream.ListHistory(r.Context())
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	if history == nil {
		history = []models.History{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.upstream.DeleteHistory(r.Context(), r.PathValue("mediaId")); err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeNoContent(w)
}
