package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/store"
)

// parseContentFilter reads browse filters from the query string.
func parseContentFilter(r *http.Request) (store.ContentFilter, error) {
	q := r.URL.Query()
	filter := store.ContentFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Search: q.Get("search"),
	}

	if v := q.Get("years"); v != "" {
		for _, part := range strings.Split(v, ",") {
			year, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return filter, fmt.Errorf("invalid years: %s", v)
			}
			filter.Years = append(filter.Years, year)
		}
	}
	if filter.Type != "" && filter.Type != models.TypeMovie && filter.Type != models.TypeTVShow {
		return filter, fmt.Errorf("invalid type: %s", filter.Type)
	}
	if filter.Status != "" && filter.Status != models.StatusFinish && filter.Status != models.StatusUpdating {
		return filter, fmt.Errorf("invalid status: %s", filter.Status)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("invalid limit: %s", v)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("invalid offset: %s", v)
		}
		filter.Offset = n
	}

	// Apply defaults so the response reflects actual values used.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	return filter, nil
}

func (s *Server) handleListContents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseContentFilter(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	var (
		contents []models.Content
		total    int
	)
	if s.store != nil {
		contents, total, err = s.store.ListContents(r.Context(), filter)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	} else {
		page := filter.Offset/filter.Limit + 1
		res, uerr := s.upstream.BrowseContents(r.Context(), models.BrowseFilter{
			Years:  filter.Years,
			Type:   filter.Type,
			Status: filter.Status,
			Page:   page,
			Limit:  filter.Limit,
		})
		if uerr != nil {
			writeUpstreamErr(w, uerr)
			return
		}
		contents, total = res.Items, res.Total
	}
	if contents == nil {
		contents = []models.Content{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contents": contents,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if s.store != nil {
		ct, err := s.store.GetContentByID(r.Context(), id)
		if err == nil {
			writeJSON(w, http.StatusOK, ct)
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		// Not mirrored yet; fall through to the upstream.
	}

	ct, err := s.upstream.GetContent(r.Context(), id)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

func (s *Server) handleSearchContents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("q parameter is required"))
		return
	}

	limit := 20
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		limit = n
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	// Semantic search when the mirror and embedder are both configured.
	if q.Get("semantic") == "true" {
		if s.store == nil || s.embedder == nil {
			writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("semantic search is not configured"))
			return
		}
		vecs, err := s.embedder.Embed(r.Context(), []string{query}, "query")
		if err != nil {
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("embed query: %w", err))
			return
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("empty embedding returned"))
			return
		}
		results, err := s.store.SemanticSearch(r.Context(), vecs[0], limit)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if results == nil {
			results = []store.SemanticResult{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"contents": results, "limit": limit, "semantic": true})
		return
	}

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid page: %s", v))
			return
		}
		page = n
	}
	res, err := s.upstream.SearchContents(r.Context(), query, page, limit)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	if res.Items == nil {
		res.Items = []models.Content{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contents": res.Items,
		"total":    res.Total,
		"page":     page,
		"limit":    limit,
	})
}

func (s *Server) handleSimilarContents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("similar contents require the catalog mirror (DATABASE_URL not set)"))
		return
	}
	id := r.PathValue("id")

	limit := 12
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		limit = n
	}
	if limit <= 0 {
		limit = 12
	}
	if limit > 50 {
		limit = 50
	}

	similar, err := s.store.SimilarContents(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("content %s not found", id))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if similar == nil {
		similar = []models.Content{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"contents": similar, "limit": limit})
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	var (
		genres []models.Genre
		err    error
	)
	if s.store != nil {
		genres, err = s.store.ListGenres(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	} else {
		genres, err = s.upstream.ListGenres(r.Context())
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	writeJSON(w, http.StatusOK, genres)
}

func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	var (
		countries []models.Country
		err       error
	)
	if s.store != nil {
		countries, err = s.store.ListCountries(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	} else {
		countries, err = s.upstream.ListCountries(r.Context())
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
	}
	if countries == nil {
		countries = []models.Country{}
	}
	writeJSON(w, http.StatusOK, countries)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	var (
		cols []models.Collection
		err  error
	)
	if s.store != nil {
		cols, err = s.store.ListCollections(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	} else {
		cols, err = s.upstream.ListCollections(r.Context())
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
	}
	if cols == nil {
		cols = []models.Collection{}
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) handleCollectionContents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var (
		contents []models.Content
		err      error
	)
	if s.store != nil {
		contents, err = s.store.CollectionContents(r.Context(), id)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	} else {
		contents, err = s.upstream.CollectionContents(r.Context(), id)
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
	}
	if contents == nil {
		contents = []models.Content{}
	}
	writeJSON(w, http.StatusOK, contents)
}
