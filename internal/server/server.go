package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/yudswin/nettube/internal/api"
	"github.com/yudswin/nettube/internal/cache"
	"github.com/yudswin/nettube/internal/config"
	"github.com/yudswin/nettube/internal/service"
	"github.com/yudswin/nettube/internal/session"
	"github.com/yudswin/nettube/internal/store"
)

// Server holds dependencies for the HTTP facade. The upstream client is
// always present; the mirror store, Redis and embedder are optional
// layers that may be nil.
type Server struct {
	upstream *api.Client
	sess     *session.Session
	cfg      *config.Config
	store    store.Store      // nil when DATABASE_URL is not set
	redis    *cache.Redis     // nil when REDIS_URL is not set
	embedder service.Embedder // nil when VOYAGE_API_KEY is not set

	workspace *Workspace
	players   *playerRegistry
	mux       *http.ServeMux
}

// New creates a Server and registers routes.
func New(upstream *api.Client, sess *session.Session, cfg *config.Config, st store.Store, r *cache.Redis, embedder service.Embedder) *Server {
	srv := &Server{
		upstream:  upstream,
		sess:      sess,
		cfg:       cfg,
		store:     st,
		redis:     r,
		embedder:  embedder,
		workspace: NewWorkspace(),
		players:   newPlayerRegistry(),
		mux:       http.NewServeMux(),
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Auth
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/auth/me", s.handleMe)

	// Catalog (mirror-first reads)
	s.mux.HandleFunc("GET /api/contents", s.handleListContents)
	s.mux.HandleFunc("GET /api/contents/search", s.handleSearchContents)
	s.mux.HandleFunc("GET /api/contents/{id}", s.handleGetContent)
	s.mux.HandleFunc("GET /api/contents/{id}/similar", s.handleSimilarContents)
	s.mux.HandleFunc("GET /api/genres", s.handleListGenres)
	s.mux.HandleFunc("GET /api/countries", s.handleListCountries)
	s.mux.HandleFunc("GET /api/collections", s.handleListCollections)
	s.mux.HandleFunc("GET /api/collections/{id}", s.handleGetCollection)
	s.mux.HandleFunc("GET /api/collections/{id}/contents", s.handleCollectionContents)

	// Lookup management (genre and country writes are mirrored)
	s.mux.HandleFunc("POST /api/genres", s.handleCreateGenre)
	s.mux.HandleFunc("PATCH /api/genres/{id}", s.handleUpdateGenre)
	s.mux.HandleFunc("DELETE /api/genres/{id}", s.handleDeleteGenre)
	s.mux.HandleFunc("POST /api/countries", s.handleCreateCountry)
	s.mux.HandleFunc("PATCH /api/countries/{id}", s.handleUpdateCountry)
	s.mux.HandleFunc("DELETE /api/countries/{id}", s.handleDeleteCountry)
	s.mux.HandleFunc("GET /api/departments", s.handleListDepartments)
	s.mux.HandleFunc("POST /api/departments", s.handleCreateDepartment)
	s.mux.HandleFunc("PATCH /api/departments/{id}", s.handleUpdateDepartment)
	s.mux.HandleFunc("DELETE /api/departments/{id}", s.handleDeleteDepartment)

	// Content management (upstream writes, workspace kept in step)
	s.mux.HandleFunc("POST /api/contents", s.handleCreateContent)
	s.mux.HandleFunc("PATCH /api/contents/{id}", s.handleUpdateContent)
	s.mux.HandleFunc("DELETE /api/contents/{id}", s.handleDeleteContent)

	// Credits
	s.mux.HandleFunc("GET /api/contents/{id}/cast", s.handleListCast)
	s.mux.HandleFunc("POST /api/contents/{id}/cast", s.handleAddCast)
	s.mux.HandleFunc("PUT /api/contents/{id}/cast/{personId}", s.handleUpdateCast)
	s.mux.HandleFunc("DELETE /api/contents/{id}/cast/{personId}", s.handleRemoveCast)
	s.mux.HandleFunc("GET /api/contents/{id}/directors", s.handleListDirectors)
	s.mux.HandleFunc("POST /api/contents/{id}/directors", s.handleAddDirector)
	s.mux.HandleFunc("PUT /api/contents/{id}/directors/{personId}", s.handleUpdateDirector)
	s.mux.HandleFunc("DELETE /api/contents/{id}/directors/{personId}", s.handleRemoveDirector)

	// Persons
	s.mux.HandleFunc("GET /api/persons/search", s.handleSearchPersons)
	s.mux.HandleFunc("GET /api/persons/{id}", s.handleGetPerson)
	s.mux.HandleFunc("GET /api/persons/{id}/departments", s.handleListPersonDepartments)
	s.mux.HandleFunc("POST /api/persons", s.handleCreatePerson)
	s.mux.HandleFunc("PATCH /api/persons/{id}", s.handleUpdatePerson)
	s.mux.HandleFunc("DELETE /api/persons/{id}", s.handleDeletePerson)
	s.mux.HandleFunc("POST /api/persons/{id}/departments/{deptId}", s.handleAddPersonDepartment)
	s.mux.HandleFunc("DELETE /api/persons/{id}/departments/{deptId}", s.handleRemovePersonDepartment)

	// Collection management
	s.mux.HandleFunc("POST /api/collections", s.handleCreateCollection)
	s.mux.HandleFunc("PATCH /api/collections/{id}", s.handleUpdateCollection)
	s.mux.HandleFunc("DELETE /api/collections/{id}", s.handleDeleteCollection)
	s.mux.HandleFunc("POST /api/collections/{id}/contents/{contentId}", s.handleAddCollectionContent)
	s.mux.HandleFunc("DELETE /api/collections/{id}/contents/{contentId}", s.handleRemoveCollectionContent)
	s.mux.HandleFunc("PUT /api/collections/{id}/contents/{contentId}/rank", s.handleSetContentRank)

	// Media
	s.mux.HandleFunc("GET /api/contents/{id}/media", s.handleListMedia)
	s.mux.HandleFunc("POST /api/contents/{id}/media", s.handleUploadMedia)
	s.mux.HandleFunc("GET /api/media/{id}", s.handleGetMedia)
	s.mux.HandleFunc("PUT /api/media/{id}", s.handleUpdateMedia)
	s.mux.HandleFunc("DELETE /api/media/{id}", s.handleDeleteMedia)

	// User library
	s.mux.HandleFunc("GET /api/user/favorites", s.handleListFavorites)
	s.mux.HandleFunc("POST /api/user/favorites/{contentId}", s.handleAddFavorite)
	s.mux.HandleFunc("DELETE /api/user/favorites/{contentId}", s.handleRemoveFavorite)
	s.mux.HandleFunc("GET /api/user/history", s.handleListHistory)
	s.mux.HandleFunc("DELETE /api/user/history/{mediaId}", s.handleDeleteHistory)

	// Playback
	s.mux.HandleFunc("POST /api/player/sessions", s.handleStartPlayback)
	s.mux.HandleFunc("POST /api/player/sessions/{id}/position", s.handlePlaybackPosition)
	s.mux.HandleFunc("POST /api/player/sessions/{id}/pause", s.handlePlaybackPause)
	s.mux.HandleFunc("POST /api/player/sessions/{id}/resume", s.handlePlaybackResume)
	s.mux.HandleFunc("DELETE /api/player/sessions/{id}", s.handleEndPlayback)

	// Mirror sync
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
	s.mux.HandleFunc("GET /api/sync/status", s.handleSyncStatus)

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      withCORS(withLogging(s)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		s.players.stopAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"status":    "ok",
		"mirror":    s.store != nil,
		"cache":     s.redis != nil,
		"semantic":  s.embedder != nil && s.store != nil,
		"logged_in": s.sess.Active(),
	}
	if s.store != nil {
		if ts, err := s.store.LastSynced(r.Context()); err == nil && ts != "" {
			out["last_synced"] = ts
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- middleware ---

// withCORS adds CORS headers to every response and handles preflight OPTIONS requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withLogging wraps a handler and logs each request with method, path, status, and duration.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		statusCode := sw.status

		// Color the status code for terminal readability.
		statusColor := colorForStatus(statusCode)
		methodColor := colorForMethod(r.Method)

		log.Printf("%s %-7s %s\x1b[0m  %s %3d %s\x1b[0m  %s",
			methodColor, r.Method, "\x1b[0m",
			statusColor, statusCode, "\x1b[0m",
			formatDuration(duration),
		)
		if r.URL.RawQuery != "" {
			log.Printf("         %s?%s", r.URL.Path, r.URL.RawQuery)
		} else {
			log.Printf("         %s", r.URL.Path)
		}
	})
}

func colorForStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "\x1b[32m" // green
	case code >= 300 && code < 400:
		return "\x1b[36m" // cyan
	case code >= 400 && code < 500:
		return "\x1b[33m" // yellow
	default:
		return "\x1b[31m" // red
	}
}

func colorForMethod(method string) string {
	switch method {
	case http.MethodGet:
		return "\x1b[36m" // cyan
	case http.MethodPost:
		return "\x1b[32m" // green
	case http.MethodPatch, http.MethodPut:
		return "\x1b[33m" // yellow
	case http.MethodDelete:
		return "\x1b[31m" // red
	default:
		return "\x1b[37m" // white
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: %v", err)
	}
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		log.Printf("ERROR %d: %v", status, err)
	}
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

// writeUpstreamErr maps an upstream client error onto a facade status.
// Expired sessions surface as 401 (the client already wiped the stored
// tokens); upstream rejections keep their status; transport failures
// become 502.
func writeUpstreamErr(w http.ResponseWriter, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	if apiErr, ok := api.IsAPIError(err); ok {
		status := apiErr.HTTPStatus
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeErr(w, status, err)
		return
	}
	writeErr(w, http.StatusBadGateway, err)
}

func decodeBody[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}
