package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/yudswin/nettube/internal/player"
)

// playerRegistry tracks live playback sessions by reporter id.
type playerRegistry struct {
	mu       sync.Mutex
	sessions map[string]*player.Reporter
}

func newPlayerRegistry() *playerRegistry {
	return &playerRegistry{sessions: make(map[string]*player.Reporter)}
}

func (p *playerRegistry) add(r *player.Reporter) {
	p.mu.Lock()
	p.sessions[r.ID] = r
	p.mu.Unlock()
}

func (p *playerRegistry) get(id string) (*player.Reporter, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.sessions[id]
	return r, ok
}

func (p *playerRegistry) remove(id string) {
	p.mu.Lock()
	delete(p.sessions, id)
	p.mu.Unlock()
}

// stopAll tears down every live session without a final report. Used
// on server shutdown.
func (p *playerRegistry) stopAll() {
	p.mu.Lock()
	sessions := make([]*player.Reporter, 0, len(p.sessions))
	for _, r := range p.sessions {
		sessions = append(sessions, r)
	}
	p.sessions = make(map[string]*player.Reporter)
	p.mu.Unlock()

	for _, r := range sessions {
		r.Stop()
	}
}

// --- handlers ---

type startPlaybackRequest struct {
	MediaID string `json:"mediaId"`
}

func (s *Server) handleStartPlayback(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[startPlaybackRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.MediaID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("mediaId is required"))
		return
	}
	if !s.sess.Active() {
		writeErr(w, http.StatusUnauthorized, fmt.Errorf("playback requires a logged-in session"))
		return
	}

	streamURL, err := s.upstream.ResolveWatch(r.Context(), req.MediaID)
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}

	user := s.sess.User()
	if user == nil {
		user, err = s.upstream.Me(r.Context())
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
	}

	reporter := player.NewReporter(s.upstream, user.ID, req.MediaID)
	resume, err := reporter.Start(r.Context())
	if err != nil {
		writeUpstreamErr(w, err)
		return
	}
	s.players.add(reporter)

	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": reporter.ID,
		"url":       streamURL,
		"resume":    resume,
	})
}

type positionRequest struct {
	Current  float64 `json:"current"`
	Duration float64 `json:"duration"`
}

func (s *Server) handlePlaybackPosition(w http.ResponseWriter, r *http.Request) {
	reporter, ok := s.players.get(r.PathValue("id"))
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("playback session not found"))
		return
	}
	req, err := decodeBody[positionRequest](r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	reporter.UpdatePosition(req.Current, req.Duration)

	progress, completed := player.Progress(req.Current, req.Duration)
	writeJSON(w, http.StatusOK, map[string]any{
		"progress":  progress,
		"completed": completed,
	})
}

func (s *Server) handlePlaybackPause(w http.ResponseWriter, r *http.Request) {
	reporter, ok := s.players.get(r.PathValue("id"))
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("playback session not found"))
		return
	}
	reporter.Pause(r.Context())
	writeNoContent(w)
}

func (s *Server) handlePlaybackResume(w http.ResponseWriter, r *http.Request) {
	reporter, ok := s.players.get(r.PathValue("id"))
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("playback session not found"))
		return
	}
	reporter.Resume()
	writeNoContent(w)
}

func (s *Server) handleEndPlayback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	reporter, ok := s.players.get(id)
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("playback session not found"))
		return
	}
	reporter.End(r.Context())
	s.players.remove(id)
	writeNoContent(w)
}
