package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/yudswin/nettube/internal/cache"
	"github.com/yudswin/nettube/internal/service"
)

// syncLockTTL bounds how long a crashed sync keeps the lock.
const syncLockTTL = 30 * time.Minute

// handleSync kicks off a catalog mirror sync. Large catalogs can take
// longer than the HTTP write timeout, so the sync runs in the
// background with a detached context and the handler returns 202.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("mirror sync requires DATABASE_URL"))
		return
	}

	var unlock func()
	if s.redis != nil {
		var err error
		unlock, err = cache.TryLock(r.Context(), s.redis, cache.SyncLock, syncLockTTL)
		if err != nil {
			if errors.Is(err, cache.ErrLocked) {
				writeErr(w, http.StatusConflict, fmt.Errorf("a sync is already running"))
				return
			}
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	}

	go func() {
		if unlock != nil {
			defer unlock()
		}
		bgCtx := context.Background()
		stats, err := service.Sync(bgCtx, s.upstream, s.store)
		if err != nil {
			log.Printf("sync: %v", err)
			return
		}
		log.Printf("sync: %d contents, %d collections, %d persons (removed %d/%d)",
			stats.Contents, stats.Collections, stats.Persons, stats.RemovedContents, stats.RemovedCollections)

		if s.embedder == nil {
			return
		}
		// Refresh vectors for anything the sync left without one. When
		// Redis is up the worker picks the job off the queue; otherwise
		// embed inline while still in the background.
		if s.redis != nil {
			if err := cache.Enqueue(bgCtx, s.redis, cache.DefaultQueue, cache.EmbedJob{Reason: "sync"}); err != nil {
				log.Printf("sync: enqueue embed job: %v", err)
			}
			return
		}
		n, err := service.RefreshEmbeddings(bgCtx, s.store, s.embedder, nil)
		if err != nil {
			log.Printf("sync: refresh embeddings: %v", err)
			return
		}
		log.Printf("sync: embedded %d contents", n)
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"started": true})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("mirror sync requires DATABASE_URL"))
		return
	}

	out := map[string]any{}
	ts, err := s.store.LastSynced(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	out["last_synced"] = ts
	if s.redis != nil {
		out["running"] = cache.IsLocked(r.Context(), s.redis, cache.SyncLock)
	}
	writeJSON(w, http.StatusOK, out)
}
