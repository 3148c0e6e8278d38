package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yudswin/nettube/internal/cache"
	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/store"
)

// embedBatchLimit caps how many contents one refresh pass vectorises.
const embedBatchLimit = 512

// dequeueBackoff spaces retries when the job queue itself fails, e.g.
// while Redis is restarting. Without it the worker would spin on the
// broken connection.
const dequeueBackoff = 2 * time.Second

// Embedder vectorises texts. inputType is "document" for stored
// overviews and "query" for search queries.
type Embedder interface {
	Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error)
	EmbedBatch(ctx context.Context, texts []string, inputType string) ([][]float32, error)
}

// RefreshEmbeddings vectorises the overviews of the given contents, or
// of every content still missing a vector when ids is empty. It returns
// how many contents were embedded.
func RefreshEmbeddings(ctx context.Context, s store.Store, emb Embedder, ids []string) (int, error) {
	var contents []models.Content
	if len(ids) == 0 {
		var err error
		contents, err = s.ListContentsWithoutEmbeddings(ctx, embedBatchLimit)
		if err != nil {
			return 0, fmt.Errorf("list pending: %w", err)
		}
	} else {
		for _, id := range ids {
			ct, err := s.GetContentByID(ctx, id)
			if err != nil {
				if err == store.ErrNotFound {
					continue
				}
				return 0, err
			}
			contents = append(contents, *ct)
		}
	}
	if len(contents) == 0 {
		return 0, nil
	}

	texts := make([]string, len(contents))
	contentIDs := make([]string, len(contents))
	for i, ct := range contents {
		texts[i] = embedText(&ct)
		contentIDs[i] = ct.ID
	}

	vecs, err := emb.EmbedBatch(ctx, texts, "document")
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if err := s.StoreEmbeddings(ctx, contentIDs, vecs); err != nil {
		return 0, fmt.Errorf("store embeddings: %w", err)
	}
	return len(contents), nil
}

// embedText builds the document text for one content. Title alone is a
// poor signal, so type and overview are folded in.
func embedText(ct *models.Content) string {
	parts := []string{ct.Title, ct.Type}
	if ct.Overview != "" {
		parts = append(parts, ct.Overview)
	}
	return strings.Join(parts, ". ")
}

// EmbedWorker drains the embedding job queue until ctx is cancelled.
// Run it in its own goroutine.
func EmbedWorker(ctx context.Context, r *cache.Redis, s store.Store, emb Embedder) {
	log.Printf("embed worker: started (queue %s)", cache.DefaultQueue)
	for {
		job, err := cache.Dequeue(ctx, r, cache.DefaultQueue, 5*time.Second)
		if err != nil {
			log.Printf("embed worker: dequeue: %v", err)
			select {
			case <-ctx.Done():
				log.Printf("embed worker: stopped")
				return
			case <-time.After(dequeueBackoff):
			}
			continue
		}
		if ctx.Err() != nil {
			log.Printf("embed worker: stopped")
			return
		}
		if job == nil {
			continue
		}
		n, err := RefreshEmbeddings(ctx, s, emb, job.ContentIDs)
		if err != nil {
			log.Printf("embed worker: job (%s): %v", job.Reason, err)
			continue
		}
		log.Printf("embed worker: job (%s) embedded %d contents", job.Reason, n)
	}
}
