package server

import (
	"sync"

	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/syncview"
)

// Workspace holds the management views of the catalog: the full content
// list plus per-content cast and director lists. Each list is loaded
// from the upstream once and then kept in step with every local write,
// so management screens never need a refetch to see their own changes.
type Workspace struct {
	mu        sync.Mutex
	contents  *syncview.List[models.Content]
	cast      map[string]*syncview.List[models.CastMember]
	directors map[string]*syncview.List[models.Director]
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		contents:  syncview.NewList[models.Content](),
		cast:      make(map[string]*syncview.List[models.CastMember]),
		directors: make(map[string]*syncview.List[models.Director]),
	}
}

// Contents returns the shared content list.
func (w *Workspace) Contents() *syncview.List[models.Content] {
	return w.contents
}

// Cast returns the cast list for one content, creating it on first use.
func (w *Workspace) Cast(contentID string) *syncview.List[models.CastMember] {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.cast[contentID]
	if !ok {
		l = syncview.NewList[models.CastMember]()
		w.cast[contentID] = l
	}
	return l
}

// Directors returns the director list for one content, creating it on
// first use.
func (w *Workspace) Directors(contentID string) *syncview.List[models.Director] {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.directors[contentID]
	if !ok {
		l = syncview.NewList[models.Director]()
		w.directors[contentID] = l
	}
	return l
}

// DropContent removes a deleted content from the shared list along with
// its credit lists.
func (w *Workspace) DropContent(contentID string) {
	w.contents.Remove(contentID)
	w.mu.Lock()
	delete(w.cast, contentID)
	delete(w.directors, contentID)
	w.mu.Unlock()
}
