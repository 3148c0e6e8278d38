package syncview

import (
	"context"
	"fmt"

	"github.com/yudswin/nettube/internal/models"
)

// CastAPI is the slice of the upstream client the cast flow needs.
type CastAPI interface {
	AddCast(ctx context.Context, cm models.CastMember) (*models.CastMember, error)
	RemoveCast(ctx context.Context, contentID, personID string) error
}

// DirectorAPI is the slice of the upstream client the director flow needs.
type DirectorAPI interface {
	AddDirector(ctx context.Context, d models.Director) (*models.Director, error)
	RemoveDirector(ctx context.Context, contentID, personID string) error
}

// UpdateCast edits a cast row. The upstream has no cast PATCH, so the
// update is remove-then-add. If the add fails the removed row is
// restored, so (contentID, personID) always ends with exactly one row:
// the edited one on success, the original on failure.
func UpdateCast(ctx context.Context, api CastAPI, list *List[models.CastMember], old, updated models.CastMember) error {
	if old.ContentID != updated.ContentID || old.PersonID != updated.PersonID {
		return fmt.Errorf("cast update must keep the same content/person pair")
	}

	// The remove must resolve before the add, or the upstream would
	// reject the new row as a duplicate.
	if err := api.RemoveCast(ctx, old.ContentID, old.PersonID); err != nil {
		return fmt.Errorf("remove cast: %w", err)
	}

	created, err := api.AddCast(ctx, updated)
	if err != nil {
		// Restore the original row so the pair is not left without one.
		if _, rerr := api.AddCast(ctx, old); rerr != nil {
			return fmt.Errorf("add cast: %w (restore also failed: %v; cast row for person %s is gone)",
				err, rerr, old.PersonID)
		}
		return fmt.Errorf("add cast: %w (original row restored)", err)
	}

	if list != nil {
		list.Replace(*created)
	}
	return nil
}

// UpdateDirector edits a director row with the same remove-then-add
// flow and restore-on-failure guarantee as UpdateCast.
func UpdateDirector(ctx context.Context, api DirectorAPI, list *List[models.Director], old, updated models.Director) error {
	if old.ContentID != updated.ContentID || old.PersonID != updated.PersonID {
		return fmt.Errorf("director update must keep the same content/person pair")
	}

	if err := api.RemoveDirector(ctx, old.ContentID, old.PersonID); err != nil {
		return fmt.Errorf("remove director: %w", err)
	}

	created, err := api.AddDirector(ctx, updated)
	if err != nil {
		if _, rerr := api.AddDirector(ctx, old); rerr != nil {
			return fmt.Errorf("add director: %w (restore also failed: %v; director row for person %s is gone)",
				err, rerr, old.PersonID)
		}
		return fmt.Errorf("add director: %w (original row restored)", err)
	}

	if list != nil {
		list.Replace(*created)
	}
	return nil
}
