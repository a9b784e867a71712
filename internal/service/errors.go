package service

import (
	"context"
	"errors"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// translate maps store sentinels to domain errors naming what. Domain errors
// and context errors pass through unchanged.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExistsf("%s already exists", what)
	case errors.Is(err, store.ErrTxConflict):
		return domainerrors.Conflictf("%s was modified concurrently, retry", what).WithCause(err)
	default:
		return domainerrors.Internal("failed to access "+what, err)
	}
}

// foreignPolicy decides how a record owned by another user is reported.
type foreignPolicy int

const (
	// foreignForbidden reports the record as existing but not yours.
	foreignForbidden foreignPolicy = iota
	// foreignHidden reports the record as missing.
	foreignHidden
)

// loadProgress returns ownerID's relation userBookID.
func loadProgress(ctx context.Context, tx store.Tx, ownerID, userBookID string, policy foreignPolicy) (*domain.BookProgress, error) {
	p, err := tx.GetProgress(ctx, userBookID)
	if err != nil {
		return nil, translate(err, "book "+userBookID)
	}
	if !p.OwnedBy(ownerID) {
		if policy == foreignHidden {
			return nil, domainerrors.NotFoundf("book %s not found", userBookID)
		}
		return nil, domainerrors.Forbiddenf("book %s belongs to another user", userBookID)
	}
	return p, nil
}
