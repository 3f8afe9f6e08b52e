package identity

import (
	"context"

	"github.com/uptrace/bun"
)

// Files exposes the one operation the status surface needs from the
// out-of-scope files resource.
type Files interface {
	Count(ctx context.Context) (int, error)
}

type files struct {
	db *bun.DB
}

var _ Files = (*files)(nil)

func NewFilesRepository(db *bun.DB) Files {
	return &files{db: db}
}

func (a *files) Count(ctx context.Context) (int, error) {
	return a.db.NewSelect().Model((*File)(nil)).Count(ctx)
}
