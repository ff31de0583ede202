package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the request context plus an optional transaction handle.
// Repos run against Tx when present and fall back to their own db otherwise.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func Background() Context {
	return Context{Ctx: context.Background()}
}
