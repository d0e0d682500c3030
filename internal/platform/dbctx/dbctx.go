// Package dbctx carries the request context and, when the caller has
// already opened one, the GORM transaction a repository call should run
// inside. Repos fall back to their own connection when Tx is nil, which
// also lets tests route everything through a single rolled-back tx.
package dbctx

import (
	"context"

	"gorm.io/gorm"
)

type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
