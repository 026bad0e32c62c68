package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Or returns the transaction, or db when none is set.
func (c Context) Or(db *gorm.DB) *gorm.DB {
	if c.Tx != nil {
		return c.Tx
	}
	return db
}
