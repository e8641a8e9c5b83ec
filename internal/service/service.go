// Package service holds the application operations on top of the stores:
// scene packaging and the library reads and writes around it.
package service

import (
	"context"

	"github.com/vbonduro/mcprogress/internal/store"
)

// unitOfWork runs fn with stores bound to one transaction. It is satisfied by
// store.TxManager.
type unitOfWork interface {
	Read(ctx context.Context, fn func(s *store.Set) error) error
	Write(ctx context.Context, fn func(s *store.Set) error) error
}
