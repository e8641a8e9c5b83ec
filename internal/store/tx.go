package store

import (
	"context"
	"database/sql"

	"github.com/vbonduro/mcprogress/internal/db"
)

// Set groups the stores bound to one unit of work.
type Set struct {
	Items      *ItemStore
	Categories *CategoryStore
	Scenes     *SceneStore
	Diagrams   *DiagramStore
}

func NewSet(db DBTX) *Set {
	return &Set{
		Items:      NewItemStore(db),
		Categories: NewCategoryStore(db),
		Scenes:     NewSceneStore(db),
		Diagrams:   NewDiagramStore(db),
	}
}

// TxManager opens transactions on a database and hands fn a Set bound to them.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(database *sql.DB) *TxManager {
	return &TxManager{db: database}
}

// Read runs fn in a read-only transaction. Read-only transactions begin
// DEFERRED, so they do not take the write lock.
func (m *TxManager) Read(ctx context.Context, fn func(s *Set) error) error {
	return db.WithTx(ctx, m.db, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		return fn(NewSet(tx))
	})
}

// Write runs fn in a read-write transaction.
func (m *TxManager) Write(ctx context.Context, fn func(s *Set) error) error {
	return db.WithTx(ctx, m.db, nil, func(tx *sql.Tx) error {
		return fn(NewSet(tx))
	})
}
