package ports

import (
	"context"

	"goanova/domain/core"
	"goanova/domain/table"
)

// TableInfo summarizes one stored table for listings
type TableInfo struct {
	ID        core.TableID   `json:"id"`
	Name      string         `json:"name"`
	Rows      int            `json:"rows"`
	Cols      int            `json:"cols"`
	Hash      core.TableHash `json:"hash"`
	CreatedAt core.Timestamp `json:"created_at"`
	UpdatedAt core.Timestamp `json:"updated_at"`
}

// TableStore defines the interface for table storage operations.
// Analyses read a snapshot through Get; only derivations write back,
// through Replace.
type TableStore interface {
	Put(ctx context.Context, name string, tbl table.Table) (core.TableID, error)
	Get(ctx context.Context, id core.TableID) (table.Table, error)
	Replace(ctx context.Context, id core.TableID, tbl table.Table) error
	List(ctx context.Context) ([]TableInfo, error)
	Delete(ctx context.Context, id core.TableID) error
}
