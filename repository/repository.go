package repository

import (
	"context"

	"github.com/lekhapal/shg-digitizer/dto"
)

// Repository persists uploaded tables and per-SHG documents. Missing rows
// yield dto.ErrNotFound; storage errors wrap dto.ErrPersistenceFailure.
type Repository interface {
	CreateTable(ctx context.Context, t dto.Table) (*dto.TableRecord, error)
	GetTable(ctx context.Context, id string) (*dto.TableRecord, error)
	UpdateTable(ctx context.Context, id string, t dto.Table) (*dto.TableRecord, error)

	// UpsertDocument inserts the document for (shgID, docType) or replaces
	// the contents of the existing one.
	UpsertDocument(ctx context.Context, shgID, docType string, contents []dto.Table) (*dto.DocumentRecord, error)
	GetDocument(ctx context.Context, shgID, docType string) (*dto.DocumentRecord, error)
}
