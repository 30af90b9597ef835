package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/utils"
)

// MemoryRepository keeps everything in process memory. It backs the server
// when no DATABASE_URL is configured and is used by tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	tables    map[string]dto.TableRecord
	documents map[string]dto.DocumentRecord
	nextDocID uint
	now       func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tables:    make(map[string]dto.TableRecord),
		documents: make(map[string]dto.DocumentRecord),
		now:       time.Now,
	}
}

func (r *MemoryRepository) CreateTable(_ context.Context, t dto.Table) (*dto.TableRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	rec := dto.TableRecord{
		ID:        uuid.NewString(),
		Title:     t.Title,
		Columns:   copyStrings(t.Columns),
		Rows:      copyRows(t.Rows),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.tables[rec.ID] = rec
	return cloneTableRecord(rec), nil
}

func (r *MemoryRepository) GetTable(_ context.Context, id string) (*dto.TableRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.tables[id]
	if !ok {
		return nil, fmt.Errorf("table: %w", dto.ErrNotFound)
	}
	return cloneTableRecord(rec), nil
}

func (r *MemoryRepository) UpdateTable(_ context.Context, id string, t dto.Table) (*dto.TableRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tables[id]
	if !ok {
		return nil, fmt.Errorf("table: %w", dto.ErrNotFound)
	}
	rec.Title = t.Title
	rec.Columns = copyStrings(t.Columns)
	rec.Rows = copyRows(t.Rows)
	rec.UpdatedAt = r.now()
	r.tables[id] = rec
	return cloneTableRecord(rec), nil
}

func (r *MemoryRepository) UpsertDocument(_ context.Context, shgID, docType string, contents []dto.Table) (*dto.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := documentKey(shgID, docType)
	now := r.now()
	rec, ok := r.documents[key]
	if !ok {
		r.nextDocID++
		rec = dto.DocumentRecord{ID: r.nextDocID, ShgID: shgID, DocType: docType, CreatedAt: now}
	}
	rec.Contents = utils.Normalize(contents)
	rec.UpdatedAt = now
	r.documents[key] = rec
	return cloneDocumentRecord(rec), nil
}

func (r *MemoryRepository) GetDocument(_ context.Context, shgID, docType string) (*dto.DocumentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.documents[documentKey(shgID, docType)]
	if !ok {
		return nil, fmt.Errorf("document: %w", dto.ErrNotFound)
	}
	return cloneDocumentRecord(rec), nil
}

func documentKey(shgID, docType string) string {
	return shgID + "\x00" + docType
}

func cloneTableRecord(rec dto.TableRecord) *dto.TableRecord {
	rec.Columns = copyStrings(rec.Columns)
	rec.Rows = copyRows(rec.Rows)
	return &rec
}

func cloneDocumentRecord(rec dto.DocumentRecord) *dto.DocumentRecord {
	contents := make([]dto.Table, len(rec.Contents))
	for i, t := range rec.Contents {
		contents[i] = dto.Table{Title: t.Title, Columns: copyStrings(t.Columns), Rows: copyRows(t.Rows)}
	}
	rec.Contents = contents
	return &rec
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, r := range in {
		out[i] = copyStrings(r)
	}
	return out
}
