package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/repository"
	"github.com/lekhapal/shg-digitizer/utils"
	"go.uber.org/zap"
)

// DocumentService serves the stored tables: single uploaded tables by id and
// per-SHG documents by (shg id, document type).
type DocumentService struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewDocumentService(repo repository.Repository, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, logger: logger}
}

func (s *DocumentService) GetTable(ctx context.Context, id string) (*dto.TableRecord, error) {
	return s.repo.GetTable(ctx, id)
}

// UpdateTable replaces the cells of a stored table. Rows must be a 2-D array
// and columns, when given, an array; title and columns default to the stored
// values. The result is normalized before it is saved.
func (s *DocumentService) UpdateTable(ctx context.Context, id string, req dto.TableUpdateRequest) (*dto.TableRecord, error) {
	rows, err := decodeRows(req.Rows)
	if err != nil {
		return nil, err
	}
	columns, hasColumns, err := decodeColumns(req.Columns)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}

	obj := utils.NewObject()
	if req.Title != nil {
		obj.Set("title", *req.Title)
	} else {
		obj.Set("title", existing.Title)
	}
	if hasColumns {
		obj.Set("columns", columns)
	} else {
		obj.Set("columns", stringsToValues(existing.Columns))
	}
	obj.Set("rows", rows)

	table := utils.NormalizeTable(obj, 0)
	if !table.Usable() {
		return nil, fmt.Errorf("%w: table must keep at least one column", dto.ErrMalformedInput)
	}
	return s.repo.UpdateTable(ctx, id, table)
}

// ExportTableCSV renders a stored table as CSV with a download filename.
func (s *DocumentService) ExportTableCSV(ctx context.Context, id string) (string, string, error) {
	rec, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return "", "", err
	}
	out, err := utils.ToCSV(rec.Table())
	if err != nil {
		return "", "", err
	}
	return out, utils.CSVFilename(rec.Title), nil
}

func (s *DocumentService) GetDocument(ctx context.Context, shgID, docType string) (*dto.DocumentResponse, error) {
	doc, err := s.repo.GetDocument(ctx, shgID, docType)
	if err != nil {
		return nil, err
	}
	return documentResponse(doc), nil
}

// SaveDocument normalizes contents, in any shape the normalizer accepts, and
// inserts or replaces the document. Tables without columns are dropped, as on
// upload.
func (s *DocumentService) SaveDocument(ctx context.Context, shgID, docType string, contents json.RawMessage) (*dto.DocumentResponse, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("%w: contents is required", dto.ErrMalformedInput)
	}
	normalized := utils.Normalize([]byte(contents))
	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: contents hold no tables", dto.ErrMalformedInput)
	}
	tables := usableTables(normalized)
	if len(tables) == 0 {
		return nil, dto.ErrNoTablesExtracted
	}

	doc, err := s.repo.UpsertDocument(ctx, shgID, docType, tables)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document saved",
		zap.String("shg_id", shgID),
		zap.String("doc_type", docType),
		zap.Int("tables", len(tables)))
	return documentResponse(doc), nil
}

// EditDocument applies a batch of edits to a stored document. Nothing is
// saved unless every edit succeeds.
func (s *DocumentService) EditDocument(ctx context.Context, shgID, docType string, edits []dto.TableEdit) (*dto.DocumentResponse, error) {
	if len(edits) == 0 {
		return nil, fmt.Errorf("%w: no edits given", dto.ErrMalformedInput)
	}

	doc, err := s.repo.GetDocument(ctx, shgID, docType)
	if err != nil {
		return nil, err
	}

	store := NewTableStore(doc.Contents)
	if err := ApplyEdits(store, edits); err != nil {
		return nil, err
	}

	saved, err := s.repo.UpsertDocument(ctx, shgID, docType, store.Tables())
	if err != nil {
		return nil, err
	}
	return documentResponse(saved), nil
}

// ExportDocumentCSV renders table index of a stored document as CSV.
func (s *DocumentService) ExportDocumentCSV(ctx context.Context, shgID, docType string, index int) (string, string, error) {
	doc, err := s.repo.GetDocument(ctx, shgID, docType)
	if err != nil {
		return "", "", err
	}

	t, err := NewTableStore(doc.Contents).Table(index)
	if err != nil {
		return "", "", err
	}
	out, err := utils.ToCSV(t)
	if err != nil {
		return "", "", err
	}
	return out, utils.CSVFilename(t.Title), nil
}

func documentResponse(doc *dto.DocumentRecord) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		ID:       doc.ID,
		ShgID:    doc.ShgID,
		DocType:  doc.DocType,
		Contents: utils.Normalize(doc.Contents),
	}
}

func decodeRows(raw json.RawMessage) ([]any, error) {
	v, err := decodeRaw(raw)
	if err != nil {
		return nil, err
	}
	rows, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: rows must be a 2D array", dto.ErrMalformedInput)
	}
	for _, r := range rows {
		if _, isRow := r.([]any); !isRow {
			return nil, fmt.Errorf("%w: rows must be a 2D array", dto.ErrMalformedInput)
		}
	}
	return rows, nil
}

func decodeColumns(raw json.RawMessage) ([]any, bool, error) {
	v, err := decodeRaw(raw)
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		return nil, false, nil
	}
	columns, ok := v.([]any)
	if !ok {
		return nil, false, fmt.Errorf("%w: columns must be an array", dto.ErrMalformedInput)
	}
	return columns, true, nil
}

func decodeRaw(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	v, err := utils.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dto.ErrMalformedInput, err)
	}
	return v, nil
}

func stringsToValues(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
