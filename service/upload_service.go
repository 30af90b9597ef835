package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/repository"
	"go.uber.org/zap"
)

// UploadService runs an uploaded file through classification, local parsing
// or AI extraction, normalization and persistence.
type UploadService struct {
	extraction *ExtractionService
	repo       repository.Repository
	logger     *zap.Logger
}

func NewUploadService(extraction *ExtractionService, repo repository.Repository, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		extraction: extraction,
		repo:       repo,
		logger:     logger,
	}
}

// ExtractTables turns an upload into normalized tables without saving them.
func (s *UploadService) ExtractTables(ctx context.Context, in dto.UploadInput) ([]dto.Table, error) {
	mimeType := DetectMIME(in.Data, in.DeclaredMIME, in.Filename)

	category, err := Classify(in.Filename, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q (%s)", err, in.Filename, mimeType)
	}

	s.logger.Info("processing upload",
		zap.String("filename", in.Filename),
		zap.String("mime_type", mimeType),
		zap.String("category", string(category)),
		zap.Int("bytes", len(in.Data)))

	switch category {
	case dto.CategoryCSV:
		return ParseCSV(in.Data, CSVOptions{HeaderRow: in.HeaderRow, Title: tableTitle(in.Filename)})
	case dto.CategorySpreadsheet:
		return ParseSpreadsheet(in.Data, tableTitle(in.Filename))
	case dto.CategoryAIFallback:
		return s.extraction.Extract(ctx, ExtractionInput{
			Data:     in.Data,
			MIMEType: mimeType,
			Filename: in.Filename,
			DocType:  in.DocType,
		})
	}
	return nil, dto.ErrUnsupportedFileType
}

// Upload extracts the tables of an upload and saves the first usable one.
// When both ShgID and DocType are given, all usable tables are also stored
// as that SHG's document.
func (s *UploadService) Upload(ctx context.Context, in dto.UploadInput) (*dto.UploadResponse, error) {
	tables, err := s.ExtractTables(ctx, in)
	if err != nil {
		return nil, err
	}

	usable := usableTables(tables)
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: %d table(s) without columns", dto.ErrNoTablesExtracted, len(tables))
	}

	rec, err := s.repo.CreateTable(ctx, usable[0])
	if err != nil {
		return nil, &dto.PersistenceError{Tables: tables, Err: err}
	}

	resp := &dto.UploadResponse{TableID: rec.ID, Tables: tables}

	if in.ShgID != "" && in.DocType != "" {
		doc, err := s.repo.UpsertDocument(ctx, in.ShgID, in.DocType, usable)
		if err != nil {
			return nil, &dto.PersistenceError{Tables: tables, Err: err}
		}
		resp.DocumentID = doc.ID
	}

	s.logger.Info("upload saved",
		zap.String("table_id", rec.ID),
		zap.Int("tables", len(tables)),
		zap.Uint("document_id", resp.DocumentID))
	return resp, nil
}

func usableTables(tables []dto.Table) []dto.Table {
	out := make([]dto.Table, 0, len(tables))
	for _, t := range tables {
		if t.Usable() {
			out = append(out, t)
		}
	}
	return out
}

// tableTitle uses the uploaded file name as the title of locally parsed tables.
func tableTitle(filename string) string {
	if strings.TrimSpace(filename) == "" {
		return ""
	}
	return strings.TrimSpace(filepath.Base(filename))
}
