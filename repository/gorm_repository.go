package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/utils"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type tableModel struct {
	ID        string         `gorm:"primaryKey;type:uuid"`
	Title     string         `gorm:"not null;default:''"`
	Columns   datatypes.JSON `gorm:"type:jsonb;not null"`
	Rows      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (tableModel) TableName() string { return "table_data" }

type documentModel struct {
	ID        uint           `gorm:"primaryKey"`
	ShgID     string         `gorm:"column:shg_id;not null;uniqueIndex:idx_shg_documents_shg_doc"`
	DocType   string         `gorm:"column:doc_type;not null;uniqueIndex:idx_shg_documents_shg_doc"`
	Contents  datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (documentModel) TableName() string { return "shg_documents" }

type GormRepository struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&tableModel{}, &documentModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateTable(ctx context.Context, t dto.Table) (*dto.TableRecord, error) {
	m, err := newTableModel(uuid.NewString(), t)
	if err != nil {
		return nil, persistenceErr("encode table", err)
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, persistenceErr("create table", err)
	}
	return m.record(), nil
}

func (r *GormRepository) GetTable(ctx context.Context, id string) (*dto.TableRecord, error) {
	var m tableModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, lookupErr("table", err)
	}
	return m.record(), nil
}

func (r *GormRepository) UpdateTable(ctx context.Context, id string, t dto.Table) (*dto.TableRecord, error) {
	var m tableModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		updated, err := newTableModel(id, t)
		if err != nil {
			return err
		}
		m.Title, m.Columns, m.Rows = updated.Title, updated.Columns, updated.Rows
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, lookupErr("table", err)
	}
	return m.record(), nil
}

func (r *GormRepository) UpsertDocument(ctx context.Context, shgID, docType string, contents []dto.Table) (*dto.DocumentRecord, error) {
	raw, err := json.Marshal(nonNilTables(contents))
	if err != nil {
		return nil, persistenceErr("encode document", err)
	}

	m := documentModel{ShgID: shgID, DocType: docType, Contents: datatypes.JSON(raw)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shg_id"}, {Name: "doc_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"contents", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return nil, persistenceErr("upsert document", err)
	}
	return r.GetDocument(ctx, shgID, docType)
}

func (r *GormRepository) GetDocument(ctx context.Context, shgID, docType string) (*dto.DocumentRecord, error) {
	var m documentModel
	err := r.db.WithContext(ctx).
		Where("shg_id = ? AND doc_type = ?", shgID, docType).
		First(&m).Error
	if err != nil {
		return nil, lookupErr("document", err)
	}
	return m.record(), nil
}

func newTableModel(id string, t dto.Table) (tableModel, error) {
	columns, err := json.Marshal(nonNilStrings(t.Columns))
	if err != nil {
		return tableModel{}, err
	}
	rows, err := json.Marshal(nonNilRows(t.Rows))
	if err != nil {
		return tableModel{}, err
	}
	return tableModel{
		ID:      id,
		Title:   t.Title,
		Columns: datatypes.JSON(columns),
		Rows:    datatypes.JSON(rows),
	}, nil
}

// record re-normalizes the stored cells so rows written by older clients
// come back rectangular.
func (m tableModel) record() *dto.TableRecord {
	obj := utils.NewObject()
	if columns, err := utils.DecodeJSON(m.Columns); err == nil {
		obj.Set("columns", columns)
	}
	if rows, err := utils.DecodeJSON(m.Rows); err == nil {
		obj.Set("rows", rows)
	}
	t := utils.NormalizeTable(obj, 0)
	t.Title = m.Title

	return &dto.TableRecord{
		ID:        m.ID,
		Title:     t.Title,
		Columns:   t.Columns,
		Rows:      t.Rows,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m documentModel) record() *dto.DocumentRecord {
	return &dto.DocumentRecord{
		ID:        m.ID,
		ShgID:     m.ShgID,
		DocType:   m.DocType,
		Contents:  utils.Normalize([]byte(m.Contents)),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func lookupErr(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, dto.ErrNotFound)
	}
	return persistenceErr("load "+what, err)
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", dto.ErrPersistenceFailure, op, err)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRows(rows [][]string) [][]string {
	if rows == nil {
		return [][]string{}
	}
	return rows
}

func nonNilTables(tables []dto.Table) []dto.Table {
	if tables == nil {
		return []dto.Table{}
	}
	return tables
}
