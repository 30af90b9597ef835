package dto

import "time"

// Table is the canonical unit every parsing path converges to.
// After normalization every row has exactly len(Columns) cells.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has neither columns nor rows.
func (t Table) Empty() bool {
	return len(t.Columns) == 0 && len(t.Rows) == 0
}

// Usable reports whether the table is safe to persist.
func (t Table) Usable() bool {
	return len(t.Columns) > 0
}

// TableRecord is a single uploaded table as stored by the server variant.
type TableRecord struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Table returns the record's table part.
func (r TableRecord) Table() Table {
	return Table{Title: r.Title, Columns: r.Columns, Rows: r.Rows}
}

// DocumentRecord holds every table extracted for one SHG document type.
type DocumentRecord struct {
	ID        uint      `json:"id"`
	ShgID     string    `json:"shg_id"`
	DocType   string    `json:"doc_type"`
	Contents  []Table   `json:"contents"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileCategory is the parsing strategy picked for an uploaded file.
type FileCategory string

const (
	CategoryCSV         FileCategory = "csv"
	CategorySpreadsheet FileCategory = "spreadsheet"
	CategoryAIFallback  FileCategory = "ai-fallback"
)

// Document types known to the extraction prompts.
const (
	DocTypeProfile             = "SHG Profile"
	DocTypeReceipts            = "Receipts by SHG"
	DocTypeExpenditure         = "Expenditure by SHG"
	DocTypeSavings             = "Savings"
	DocTypeShgLoanRepayment    = "Loan Taken & Repayment by SHG"
	DocTypeMemberLoanRepayment = "Loan Taken & Repayment by Members"
	DocTypeOthers              = "Others"
)

// Edit operations accepted by the document edit endpoint.
const (
	EditSetCell      = "set_cell"
	EditRenameColumn = "rename_column"
	EditAppendRow    = "append_row"
	EditRemoveRow    = "remove_row"
	EditRemoveTable  = "remove_table"
)

// TableEdit is one mutation applied to a stored table list.
type TableEdit struct {
	Op     string `json:"op"`
	Table  int    `json:"table"`
	Row    int    `json:"row,omitempty"`
	Column int    `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
}
