package service

import (
	"fmt"
	"sync"

	"github.com/lekhapal/shg-digitizer/dto"
)

// TableStore holds an editable list of tables. Every mutation builds a new
// row, rows slice, table and list, so snapshots handed out earlier never change.
type TableStore struct {
	mu     sync.RWMutex
	tables []dto.Table
}

func NewTableStore(tables []dto.Table) *TableStore {
	return &TableStore{tables: cloneTables(tables)}
}

// Tables returns the current snapshot. Callers must not modify it.
func (s *TableStore) Tables() []dto.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables
}

func (s *TableStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

func (s *TableStore) Table(ti int) (dto.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ti < 0 || ti >= len(s.tables) {
		return dto.Table{}, outOfRange("table", ti)
	}
	return s.tables[ti], nil
}

func (s *TableStore) SetCell(ti, ri, ci int, value string) error {
	return s.update(ti, func(t dto.Table) (dto.Table, error) {
		if ri < 0 || ri >= len(t.Rows) {
			return t, outOfRange("row", ri)
		}
		if ci < 0 || ci >= len(t.Rows[ri]) {
			return t, outOfRange("column", ci)
		}
		row := copyStrings(t.Rows[ri])
		row[ci] = value
		rows := make([][]string, len(t.Rows))
		copy(rows, t.Rows)
		rows[ri] = row
		t.Rows = rows
		return t, nil
	})
}

func (s *TableStore) RenameColumn(ti, ci int, name string) error {
	return s.update(ti, func(t dto.Table) (dto.Table, error) {
		if ci < 0 || ci >= len(t.Columns) {
			return t, outOfRange("column", ci)
		}
		columns := copyStrings(t.Columns)
		columns[ci] = name
		t.Columns = columns
		return t, nil
	})
}

// AppendRow adds an empty row as wide as the table's columns.
func (s *TableStore) AppendRow(ti int) error {
	return s.update(ti, func(t dto.Table) (dto.Table, error) {
		rows := make([][]string, len(t.Rows), len(t.Rows)+1)
		copy(rows, t.Rows)
		t.Rows = append(rows, make([]string, len(t.Columns)))
		return t, nil
	})
}

func (s *TableStore) RemoveRow(ti, ri int) error {
	return s.update(ti, func(t dto.Table) (dto.Table, error) {
		if ri < 0 || ri >= len(t.Rows) {
			return t, outOfRange("row", ri)
		}
		rows := make([][]string, 0, len(t.Rows)-1)
		rows = append(rows, t.Rows[:ri]...)
		rows = append(rows, t.Rows[ri+1:]...)
		t.Rows = rows
		return t, nil
	})
}

// Take removes table ti from the list and returns it.
func (s *TableStore) Take(ti int) (dto.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ti < 0 || ti >= len(s.tables) {
		return dto.Table{}, outOfRange("table", ti)
	}
	taken := s.tables[ti]
	next := make([]dto.Table, 0, len(s.tables)-1)
	next = append(next, s.tables[:ti]...)
	next = append(next, s.tables[ti+1:]...)
	s.tables = next
	return taken, nil
}

func (s *TableStore) update(ti int, fn func(dto.Table) (dto.Table, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ti < 0 || ti >= len(s.tables) {
		return outOfRange("table", ti)
	}
	updated, err := fn(s.tables[ti])
	if err != nil {
		return err
	}
	next := make([]dto.Table, len(s.tables))
	copy(next, s.tables)
	next[ti] = updated
	s.tables = next
	return nil
}

// ApplyEdits runs a batch of edits in order and stops at the first failure.
// Edits applied before the failure remain in store, so a caller that wants
// all-or-nothing semantics must discard store on error, as EditDocument does.
func ApplyEdits(store *TableStore, edits []dto.TableEdit) error {
	for i, e := range edits {
		var err error
		switch e.Op {
		case dto.EditSetCell:
			err = store.SetCell(e.Table, e.Row, e.Column, e.Value)
		case dto.EditRenameColumn:
			err = store.RenameColumn(e.Table, e.Column, e.Value)
		case dto.EditAppendRow:
			err = store.AppendRow(e.Table)
		case dto.EditRemoveRow:
			err = store.RemoveRow(e.Table, e.Row)
		case dto.EditRemoveTable:
			_, err = store.Take(e.Table)
		default:
			err = fmt.Errorf("%w: unknown edit op %q", dto.ErrMalformedInput, e.Op)
		}
		if err != nil {
			return fmt.Errorf("edit %d: %w", i, err)
		}
	}
	return nil
}

func outOfRange(what string, i int) error {
	return fmt.Errorf("%w: %s %d", dto.ErrIndexOutOfRange, what, i)
}

func cloneTables(tables []dto.Table) []dto.Table {
	out := make([]dto.Table, len(tables))
	for i, t := range tables {
		rows := make([][]string, len(t.Rows))
		for j, r := range t.Rows {
			rows[j] = copyStrings(r)
		}
		out[i] = dto.Table{
			Title:   t.Title,
			Columns: copyStrings(t.Columns),
			Rows:    rows,
		}
	}
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
