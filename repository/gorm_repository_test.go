package repository

import (
	"testing"

	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestTableModelRoundTrip(t *testing.T) {
	m, err := newTableModel("id-1", dto.Table{Title: "Loan", Columns: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}})
	require.NoError(t, err)

	assert.JSONEq(t, `["a","b"]`, string(m.Columns))
	assert.JSONEq(t, `[["1","2"]]`, string(m.Rows))

	rec := m.record()
	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "Loan", rec.Title)
	assert.Equal(t, []string{"a", "b"}, rec.Columns)
	assert.Equal(t, [][]string{{"1", "2"}}, rec.Rows)
}

func TestTableModelEncodesEmptyAsArrays(t *testing.T) {
	m, err := newTableModel("id-2", dto.Table{})
	require.NoError(t, err)

	assert.Equal(t, "[]", string(m.Columns))
	assert.Equal(t, "[]", string(m.Rows))
}

func TestTableModelRecordRectangularizesLegacyRows(t *testing.T) {
	m := tableModel{
		ID:      "id-3",
		Title:   "Legacy",
		Columns: datatypes.JSON(`["a","b"]`),
		Rows:    datatypes.JSON(`[["1"],["1","2","3"]]`),
	}

	rec := m.record()

	assert.Equal(t, [][]string{{"1", ""}, {"1", "2"}}, rec.Rows)
}

func TestDocumentModelRecordNormalizesContents(t *testing.T) {
	m := documentModel{
		ID:       7,
		ShgID:    "shg-1",
		DocType:  dto.DocTypeSavings,
		Contents: datatypes.JSON(`[{"title":"Savings","rows":[{"Name":"Lalita","Amount":100}]}]`),
	}

	rec := m.record()

	require.Len(t, rec.Contents, 1)
	assert.Equal(t, []string{"Name", "Amount"}, rec.Contents[0].Columns)
	assert.Equal(t, [][]string{{"Lalita", "100"}}, rec.Contents[0].Rows)
}
