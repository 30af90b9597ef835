package utils

import (
	"fmt"
	"strings"

	"github.com/lekhapal/shg-digitizer/dto"
)

// Titles and fixed columns of the tables synthesized from SHG profile payloads.
const (
	ProfileTitle = "SHG PROFILE"
	MembersTitle = "DETAILS OF MEMBERS"
	BalanceTitle = "BALANCE SHEET"
)

var (
	fieldValueColumns = []string{"Field", "Value"}

	memberColumns = []string{"S.NO.", "NAME", "ID (IF ANY)", "DATE OF JOINING", "DATE OF LEAVING"}
	memberKeys    = []string{"sNo", "name", "id", "dateOfJoining", "dateOfLeaving"}
)

type payloadShape int

const (
	shapeUnknown payloadShape = iota
	shapeTableList
	shapeEnvelope
	shapeDomain
	shapeTable
	shapeEncoded
)

type rowShape int

const (
	rowsNone rowShape = iota
	rowsObjects
	rowsArrays
	rowsScalars
)

// Normalize converts an extraction payload of any supported shape into
// canonical tables. It never fails: unusable input yields an empty list.
func Normalize(raw any) []dto.Table {
	v, err := toValue(raw)
	if err != nil {
		return []dto.Table{}
	}
	return normalizeValue(v, 0)
}

// maxEncodingDepth bounds how many times a JSON string holding JSON is unwrapped.
const maxEncodingDepth = 4

func normalizeValue(v any, depth int) []dto.Table {
	switch classifyPayload(v) {
	case shapeTableList:
		return normalizeList(v.([]any))
	case shapeEnvelope:
		tables, _ := v.(*Object).Get("tables")
		return normalizeList(tables.([]any))
	case shapeDomain:
		return domainTables(v.(*Object))
	case shapeTable:
		return []dto.Table{NormalizeTable(v, 0)}
	case shapeEncoded:
		if depth >= maxEncodingDepth {
			return []dto.Table{}
		}
		decoded, err := DecodeJSON([]byte(v.(string)))
		if err != nil {
			return []dto.Table{}
		}
		return normalizeValue(decoded, depth+1)
	case shapeUnknown:
		return []dto.Table{}
	}
	return []dto.Table{}
}

func classifyPayload(v any) payloadShape {
	switch t := v.(type) {
	case []any:
		return shapeTableList
	case *Object:
		if tables, ok := t.Get("tables"); ok {
			if _, isList := tables.([]any); isList {
				return shapeEnvelope
			}
		}
		if t.Has("shgProfile") || t.Has("members") || t.Has("balanceDetails") {
			return shapeDomain
		}
		return shapeTable
	case string:
		return shapeEncoded
	}
	return shapeUnknown
}

func normalizeList(items []any) []dto.Table {
	out := make([]dto.Table, 0, len(items))
	for i, item := range items {
		out = append(out, NormalizeTable(item, i))
	}
	return out
}

// NormalizeTable normalizes one table-like value. index is the table's
// position in its list and only feeds the placeholder title.
func NormalizeTable(t any, index int) dto.Table {
	obj, _ := t.(*Object)
	if obj == nil {
		if v, err := toValue(t); err == nil {
			obj, _ = v.(*Object)
		}
	}

	title := ""
	if v, ok := obj.Get("title"); ok {
		title = CellString(v)
	}
	if title == "" {
		title = fmt.Sprintf("Table %d", index+1)
	}

	columns := coerceColumns(obj)
	rowsRaw := rowSource(obj)

	var rows [][]string
	switch classifyRows(rowsRaw) {
	case rowsNone:
		rows = [][]string{}
	case rowsObjects:
		if len(columns) == 0 {
			columns = rowsRaw[0].(*Object).Keys()
		}
		rows = projectObjects(rowsRaw, columns)
	case rowsArrays:
		rows = make([][]string, 0, len(rowsRaw))
		for _, r := range rowsRaw {
			cells, _ := r.([]any)
			row := make([]string, 0, len(cells))
			for _, c := range cells {
				row = append(row, CellString(c))
			}
			rows = append(rows, row)
		}
	case rowsScalars:
		rows = make([][]string, 0, len(rowsRaw))
		for _, r := range rowsRaw {
			rows = append(rows, []string{CellString(r)})
		}
	}

	if len(columns) == 0 && len(rows) > 0 {
		columns = SynthesizeColumns(maxWidth(rows))
	}

	return dto.Table{
		Title:   title,
		Columns: columns,
		Rows:    Rectangularize(rows, len(columns)),
	}
}

func coerceColumns(obj *Object) []string {
	v, ok := obj.Get("columns")
	if !ok {
		return []string{}
	}
	if s, isString := v.(string); isString {
		if decoded, err := DecodeJSON([]byte(s)); err == nil {
			v = decoded
		}
	}
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	columns := make([]string, 0, len(list))
	for _, c := range list {
		columns = append(columns, CellString(c))
	}
	return columns
}

// rowSource returns t.rows, falling back to t.data when rows is absent.
func rowSource(obj *Object) []any {
	v, ok := obj.Get("rows")
	if !ok || v == nil {
		v, _ = obj.Get("data")
	}
	if s, isString := v.(string); isString {
		decoded, err := DecodeJSON([]byte(s))
		if err != nil {
			return nil
		}
		v = decoded
	}
	list, _ := v.([]any)
	return list
}

// classifyRows decides the row shape from the first row, the way the
// extraction prompts promise a homogeneous list.
func classifyRows(rows []any) rowShape {
	if len(rows) == 0 {
		return rowsNone
	}
	switch rows[0].(type) {
	case *Object:
		return rowsObjects
	case []any:
		return rowsArrays
	}
	return rowsScalars
}

// projectObjects joins row objects onto columns: a missing key becomes an
// empty cell and keys outside columns are dropped.
func projectObjects(rows []any, columns []string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		obj, _ := r.(*Object)
		row := make([]string, len(columns))
		for i, c := range columns {
			v, _ := obj.Get(c)
			row[i] = CellString(v)
		}
		out = append(out, row)
	}
	return out
}

// SynthesizeColumns returns col1..colN.
func SynthesizeColumns(n int) []string {
	columns := make([]string, n)
	for i := range columns {
		columns[i] = fmt.Sprintf("col%d", i+1)
	}
	return columns
}

// Rectangularize pads every row with empty cells, or truncates it, to width.
// It always returns fresh row slices.
func Rectangularize(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		out[i] = row
	}
	return out
}

func maxWidth(rows [][]string) int {
	n := 0
	for _, r := range rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

func domainTables(obj *Object) []dto.Table {
	var out []dto.Table

	if profile, ok := obj.Get("shgProfile"); ok && profile != nil {
		out = append(out, fieldValueTable(ProfileTitle, profile, CellString))
	}

	if members, ok := obj.Get("members"); ok && members != nil {
		list, _ := members.([]any)
		rows := projectObjects(list, memberKeys)
		out = append(out, dto.Table{
			Title:   MembersTitle,
			Columns: append([]string(nil), memberColumns...),
			Rows:    rows,
		})
	}

	if balance, ok := obj.Get("balanceDetails"); ok && balance != nil {
		out = append(out, fieldValueTable(BalanceTitle, balance, joinedCell))
	}

	return out
}

func fieldValueTable(title string, section any, cell func(any) string) dto.Table {
	fields, _ := section.(*Object)
	rows := make([][]string, 0, fields.Len())
	for _, k := range fields.Keys() {
		v, _ := fields.Get(k)
		rows = append(rows, []string{k, cell(v)})
	}
	return dto.Table{
		Title:   title,
		Columns: append([]string(nil), fieldValueColumns...),
		Rows:    rows,
	}
}

// joinedCell renders list values as a comma separated cell.
func joinedCell(v any) string {
	list, ok := v.([]any)
	if !ok {
		return CellString(v)
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = CellString(item)
	}
	return strings.Join(parts, ", ")
}
