package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/utils"
	"github.com/saintfish/chardet"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	defaultCSVTitle  = "CSV Table"
	defaultXLSXTitle = "XLSX Table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions controls how a CSV upload is read. The header policy is always
// explicit.
type CSVOptions struct {
	HeaderRow bool
	Title     string
}

// ParseCSV parses a CSV buffer into a single normalized table.
func ParseCSV(data []byte, opts CSVOptions) ([]dto.Table, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, &dto.ParseError{Format: "csv", Err: err}
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &dto.ParseError{Format: "csv", Err: err}
		}
		if blankRecord(rec) {
			continue
		}
		records = append(records, rec)
	}

	table := dto.Table{Title: opts.Title}
	if table.Title == "" {
		table.Title = defaultCSVTitle
	}
	if opts.HeaderRow && len(records) > 0 {
		table.Columns = records[0]
		records = records[1:]
	}
	table.Rows = records

	return []dto.Table{utils.NormalizeTable(table, 0)}, nil
}

func blankRecord(rec []string) bool {
	for _, field := range rec {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// toUTF8 strips a UTF-8 BOM and transcodes legacy encodings to UTF-8.
func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	det, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	enc, err := htmlindex.Get(det.Charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", det.Charset, err)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", det.Charset, err)
	}
	return bytes.TrimPrefix(out, utf8BOM), nil
}

// ParseSpreadsheet reads the first sheet of an XLSX workbook. Row 0 becomes
// the columns and the remaining rows the data. Other sheets are ignored.
func ParseSpreadsheet(data []byte, title string) ([]dto.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &dto.ParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &dto.ParseError{Format: "xlsx", Err: errors.New("no sheets found in workbook")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &dto.ParseError{Format: "xlsx", Err: err}
	}

	if title == "" {
		title = defaultXLSXTitle
	}
	table := dto.Table{Title: title}
	if len(rows) > 0 {
		table.Columns = rows[0]
		table.Rows = rows[1:]
	}

	return []dto.Table{utils.NormalizeTable(table, 0)}, nil
}
