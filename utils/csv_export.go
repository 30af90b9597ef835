package utils

import (
	"bytes"
	"encoding/csv"
	"regexp"
	"strings"

	"github.com/lekhapal/shg-digitizer/dto"
)

// ToCSV renders a table as CSV. The header row comes first when the table
// has columns; cells containing a comma, quote or line break are quoted.
func ToCSV(t dto.Table) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if len(t.Columns) > 0 {
		if err := w.Write(t.Columns); err != nil {
			return "", err
		}
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// CSVFilename derives a download filename from a table title.
func CSVFilename(title string) string {
	if strings.TrimSpace(title) == "" {
		title = "table"
	}
	return unsafeFilenameChars.ReplaceAllString(title, "_") + ".csv"
}
