// Package export writes spreadsheet-friendly CSV files.
//
// Files use ';' as separator, start with a UTF-8 BOM and a "sep=;" directive
// so spreadsheet apps in comma-decimal locales open them without an import
// dialog, and end lines with CRLF.
package export

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	Separator   = ";"
	ContentType = "text/csv; charset=utf-8"

	bom = "\uFEFF"
	eol = "\r\n"
)

var ErrNoData = errors.New("nothing to export")

// WriteCSV writes headers and rows to w. Every row must have len(headers) values.
// It returns ErrNoData without writing anything when rows is empty.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString(bom + "sep=" + Separator + eol)
	writeRow(bw, headers)
	for i, row := range rows {
		if len(row) != len(headers) {
			return errors.Errorf("row %d: expected %d values, got %d", i, len(headers), len(row))
		}
		writeRow(bw, row)
	}
	return errors.Wrap(bw.Flush(), "writing csv")
}

func writeRow(w *bufio.Writer, values []string) {
	for i, v := range values {
		if i > 0 {
			_, _ = w.WriteString(Separator)
		}
		_, _ = w.WriteString(Escape(v))
	}
	_, _ = w.WriteString(eol)
}

// Escape quotes v when it contains the separator, a double quote or a newline.
func Escape(v string) string {
	if strings.Contains(v, Separator) || strings.Contains(v, `"`) || strings.Contains(v, "\n") {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return v
}

// Filename returns "<base>_YYYY-MM-DD.csv" for the UTC date of now.
func Filename(base string, now time.Time) string {
	return base + "_" + now.UTC().Format("2006-01-02") + ".csv"
}
