package snapshot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// IsSupported reports whether a file name has a readable extension.
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Read decodes a snapshot, picking the format from the file name.
func Read(name string, r io.Reader) (domain.RecordSet, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return domain.RecordSet{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, name)
	}
}

// ReadCSV decodes a delimited export. Semicolon is tried first; when that
// yields a single column the data is re-read with commas.
func ReadCSV(r io.Reader) (domain.RecordSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	records, err := parseDelimited(data, ';')
	if err != nil || (len(records) > 0 && len(records[0]) < 2) {
		records, err = parseDelimited(data, ',')
	}
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("parse csv: %w", err)
	}
	return toRecordSet(records), nil
}

func parseDelimited(data []byte, sep rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// ReadXLSX decodes the first sheet of a workbook. Cells are read raw, so
// date cells arrive as serial numbers.
func ReadXLSX(r io.Reader) (domain.RecordSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.RecordSet{}, fmt.Errorf("open workbook: no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return toRecordSet(rows), nil
}

func toRecordSet(records [][]string) domain.RecordSet {
	if len(records) == 0 {
		return domain.RecordSet{}
	}
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return domain.RecordSet{Columns: records[0], Rows: rows}
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
