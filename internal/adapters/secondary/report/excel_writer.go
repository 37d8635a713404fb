// Package report writes the per-run spreadsheet report.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/xuri/excelize/v2"
)

const (
	SheetAll      = "Base_Geral"
	SheetVendor   = "Pendencia_Fornecedor"
	SheetInternal = "Pendencia_Interna"

	headerColor = "004080"
	columnWidth = 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []interface{}{
	"Protocolo", "Resumo", "Situação", "Classificação", "Prazo SLA",
	"Usuário responsável", "Incluído por", "Responsável Efetivo", "Nome Responsável",
	"Dono", "Monitorar SLA", "Status Prazo", "Dias em atraso",
}

// Uploader stores a copy of the report.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// ExcelWriter writes one workbook per run into a directory and optionally
// uploads it.
type ExcelWriter struct {
	dir      string
	uploader Uploader
	prefix   string
	logger   *slog.Logger
}

var _ ports.ReportWriter = (*ExcelWriter)(nil)

// NewExcelWriter creates a writer targeting dir. uploader may be nil.
func NewExcelWriter(dir string, uploader Uploader, prefix string, logger *slog.Logger) *ExcelWriter {
	return &ExcelWriter{
		dir:      dir,
		uploader: uploader,
		prefix:   prefix,
		logger:   logger.With("component", "report_writer"),
	}
}

// FileName is the report name for a run.
func FileName(r ports.Report) string {
	return fmt.Sprintf("relatorio_sla_%s_%s.xlsx", r.Now.Format("20060102_150405"), r.RunID.String()[:8])
}

// Write renders the workbook and returns the local path.
func (w *ExcelWriter) Write(ctx context.Context, r ports.Report) (string, error) {
	buf, err := Render(r)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	name := FileName(r)
	local := filepath.Join(w.dir, name)
	if err := os.WriteFile(local, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	w.logger.InfoContext(ctx, "report written", "path", local, "rows", len(r.Enriched))

	if w.uploader != nil {
		key := path.Join(w.prefix, name)
		if err := w.uploader.Upload(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), xlsxContentType); err != nil {
			return "", fmt.Errorf("upload report: %w", err)
		}
		w.logger.InfoContext(ctx, "report uploaded", "key", key)
	}

	return local, nil
}

// Render builds the three-sheet workbook in memory.
func Render(r ports.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	sheets := []struct {
		name string
		rows []domain.EnrichedTicket
	}{
		{SheetAll, r.Enriched},
		{SheetVendor, r.Cohorts.Vendor},
		{SheetInternal, r.Cohorts.Internal},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, s.name, s.rows, style); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", s.name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf, nil
}

func writeSheet(f *excelize.File, sheet string, rows []domain.EnrichedTicket, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, columnWidth); err != nil {
		return err
	}

	for i, t := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(t)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func row(t domain.EnrichedTicket) []interface{} {
	deadline := ""
	if t.Deadline != nil {
		deadline = t.Deadline.Format("02/01/2006 15:04")
	}
	status := "No Prazo"
	if t.Overdue {
		status = "Fora do Prazo"
	}
	return []interface{}{
		t.Protocol, t.Summary, t.Status, t.Category, deadline,
		t.OwnerLogin, t.CreatedByLogin, t.EffectiveOwnerLogin, t.DisplayName,
		string(t.Ownership), string(t.SlaTracked), status, t.DaysOverdue,
	}
}
