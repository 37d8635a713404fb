package report_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/report"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testLogger = slog.New(slog.DiscardHandler)

func testReport() ports.Report {
	deadline := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	vendor := domain.EnrichedTicket{
		Ticket:      domain.Ticket{Protocol: "REQ-1", Summary: "Erro", Status: "Programando", Deadline: &deadline},
		Ownership:   domain.OwnershipVendor,
		SlaTracked:  domain.SlaYes,
		Overdue:     true,
		DaysOverdue: 5,
	}
	internal := domain.EnrichedTicket{
		Ticket:      domain.Ticket{Protocol: "REQ-2", Summary: "Homologar", Status: "Homologando"},
		Ownership:   domain.OwnershipInternal,
		SlaTracked:  domain.SlaNo,
		DisplayName: "MARIA OLIVEIRA",
	}
	resolved := domain.EnrichedTicket{
		Ticket:    domain.Ticket{Protocol: "REQ-3", Status: "Resolvido"},
		Ownership: domain.OwnershipResolved,
	}
	enriched := []domain.EnrichedTicket{vendor, internal, resolved}

	return ports.Report{
		RunID:    uuid.MustParse("3f2a7c1e-0000-4000-8000-000000000000"),
		Now:      time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
		Enriched: enriched,
		Cohorts:  domain.Partition(enriched),
	}
}

type fakeUploader struct {
	key  string
	data []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	f.key = key
	f.data, _ = io.ReadAll(r)
	return f.err
}

func TestRender(t *testing.T) {
	buf, err := report.Render(testReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SheetAll, report.SheetVendor, report.SheetInternal}, f.GetSheetList())

	all, err := f.GetRows(report.SheetAll)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Protocolo", all[0][0])
	assert.Equal(t, "10/03/2024 00:00", all[1][4])
	assert.Equal(t, "Fora do Prazo", all[1][11])
	assert.Equal(t, "5", all[1][12])

	vendor, err := f.GetRows(report.SheetVendor)
	require.NoError(t, err)
	require.Len(t, vendor, 2)
	assert.Equal(t, "REQ-1", vendor[1][0])

	internal, err := f.GetRows(report.SheetInternal)
	require.NoError(t, err)
	require.Len(t, internal, 2)
	assert.Equal(t, "MARIA OLIVEIRA", internal[1][8])

	width, err := f.GetColWidth(report.SheetVendor, "C")
	require.NoError(t, err)
	assert.Equal(t, float64(20), width)

	styleID, err := f.GetCellStyle(report.SheetInternal, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.True(t, style.Font.Bold)
}

func TestExcelWriter_Write(t *testing.T) {
	dir := t.TempDir()
	uploader := &fakeUploader{}
	w := report.NewExcelWriter(dir, uploader, "reports", testLogger)

	r := testReport()
	path, err := w.Write(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "relatorio_sla_20240315_100000_3f2a7c1e.xlsx"), path)
	assert.FileExists(t, path)
	assert.Equal(t, "reports/relatorio_sla_20240315_100000_3f2a7c1e.xlsx", uploader.key)

	_, err = excelize.OpenReader(bytes.NewReader(uploader.data))
	assert.NoError(t, err)
}

func TestExcelWriter_UploadFailure(t *testing.T) {
	errDown := errors.New("bucket unavailable")
	w := report.NewExcelWriter(t.TempDir(), &fakeUploader{err: errDown}, "", testLogger)

	_, err := w.Write(context.Background(), testReport())
	assert.ErrorIs(t, err, errDown)
}

func TestExcelWriter_NoUploader(t *testing.T) {
	w := report.NewExcelWriter(filepath.Join(t.TempDir(), "nested"), nil, "", testLogger)
	path, err := w.Write(context.Background(), testReport())
	require.NoError(t, err)
	assert.FileExists(t, path)
}
