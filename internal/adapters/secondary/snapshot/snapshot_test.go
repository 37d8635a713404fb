package snapshot_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lorrc/sla-notifier/internal/adapters/secondary/snapshot"
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/storage"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/infrastructure/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	testLogger = slog.New(slog.DiscardHandler)
	testNow    = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
)

const semicolonCSV = "\ufeffProtocolo;Resumo;Situação;Classificação;Prazo SLA;Usuário responsável;Incluído por\n" +
	"REQ-1;Erro no login;Programando;CORRECAO;10/03/2024 00:00;;usuario.ti\n" +
	";;;;;;\n" +
	"REQ-2;\"Tela; nova\";Homologando;MELHORIA;;usuario.jsilva;usuario.ti\n"

func TestReadCSV(t *testing.T) {
	t.Run("semicolon with BOM", func(t *testing.T) {
		rs, err := snapshot.ReadCSV(strings.NewReader(semicolonCSV))
		require.NoError(t, err)

		assert.Equal(t, "Protocolo", rs.Columns[0])
		assert.Len(t, rs.Columns, 7)
		require.Len(t, rs.Rows, 2, "blank rows are skipped")
		assert.Equal(t, "Tela; nova", rs.Rows[1][1])
	})

	t.Run("comma fallback", func(t *testing.T) {
		data := "Protocolo,Resumo\nREQ-1,Erro\n"
		rs, err := snapshot.ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"Protocolo", "Resumo"}, rs.Columns)
		assert.Equal(t, [][]string{{"REQ-1", "Erro"}}, rs.Rows)
	})

	t.Run("empty input", func(t *testing.T) {
		rs, err := snapshot.ReadCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, rs.Columns)
	})
}

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{
		"Protocolo", "Resumo", "Situação", "Classificação", "Prazo SLA", "Usuário responsável", "Incluído por",
	}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{
		"REQ-1", "Erro no login", "Programando", "CORRECAO", 45361, "", "usuario.ti",
	}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	rs, err := snapshot.ReadXLSX(bytes.NewReader(workbook(t)))
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "REQ-1", rs.Rows[0][0])

	tickets, err := rs.Tickets(domain.DefaultColumnMap(), time.UTC)
	require.NoError(t, err)
	require.NotNil(t, tickets[0].Deadline)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), *tickets[0].Deadline)
}

func TestRead_UnsupportedFormat(t *testing.T) {
	_, err := snapshot.Read("export.pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
	assert.True(t, snapshot.IsSupported("EXPORT.XLSX"))
	assert.False(t, snapshot.IsSupported("notes.txt"))
}

func writeFile(t *testing.T, dir, name, content string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestDirectorySource_Fetch(t *testing.T) {
	dir := t.TempDir()
	old := testNow.Add(-48 * time.Hour)
	writeFile(t, dir, "old.csv", "Protocolo;Resumo\nOLD;x\n", old)
	writeFile(t, dir, "new.csv", semicolonCSV, old.Add(time.Hour))
	writeFile(t, dir, "notes.txt", "ignored", testNow)
	writeFile(t, dir, "~$open.xlsx", "lock", testNow)

	src := snapshot.NewDirectorySource(dir, clock.NewFixed(testNow), testLogger)
	snap, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "new.csv", snap.Name)
	assert.Equal(t, testNow, snap.FetchedAt)
	assert.Len(t, snap.Records.Rows, 2)
}

func TestDirectorySource_Empty(t *testing.T) {
	src := snapshot.NewDirectorySource(t.TempDir(), clock.NewFixed(testNow), testLogger)
	_, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
}

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fixed.csv", semicolonCSV, testNow)

	snap, err := snapshot.NewFileSource(path, clock.NewFixed(testNow), testLogger).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed.csv", snap.Name)

	_, err = snapshot.NewFileSource(filepath.Join(dir, "missing.csv"), clock.NewFixed(testNow), testLogger).
		Fetch(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
}

type fakeObjects struct {
	objects []storage.ObjectInfo
	content map[string][]byte
	listErr error
	opened  []string
}

func (f *fakeObjects) List(context.Context, string) ([]storage.ObjectInfo, error) {
	return f.objects, f.listErr
}

func (f *fakeObjects) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.opened = append(f.opened, key)
	data, ok := f.content[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestBucketSource_Fetch(t *testing.T) {
	objects := &fakeObjects{
		objects: []storage.ObjectInfo{
			{Key: "exports/2024-03-14.csv", LastModified: testNow.Add(-24 * time.Hour)},
			{Key: "exports/2024-03-15.xlsx", LastModified: testNow.Add(-time.Hour)},
			{Key: "exports/readme.md", LastModified: testNow},
		},
		content: map[string][]byte{"exports/2024-03-15.xlsx": workbook(t)},
	}

	src := snapshot.NewBucketSource(objects, "exports/", clock.NewFixed(testNow), testLogger)
	snap, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-03-15.xlsx", snap.Name)
	assert.Equal(t, []string{"exports/2024-03-15.xlsx"}, objects.opened)
	assert.Len(t, snap.Records.Rows, 1)
}

func TestBucketSource_Errors(t *testing.T) {
	t.Run("nothing supported", func(t *testing.T) {
		objects := &fakeObjects{objects: []storage.ObjectInfo{{Key: "exports/readme.md"}}}
		_, err := snapshot.NewBucketSource(objects, "exports/", clock.NewFixed(testNow), testLogger).
			Fetch(context.Background())
		assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
	})

	t.Run("list failure", func(t *testing.T) {
		errDenied := errors.New("access denied")
		objects := &fakeObjects{listErr: errDenied}
		_, err := snapshot.NewBucketSource(objects, "", clock.NewFixed(testNow), testLogger).
			Fetch(context.Background())
		assert.ErrorIs(t, err, errDenied)
	})
}
