// Package sample writes synthetic helpdesk exports for local runs and demos.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/xuri/excelize/v2"
)

const deadlineLayout = "02/01/2006 15:04"

var (
	summaries = []string{
		"Erro ao processar pagamento", "Acesso negado ao sistema", "Solicitação de novo perfil",
		"Relatório não carrega", "Ajuste de permissão", "Integração falhou",
		"Dúvida sobre funcionalidade", "Tela preta ao iniciar", "Dados inconsistentes",
		"Atualização de cadastro",
	}
	statuses = []string{
		"Programando", "Atendimento pendente (suporte)", "Homologando",
		"Verificando", "Aguardando testes internos", "Ag. Confirmação de Orçamento",
		"Aguardando liberacao oficial", "Retorno de homologacao", "Aguardando detalhamento",
		"Resolvido", "Liberado para cliente",
	}
	categories = []string{"CORRECAO", "MELHORIA", "DUVIDA", "PROJETO"}
	logins     = []string{"usuario.jsilva", "usuario.moliveira", "usuario.psantos", "usuario.ti"}
)

// Options controls a generated export.
type Options struct {
	Rows int
	// Seed makes the output reproducible; zero picks a random seed.
	Seed int64
	// Now anchors the deadlines, which fall between 10 days before and 5 days
	// after it.
	Now time.Time
	// EmptyOwnerRatio is the share of rows with no responsible user.
	EmptyOwnerRatio float64
	Columns         domain.ColumnMap
}

// DefaultOptions returns 20 rows with a fifth of them unassigned.
func DefaultOptions(now time.Time) Options {
	return Options{
		Rows:            20,
		Now:             now,
		EmptyOwnerRatio: 0.2,
		Columns:         domain.DefaultColumnMap(),
	}
}

// Generate builds the record set.
func Generate(opts Options) domain.RecordSet {
	faker := gofakeit.New(opts.Seed)
	cols := opts.Columns

	set := domain.RecordSet{
		Columns: []string{cols.Protocol, cols.Summary, cols.Status, cols.Category, cols.Deadline, cols.OwnerLogin, cols.CreatedBy},
		Rows:    make([][]string, 0, opts.Rows),
	}

	for i := 1; i <= opts.Rows; i++ {
		deadline := opts.Now.AddDate(0, 0, faker.IntRange(-10, 5))

		owner := faker.RandomString(logins)
		if faker.Float64Range(0, 1) < opts.EmptyOwnerRatio {
			owner = ""
		}

		set.Rows = append(set.Rows, []string{
			fmt.Sprintf("REQ-%d", 2024000+i),
			faker.RandomString(summaries),
			faker.RandomString(statuses),
			faker.RandomString(categories),
			deadline.Format(deadlineLayout),
			owner,
			faker.RandomString(logins),
		})
	}
	return set
}

// Write encodes set in the format named by name's extension.
func Write(name string, set domain.RecordSet, w io.Writer) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return writeXLSX(set, w)
	case ".csv":
		return writeCSV(set, w)
	default:
		return fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, name)
	}
}

func writeXLSX(set domain.RecordSet, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := append([][]string{set.Columns}, set.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeCSV(set domain.RecordSet, w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(set.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(set.Rows); err != nil {
		return err
	}
	return cw.Error()
}
