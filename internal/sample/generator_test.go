package sample

import (
	"bytes"
	"testing"
	"time"

	"github.com/lorrc/sla-notifier/internal/adapters/secondary/snapshot"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	opts := DefaultOptions(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC))
	opts.Seed = 42
	return opts
}

func TestGenerate(t *testing.T) {
	opts := testOptions()
	set := Generate(opts)

	require.Len(t, set.Rows, 20)
	require.NoError(t, set.Require(opts.Columns.Required()...))
	assert.Equal(t, "REQ-2024001", set.Rows[0][0])
	assert.Equal(t, "REQ-2024020", set.Rows[19][0])

	earliest := opts.Now.AddDate(0, 0, -10).Add(-time.Minute)
	latest := opts.Now.AddDate(0, 0, 5).Add(time.Minute)
	for _, row := range set.Rows {
		deadline, err := time.Parse(deadlineLayout, row[4])
		require.NoError(t, err)
		assert.True(t, deadline.After(earliest) && deadline.Before(latest), row[4])
		assert.NotEmpty(t, row[6], "creator is always set")
	}

	assert.Equal(t, set, Generate(opts), "same seed, same rows")
}

func TestGenerate_AllOwnersEmpty(t *testing.T) {
	opts := testOptions()
	opts.EmptyOwnerRatio = 1

	for _, row := range Generate(opts).Rows {
		assert.Empty(t, row[5])
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	set := Generate(testOptions())

	for _, name := range []string{"export.xlsx", "export.csv"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(name, set, &buf))

			got, err := snapshot.Read(name, &buf)
			require.NoError(t, err)
			assert.Equal(t, set.Columns, got.Columns)
			require.Len(t, got.Rows, len(set.Rows))
			assert.Equal(t, set.Rows[3][0], got.Rows[3][0])
			assert.Equal(t, set.Rows[3][2], got.Rows[3][2])
		})
	}

	tickets, err := set.Tickets(domain.DefaultColumnMap(), time.UTC)
	require.NoError(t, err)
	assert.NotNil(t, tickets[0].Deadline)
}

func TestWrite_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write("export.ods", domain.RecordSet{}, &buf), apperrors.ErrUnsupportedFormat)
}
