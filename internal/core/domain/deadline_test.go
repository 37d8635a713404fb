package domain_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateDeadline(t *testing.T) {
	midnight := domain.StartOfDay(fixedNow)

	tests := []struct {
		name        string
		deadline    *time.Time
		wantOverdue bool
		wantDays    int
	}{
		{"absent", nil, false, 0},
		{"zero value", &time.Time{}, false, 0},
		{"earlier today is not overdue", ptr(midnight.Add(9 * time.Hour)), false, 0},
		{"exactly midnight is not overdue", ptr(midnight), false, 0},
		{"future", ptr(midnight.AddDate(0, 0, 5)), false, 0},
		{"one minute before midnight", ptr(midnight.Add(-time.Minute)), true, 0},
		{"yesterday noon", ptr(midnight.Add(-12 * time.Hour)), true, 0},
		{"exactly one day", ptr(midnight.AddDate(0, 0, -1)), true, 1},
		{"three days", ptr(midnight.AddDate(0, 0, -3)), true, 3},
		{"three and a half days floors", ptr(midnight.Add(-84 * time.Hour)), true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overdue, days := domain.EvaluateDeadline(tt.deadline, fixedNow)
			assert.Equal(t, tt.wantOverdue, overdue)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestEvaluateDeadline_DaysZeroWhenNotOverdue(t *testing.T) {
	midnight := domain.StartOfDay(fixedNow)
	for offset := -72; offset <= 72; offset++ {
		d := midnight.Add(time.Duration(offset) * time.Hour)
		overdue, days := domain.EvaluateDeadline(&d, fixedNow)
		if !overdue {
			assert.Zero(t, days, "offset %dh", offset)
		}
		assert.GreaterOrEqual(t, days, 0)
	}
}

func TestEvaluateDeadline_DoesNotDependOnTimeOfDay(t *testing.T) {
	deadline := time.Date(2024, time.March, 10, 18, 0, 0, 0, time.UTC)

	morningOverdue, morningDays := domain.EvaluateDeadline(&deadline, time.Date(2024, time.March, 15, 0, 1, 0, 0, time.UTC))
	eveningOverdue, eveningDays := domain.EvaluateDeadline(&deadline, time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC))

	assert.Equal(t, morningOverdue, eveningOverdue)
	assert.Equal(t, morningDays, eveningDays)
	assert.Equal(t, 4, morningDays)
}

func TestEvaluateDeadline_CountsCalendarDaysAcrossDaylightSaving(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	tests := []struct {
		name     string
		deadline time.Time
		now      time.Time
		wantDays int
	}{
		{
			name:     "spring forward",
			deadline: time.Date(2026, time.March, 27, 0, 0, 0, 0, berlin),
			now:      time.Date(2026, time.March, 30, 10, 0, 0, 0, berlin),
			wantDays: 3,
		},
		{
			name:     "fall back",
			deadline: time.Date(2026, time.October, 24, 0, 0, 0, 0, berlin),
			now:      time.Date(2026, time.October, 27, 8, 0, 0, 0, berlin),
			wantDays: 3,
		},
		{
			name:     "deadline stored in UTC",
			deadline: time.Date(2026, time.March, 26, 23, 0, 0, 0, time.UTC),
			now:      time.Date(2026, time.March, 30, 10, 0, 0, 0, berlin),
			wantDays: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overdue, days := domain.EvaluateDeadline(&tt.deadline, tt.now)
			assert.True(t, overdue)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestParseDeadline(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{"day first with time", "05/03/2024 14:30", ptr(time.Date(2024, time.March, 5, 14, 30, 0, 0, loc))},
		{"day first with seconds", "05/03/2024 14:30:10", ptr(time.Date(2024, time.March, 5, 14, 30, 10, 0, loc))},
		{"day first date only", "25/12/2023", ptr(time.Date(2023, time.December, 25, 0, 0, 0, 0, loc))},
		{"iso datetime", "2024-03-05 08:00:00", ptr(time.Date(2024, time.March, 5, 8, 0, 0, 0, loc))},
		{"iso date", "2024-03-05", ptr(time.Date(2024, time.March, 5, 0, 0, 0, 0, loc))},
		{"surrounding whitespace", "  05/03/2024 14:30 ", ptr(time.Date(2024, time.March, 5, 14, 30, 0, 0, loc))},
		{"spreadsheet serial", "45356.5", ptr(time.Date(2024, time.March, 5, 12, 0, 0, 0, loc))},
		{"empty", "", nil},
		{"garbage", "amanhã", nil},
		{"impossible date", "31/02/2024", nil},
		{"negative serial", "-3", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ParseDeadline(tt.raw, loc)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseDeadline_UsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	got := domain.ParseDeadline("05/03/2024 10:00", loc)

	require.NotNil(t, got)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 13, got.UTC().Hour())
}
