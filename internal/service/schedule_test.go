package service

import (
	"testing"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSchedule_PrincipalSumsExactly(t *testing.T) {
	principal := decimal.RequireFromString("120000.00")
	rate := decimal.RequireFromString("0.24")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	schedule, err := BuildSchedule(principal, rate, 12, start, FrequencyMonthly)
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.Principal)
	}
	assert.True(t, sum.Equal(principal), "principal components sum to %s, want %s", sum, principal)
}

func TestBuildSchedule_InterestDecreasesPrincipalIncreases(t *testing.T) {
	principal := decimal.RequireFromString("120000.00")
	rate := decimal.RequireFromString("0.24")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	schedule, err := BuildSchedule(principal, rate, 12, start, FrequencyMonthly)
	require.NoError(t, err)

	for i := 1; i < len(schedule); i++ {
		assert.True(t, schedule[i].Interest.LessThan(schedule[i-1].Interest),
			"interest at seq %d should be less than at seq %d", i+1, i)
		assert.True(t, schedule[i].Principal.GreaterThan(schedule[i-1].Principal),
			"principal at seq %d should be greater than at seq %d", i+1, i)
	}

	// First period interest on 120000 at 2% monthly
	assert.True(t, schedule[0].Interest.Equal(decimal.RequireFromString("2400.00")))
}

func TestBuildSchedule_MonthlyDueDates(t *testing.T) {
	principal := decimal.RequireFromString("1000.00")
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	schedule, err := BuildSchedule(principal, decimal.Zero, 3, start, FrequencyMonthly)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), schedule[1].DueDate)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
}

func TestBuildSchedule_WeeklyDueDates(t *testing.T) {
	principal := decimal.RequireFromString("500.00")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	schedule, err := BuildSchedule(principal, decimal.Zero, 4, start, FrequencyWeekly)
	require.NoError(t, err)
	require.Len(t, schedule, 4)

	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	assert.Equal(t, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), schedule[3].DueDate)
}

func TestBuildSchedule_ZeroRateEvenSplit(t *testing.T) {
	principal := decimal.RequireFromString("1000.00")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	schedule, err := BuildSchedule(principal, decimal.Zero, 3, start, FrequencyMonthly)
	require.NoError(t, err)

	// 333.33 + 333.33 + residual 333.34
	assert.True(t, schedule[0].Principal.Equal(decimal.RequireFromString("333.33")))
	assert.True(t, schedule[1].Principal.Equal(decimal.RequireFromString("333.33")))
	assert.True(t, schedule[2].Principal.Equal(decimal.RequireFromString("333.34")))
	for _, inst := range schedule {
		assert.True(t, inst.Interest.IsZero())
	}
}

func TestBuildSchedule_RejectsInvalidTerms(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	one := decimal.NewFromInt(1000)

	_, err := BuildSchedule(decimal.Zero, decimal.Zero, 12, start, FrequencyMonthly)
	assert.ErrorIs(t, err, domain.ErrLoanPrincipalInvalid)

	_, err = BuildSchedule(one.Neg(), decimal.Zero, 12, start, FrequencyMonthly)
	assert.ErrorIs(t, err, domain.ErrLoanPrincipalInvalid)

	_, err = BuildSchedule(one, decimal.Zero, 0, start, FrequencyMonthly)
	assert.ErrorIs(t, err, domain.ErrLoanTermInvalid)

	_, err = BuildSchedule(one, decimal.RequireFromString("-0.01"), 12, start, FrequencyMonthly)
	assert.ErrorIs(t, err, domain.ErrLoanRateInvalid)

	_, err = BuildSchedule(one, decimal.Zero, 12, time.Time{}, FrequencyMonthly)
	assert.ErrorIs(t, err, domain.ErrLoanStartDateInvalid)
}

func TestBuildSchedule_PrincipalSumHoldsAcrossTerms(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		principal string
		rate      string
		term      int32
	}{
		{"999.99", "0.18", 7},
		{"50000.00", "0.365", 24},
		{"123.45", "0.05", 3},
		{"70000.01", "0.00", 13},
	}

	for _, tc := range cases {
		principal := decimal.RequireFromString(tc.principal)
		schedule, err := BuildSchedule(principal, decimal.RequireFromString(tc.rate), tc.term, start, FrequencyMonthly)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, inst := range schedule {
			sum = sum.Add(inst.Principal)
			assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
			assert.True(t, inst.AmountPaid.IsZero())
		}
		assert.True(t, sum.Equal(principal), "principal=%s rate=%s term=%d: sum %s", tc.principal, tc.rate, tc.term, sum)
	}
}
