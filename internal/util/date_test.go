package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonthsClamped_KeepsAnchorDay(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	result := AddMonthsClamped(start, 1)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), result)

	result = AddMonthsClamped(start, 12)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), result)
}

func TestAddMonthsClamped_ClampsShortMonths(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	// 2024 is a leap year
	result := AddMonthsClamped(start, 1)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), result)

	result = AddMonthsClamped(start, 3)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), result)

	// Clamping does not stick: May has 31 days again
	result = AddMonthsClamped(start, 4)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), result)
}

func TestAddMonthsClamped_YearRollover(t *testing.T) {
	start := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)

	result := AddMonthsClamped(start, 3)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), result)
}

func TestMonthWindow(t *testing.T) {
	start, end := MonthWindow(2024, time.February)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), end)
}
