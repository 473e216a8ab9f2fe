package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	now := time.Date(2025, time.August, 14, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-08", Default(now, Monthly))
	assert.Equal(t, "2025-Q3", Default(now, Quarterly))
	assert.Equal(t, "2025", Default(now, Yearly))
	assert.Equal(t, "2025-Q1", Default(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), Quarterly))
	assert.Equal(t, "2025-Q4", Default(time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), Quarterly))
}

func TestBounds(t *testing.T) {
	start, end, err := Bounds("2025-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), end)

	start, end, err = Bounds("2025-Q2")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), end)

	start, end, err = Bounds("2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), end)

	for _, bad := range []string{"", "2025-13", "2025-Q5", "25-01", "abcd", "+123", "-123", " 123", "+12-Q1", "0000"} {
		_, _, err := Bounds(bad)
		assert.ErrorIs(t, err, ErrInvalidPeriod, bad)
	}
}

func TestResolve(t *testing.T) {
	now := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)

	got, err := Resolve("", now, Quarterly)
	require.NoError(t, err)
	assert.Equal(t, "2025-Q2", got)

	got, err = Resolve("2024-11", now, Monthly)
	require.NoError(t, err)
	assert.Equal(t, "2024-11", got)

	_, err = Resolve("2024", now, Monthly)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestParseType(t *testing.T) {
	got, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, Monthly, got)

	got, err = ParseType("Yearly")
	require.NoError(t, err)
	assert.Equal(t, Yearly, got)

	_, err = ParseType("weekly")
	assert.ErrorIs(t, err, ErrInvalidPeriodType)
}
