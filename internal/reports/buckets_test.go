package reports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"museum-visits/internal/reports"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestCurrentMonthBuckets(t *testing.T) {
	t.Run("July has 31 daily buckets", func(t *testing.T) {
		buckets := reports.CurrentMonthBuckets(day(t, "2024-07-20"))
		require.Len(t, buckets, 31)
		assert.Equal(t, "01", buckets[0].Label)
		assert.Equal(t, "31", buckets[30].Label)
		assert.Equal(t, "2024-07-15", buckets[14].From())
		assert.Equal(t, "2024-07-15", buckets[14].To())
	})

	t.Run("leap February", func(t *testing.T) {
		buckets := reports.CurrentMonthBuckets(day(t, "2024-02-10"))
		assert.Len(t, buckets, 29)
		assert.Equal(t, "29", buckets[28].Label)
	})

	t.Run("common February", func(t *testing.T) {
		assert.Len(t, reports.CurrentMonthBuckets(day(t, "2023-02-10")), 28)
	})
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, reports.DaysInMonth(2000, time.February))
	assert.Equal(t, 28, reports.DaysInMonth(1900, time.February))
	assert.Equal(t, 31, reports.DaysInMonth(2024, time.December))
	assert.Equal(t, 30, reports.DaysInMonth(2024, time.April))
}

func TestHistoricalWeekBuckets(t *testing.T) {
	buckets, err := reports.HistoricalBuckets(day(t, "2024-07-31"), reports.PeriodWeek, 4)
	require.NoError(t, err)
	require.Len(t, buckets, 4)

	// oldest first, trailing windows anchored on today
	assert.Equal(t, "2024-07-04", buckets[0].From())
	assert.Equal(t, "2024-07-10", buckets[0].To())
	assert.Equal(t, "2024-07-25", buckets[3].From())
	assert.Equal(t, "2024-07-31", buckets[3].To())

	for i, b := range buckets {
		assert.Equal(t, 6*24*time.Hour, b.End.Sub(b.Start), "bucket %d spans 7 days", i)
		if i > 0 {
			assert.Equal(t, 24*time.Hour, b.Start.Sub(buckets[i-1].End), "bucket %d is contiguous", i)
		}
	}
	assert.Equal(t, "W27-24", buckets[0].Label)
}

func TestHistoricalMonthBuckets(t *testing.T) {
	buckets, err := reports.HistoricalBuckets(day(t, "2024-03-15"), reports.PeriodMonth, 3)
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	assert.Equal(t, "Jan-24", buckets[0].Label)
	assert.Equal(t, "2024-01-01", buckets[0].From())
	assert.Equal(t, "2024-01-31", buckets[0].To())
	assert.Equal(t, "Feb-24", buckets[1].Label)
	assert.Equal(t, "2024-02-29", buckets[1].To())
	assert.Equal(t, "Mar-24", buckets[2].Label)
	assert.Equal(t, "2024-03-31", buckets[2].To())
}

func TestHistoricalMonthBucketsCrossYear(t *testing.T) {
	buckets, err := reports.HistoricalBuckets(day(t, "2025-01-31"), reports.PeriodMonth, 2)
	require.NoError(t, err)
	assert.Equal(t, "Dec-24", buckets[0].Label)
	assert.Equal(t, "Jan-25", buckets[1].Label)
}

func TestHistoricalBucketsInvalid(t *testing.T) {
	today := day(t, "2024-07-31")

	_, err := reports.HistoricalBuckets(today, reports.PeriodWeek, 0)
	assert.ErrorIs(t, err, reports.ErrInvalidParameter)

	_, err = reports.HistoricalBuckets(today, reports.Period("year"), 2)
	assert.ErrorIs(t, err, reports.ErrInvalidParameter)
}

func TestWeekLabel(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-12-30", "W1-25"},
		{"2021-01-03", "W53-20"},
		{"2024-01-01", "W1-24"},
		{"2024-07-15", "W29-24"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, reports.WeekLabel(day(t, tt.date)))
		})
	}
}

func TestISOWeekMatchesStandardLibrary(t *testing.T) {
	d := day(t, "2019-12-01")
	for i := 0; i < 3*366; i++ {
		wantYear, wantWeek := d.ISOWeek()
		year, week := reports.ISOWeek(d)
		require.Equal(t, wantYear, year, d.Format("2006-01-02"))
		require.Equal(t, wantWeek, week, d.Format("2006-01-02"))
		d = d.AddDate(0, 0, 1)
	}
}

func TestBucketContainsIsInclusive(t *testing.T) {
	b := reports.Bucket{Label: "x", Start: day(t, "2024-07-10"), End: day(t, "2024-07-16")}
	assert.True(t, b.Contains("2024-07-10"))
	assert.True(t, b.Contains("2024-07-16"))
	assert.False(t, b.Contains("2024-07-09"))
	assert.False(t, b.Contains("2024-07-17"))
}
