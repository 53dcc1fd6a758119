package reports

import (
	"fmt"
	"time"

	"museum-visits/internal/models"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Bucket is a labelled, inclusive range of civil dates. Start and End are
// midnight UTC so that comparisons never depend on time of day.
type Bucket struct {
	Label string
	Start time.Time
	End   time.Time
}

// From and To render the bounds in the stored date format.
func (b Bucket) From() string { return b.Start.Format(models.DateLayout) }
func (b Bucket) To() string   { return b.End.Format(models.DateLayout) }

// Contains reports whether date (YYYY-MM-DD) falls inside the bucket
func (b Bucket) Contains(date string) bool {
	return date >= b.From() && date <= b.To()
}

// civilDate drops the time of day and location, keeping the calendar date
// as seen in t's own location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth accounts for leap years through time normalisation.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CurrentMonthBuckets returns one single-day bucket per day of today's month,
// labelled with the zero-padded day of month.
func CurrentMonthBuckets(today time.Time) []Bucket {
	today = civilDate(today)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	days := DaysInMonth(today.Year(), today.Month())

	buckets := make([]Bucket, 0, days)
	for day := 1; day <= days; day++ {
		date := first.AddDate(0, 0, day-1)
		buckets = append(buckets, Bucket{
			Label: fmt.Sprintf("%02d", day),
			Start: date,
			End:   date,
		})
	}
	return buckets
}

// ValidateHistorical rejects a period or count that cannot be bucketed.
func ValidateHistorical(period Period, count int) error {
	if period != PeriodWeek && period != PeriodMonth {
		return fmt.Errorf("%w: period must be %q or %q, got %q", ErrInvalidParameter, PeriodWeek, PeriodMonth, period)
	}
	if count < 1 {
		return fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidParameter, count)
	}
	return nil
}

// HistoricalBuckets returns count buckets ending with the one that contains
// today, ordered oldest first.
func HistoricalBuckets(today time.Time, period Period, count int) ([]Bucket, error) {
	if err := ValidateHistorical(period, count); err != nil {
		return nil, err
	}
	today = civilDate(today)

	buckets := make([]Bucket, count)
	for i := 0; i < count; i++ {
		var b Bucket
		if period == PeriodMonth {
			b = monthBucket(today, i)
		} else {
			b = weekBucket(today, i)
		}
		// i counts back from today; fill from the end to keep oldest first
		buckets[count-1-i] = b
	}
	return buckets, nil
}

// monthBucket spans the whole calendar month i months before today's month
func monthBucket(today time.Time, i int) Bucket {
	first := time.Date(today.Year(), today.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return Bucket{
		Label: first.Format("Jan-06"),
		Start: first,
		End:   last,
	}
}

// weekBucket is the trailing seven-day window ending 7*i days before today.
// It is anchored on today, not on a Monday.
func weekBucket(today time.Time, i int) Bucket {
	end := today.AddDate(0, 0, -7*i)
	start := end.AddDate(0, 0, -6)
	return Bucket{
		Label: WeekLabel(start),
		Start: start,
		End:   end,
	}
}

// WeekLabel renders W<iso week>-<yy> for the ISO week containing day. The
// year is the ISO week-numbering year, so 2024-12-30 is W1-25.
func WeekLabel(day time.Time) string {
	year, week := ISOWeek(day)
	return fmt.Sprintf("W%d-%02d", week, year%100)
}

// ISOWeek computes the ISO-8601 week number by shifting to the Thursday of
// the same Monday-based week and counting weeks from January 1st of that
// Thursday's year.
func ISOWeek(day time.Time) (year, week int) {
	day = civilDate(day)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := day.AddDate(0, 0, 4-weekday)
	jan1 := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	ordinal := int(thursday.Sub(jan1).Hours()/24) + 1
	return thursday.Year(), (ordinal + 6) / 7
}
