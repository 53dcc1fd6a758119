package reports

import (
	"context"
	"fmt"
	"time"

	"museum-visits/internal/models"
)

// VisitScanner is the read side of the visit store the reports need: one
// inclusive date-range scan per report.
type VisitScanner interface {
	ScanVisits(ctx context.Context, from, to string) ([]models.Visit, error)
}

// ReportCache stores computed reports. Key pins a logical key to the cache
// generation current at request time; Get and Set work on that resolved key.
// Implementations swallow their own failures and a miss simply recomputes.
type ReportCache interface {
	Key(ctx context.Context, key string) (string, bool)
	Get(ctx context.Context, fullKey string, dst any) bool
	Set(ctx context.Context, fullKey string, value any)
}

// Service orchestrates store scan, bucketing and aggregation
type Service struct {
	store    VisitScanner
	cache    ReportCache
	location *time.Location
	Now      func() time.Time

	// MaxCount caps historical requests; zero means unbounded.
	MaxCount int
}

// NewService creates a report service computing "today" in loc
func NewService(store VisitScanner, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, location: loc, Now: time.Now}
}

// WithCache enables caching of computed reports.
func (s *Service) WithCache(cache ReportCache) *Service {
	s.cache = cache
	return s
}

// Today returns the current civil date in the service location
func (s *Service) Today() time.Time {
	return civilDate(s.Now().In(s.location))
}

// GetTodaySummary summarizes every visit dated today
func (s *Service) GetTodaySummary(ctx context.Context) (models.DailySummary, error) {
	today := s.Today().Format(models.DateLayout)
	return cached(ctx, s, "today:"+today, func() (models.DailySummary, error) {
		visits, err := s.store.ScanVisits(ctx, today, today)
		if err != nil {
			return models.DailySummary{}, fmt.Errorf("scan visits for %s: %w", today, err)
		}
		return Summarize(visits), nil
	})
}

// GetCurrentMonthSeries returns one point per day of the current month
func (s *Service) GetCurrentMonthSeries(ctx context.Context) ([]models.ChartDataPoint, error) {
	today := s.Today()
	buckets := CurrentMonthBuckets(today)
	return s.series(ctx, "month:"+today.Format(models.DateLayout), buckets)
}

// GetHistoricalSeries returns count points for the last count weeks or
// months, oldest first.
func (s *Service) GetHistoricalSeries(ctx context.Context, period Period, count int) ([]models.ChartDataPoint, error) {
	if err := ValidateHistorical(period, count); err != nil {
		return nil, err
	}
	if s.MaxCount > 0 && count > s.MaxCount {
		return nil, fmt.Errorf("%w: count must be at most %d, got %d", ErrInvalidParameter, s.MaxCount, count)
	}
	today := s.Today()
	buckets, err := HistoricalBuckets(today, period, count)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("historical:%s:%d:%s", period, count, today.Format(models.DateLayout))
	return s.series(ctx, key, buckets)
}

// series reads a single snapshot covering every bucket and partitions it
func (s *Service) series(ctx context.Context, key string, buckets []Bucket) ([]models.ChartDataPoint, error) {
	from, to := buckets[0].From(), buckets[len(buckets)-1].To()
	return cached(ctx, s, key, func() ([]models.ChartDataPoint, error) {
		visits, err := s.store.ScanVisits(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("scan visits %s..%s: %w", from, to, err)
		}
		return Series(buckets, visits), nil
	})
}

func cached[T any](ctx context.Context, s *Service, key string, compute func() (T, error)) (T, error) {
	if s.cache == nil {
		return compute()
	}

	fullKey, ok := s.cache.Key(ctx, key)
	if !ok {
		return compute()
	}

	var hit T
	if s.cache.Get(ctx, fullKey, &hit) {
		return hit, nil
	}

	value, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(ctx, fullKey, value)
	return value, nil
}
