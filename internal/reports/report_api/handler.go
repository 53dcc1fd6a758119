package report_api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"museum-visits/internal/logger"
	"museum-visits/internal/models"
	"museum-visits/internal/reports"
	"museum-visits/internal/utils"
)

const (
	DefaultPeriod = reports.PeriodWeek
	DefaultCount  = 4
)

// ReportService is the report surface the handler depends on
type ReportService interface {
	GetTodaySummary(ctx context.Context) (models.DailySummary, error)
	GetCurrentMonthSeries(ctx context.Context) ([]models.ChartDataPoint, error)
	GetHistoricalSeries(ctx context.Context, period reports.Period, count int) ([]models.ChartDataPoint, error)
}

// Handler serves the summary and chart endpoints
type Handler struct {
	Service      ReportService
	Logger       *logger.Logger
	DefaultCount int
}

// NewHandler creates a new report handler
func NewHandler(service ReportService, log *logger.Logger) *Handler {
	return &Handler{
		Service:      service,
		Logger:       log,
		DefaultCount: DefaultCount,
	}
}

// RegisterRoutes registers the report routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/summary/today", h.GetTodaySummary)
	r.Route("/chart", func(r chi.Router) {
		r.Get("/month", h.GetCurrentMonthChart)
		r.Get("/historical", h.GetHistoricalChart)
	})
}

func (h *Handler) GetTodaySummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	summary, err := h.Service.GetTodaySummary(r.Context())
	if err != nil {
		h.fail(w, "GetTodaySummary", err)
		return
	}

	h.Logger.LogReport("today", fmt.Sprintf("GetTodaySummary: %d visitors in %s", summary.TotalVisitors, time.Since(start)))
	utils.SendJSONResponse(w, http.StatusOK, summary)
}

func (h *Handler) GetCurrentMonthChart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	points, err := h.Service.GetCurrentMonthSeries(r.Context())
	if err != nil {
		h.fail(w, "GetCurrentMonthChart", err)
		return
	}

	h.Logger.LogReport("month", fmt.Sprintf("GetCurrentMonthChart: %d points in %s", len(points), time.Since(start)))
	utils.SendJSONResponse(w, http.StatusOK, points)
}

// GetHistoricalChart handles ?period=week|month&count=n. Omitted parameters
// fall back to the last four weeks.
func (h *Handler) GetHistoricalChart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()

	period := reports.Period(query.Get("period"))
	if period == "" {
		period = DefaultPeriod
	}

	count := h.DefaultCount
	if raw := query.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, "GetHistoricalChart", fmt.Errorf("%w: count %q is not a number", reports.ErrInvalidParameter, raw))
			return
		}
		count = n
	}

	points, err := h.Service.GetHistoricalSeries(r.Context(), period, count)
	if err != nil {
		h.fail(w, "GetHistoricalChart", err)
		return
	}

	h.Logger.LogReport(string(period), fmt.Sprintf("GetHistoricalChart: %d points in %s", len(points), time.Since(start)))
	utils.SendJSONResponse(w, http.StatusOK, points)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := utils.SendError(w, err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("REPORTS", fmt.Sprintf("%s: %v", op, err))
		return
	}
	h.Logger.Warn("REPORTS", fmt.Sprintf("%s: %v", op, err))
}
