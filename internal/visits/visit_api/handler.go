package visit_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"museum-visits/internal/export"
	"museum-visits/internal/logger"
	"museum-visits/internal/models"
	"museum-visits/internal/utils"
)

// NoDataMessage is the plain-text body of an empty export
const NoDataMessage = "No data to export."

type VisitService interface {
	ListVisits(ctx context.Context) ([]models.Visit, error)
	GetVisit(ctx context.Context, id int64) (*models.Visit, error)
	CreateVisit(ctx context.Context, input models.VisitInput) (*models.Visit, error)
	UpdateVisit(ctx context.Context, id int64, input models.VisitInput) (*models.Visit, error)
	DeleteVisit(ctx context.Context, id int64) error
	ListEventTypes(ctx context.Context) ([]models.EventType, error)
	ExportCSV(ctx context.Context, opts export.Options) ([]byte, error)
	Today() time.Time
}

type Handler struct {
	Service        VisitService
	Logger         *logger.Logger
	ExportOptions  export.Options
	FilenamePrefix string
}

// NewHandler creates a new visit handler
func NewHandler(service VisitService, log *logger.Logger, opts export.Options, filenamePrefix string) *Handler {
	return &Handler{
		Service:        service,
		Logger:         log,
		ExportOptions:  opts,
		FilenamePrefix: filenamePrefix,
	}
}

// RegisterRoutes registers the visit and event type routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/visits", func(r chi.Router) {
		r.Get("/", h.ListVisits)
		r.Post("/", h.CreateVisit)
		r.Get("/export", h.ExportVisits)
		r.Get("/{visitId}", h.GetVisit)
		r.Put("/{visitId}", h.UpdateVisit)
		r.Delete("/{visitId}", h.DeleteVisit)
	})
	r.Get("/event-types", h.ListEventTypes)
}

func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.Service.ListVisits(r.Context())
	if err != nil {
		h.fail(w, "ListVisits", err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, visits)
}

func (h *Handler) GetVisit(w http.ResponseWriter, r *http.Request) {
	id, err := visitID(r)
	if err != nil {
		h.fail(w, "GetVisit", err)
		return
	}

	visit, err := h.Service.GetVisit(r.Context(), id)
	if err != nil {
		h.fail(w, "GetVisit", err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, visit)
}

func (h *Handler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	input, err := decodeInput(r)
	if err != nil {
		h.fail(w, "CreateVisit", err)
		return
	}

	visit, err := h.Service.CreateVisit(r.Context(), input)
	if err != nil {
		h.fail(w, "CreateVisit", err)
		return
	}

	h.Logger.Info("VISITS", fmt.Sprintf("CreateVisit: created visit %d", visit.ID))
	utils.SendJSONResponse(w, http.StatusCreated, visit)
}

// UpdateVisit replaces the visit wholesale; omitted fields are reset
func (h *Handler) UpdateVisit(w http.ResponseWriter, r *http.Request) {
	id, err := visitID(r)
	if err != nil {
		h.fail(w, "UpdateVisit", err)
		return
	}

	input, err := decodeInput(r)
	if err != nil {
		h.fail(w, "UpdateVisit", err)
		return
	}

	visit, err := h.Service.UpdateVisit(r.Context(), id, input)
	if err != nil {
		h.fail(w, "UpdateVisit", err)
		return
	}

	h.Logger.Info("VISITS", fmt.Sprintf("UpdateVisit: updated visit %d", id))
	utils.SendJSONResponse(w, http.StatusOK, visit)
}

func (h *Handler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	id, err := visitID(r)
	if err != nil {
		h.fail(w, "DeleteVisit", err)
		return
	}

	if err := h.Service.DeleteVisit(r.Context(), id); err != nil {
		h.fail(w, "DeleteVisit", err)
		return
	}

	h.Logger.Info("VISITS", fmt.Sprintf("DeleteVisit: deleted visit %d", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	eventTypes, err := h.Service.ListEventTypes(r.Context())
	if err != nil {
		h.fail(w, "ListEventTypes", err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, eventTypes)
}

// ExportVisits streams every visit as a CSV attachment
func (h *Handler) ExportVisits(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.ExportCSV(r.Context(), h.ExportOptions)
	if errors.Is(err, export.ErrNoData) {
		h.Logger.Info("EXPORT", "ExportVisits: nothing to export")
		http.Error(w, NoDataMessage, http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, "ExportVisits", err)
		return
	}

	filename := export.Filename(h.FilenamePrefix, h.Service.Today())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Error("EXPORT", fmt.Sprintf("ExportVisits: failed to write response: %v", err))
	}
}

func visitID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "visitId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid visit id %q", models.ErrValidation, raw)
	}
	return id, nil
}

func decodeInput(r *http.Request) (models.VisitInput, error) {
	var input models.VisitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return input, fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	return input, nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := utils.SendError(w, err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("VISITS", fmt.Sprintf("%s: %v", op, err))
		return
	}
	h.Logger.Warn("VISITS", fmt.Sprintf("%s: %v", op, err))
}
