package visits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"museum-visits/internal/export"
	"museum-visits/internal/logger"
	"museum-visits/internal/models"
)

type DBLayer interface {
	CreateVisit(ctx context.Context, visit *models.Visit) error
	GetVisit(ctx context.Context, id int64) (*models.Visit, error)
	UpdateVisit(ctx context.Context, visit *models.Visit) error
	DeleteVisit(ctx context.Context, id int64) error
	ListVisits(ctx context.Context) ([]models.Visit, error)
	ListEventTypes(ctx context.Context) ([]models.EventType, error)
	GetEventType(ctx context.Context, id int64) (*models.EventType, error)
}

type EventPublisher interface {
	PublishVisitChange(ctx context.Context, event models.VisitChangeEvent) error
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type VisitService struct {
	DB        DBLayer
	Publisher EventPublisher
	Cache     CacheInvalidator
	Logger    *logger.Logger
	Location  *time.Location
	Now       func() time.Time
}

func NewVisitService(db DBLayer, log *logger.Logger, loc *time.Location) *VisitService {
	if loc == nil {
		loc = time.Local
	}
	return &VisitService{DB: db, Logger: log, Location: loc, Now: time.Now}
}

// Today is the current civil date in the service location, at UTC midnight
func (s *VisitService) Today() time.Time {
	y, m, d := s.Now().In(s.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ---------------- VISITS ----------------

func (s *VisitService) ListVisits(ctx context.Context) ([]models.Visit, error) {
	return s.DB.ListVisits(ctx)
}

func (s *VisitService) GetVisit(ctx context.Context, id int64) (*models.Visit, error) {
	return s.DB.GetVisit(ctx, id)
}

func (s *VisitService) CreateVisit(ctx context.Context, input models.VisitInput) (*models.Visit, error) {
	input, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	visit := &models.Visit{
		Date:             input.Date,
		VisitType:        input.VisitType,
		GroupDescription: input.GroupDescription,
		AgeGroupCounts:   input.AgeGroupCounts,
		EventTypeID:      input.EventTypeID,
		CreatedAt:        s.Now().UTC(),
	}
	if err := s.DB.CreateVisit(ctx, visit); err != nil {
		return nil, err
	}

	s.Logger.LogVisit(models.VisitActionCreated, visit.ID, fmt.Sprintf("%s visit on %s, %d visitors", visit.VisitType, visit.Date, visit.Total()))
	s.changed(ctx, models.VisitActionCreated, visit.ID, visit.Date)
	return visit, nil
}

// UpdateVisit replaces every client-owned field of visit id
func (s *VisitService) UpdateVisit(ctx context.Context, id int64, input models.VisitInput) (*models.Visit, error) {
	input, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	visit := &models.Visit{
		ID:               id,
		Date:             input.Date,
		VisitType:        input.VisitType,
		GroupDescription: input.GroupDescription,
		AgeGroupCounts:   input.AgeGroupCounts,
		EventTypeID:      input.EventTypeID,
	}
	if err := s.DB.UpdateVisit(ctx, visit); err != nil {
		return nil, err
	}

	updated, err := s.DB.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Logger.LogVisit(models.VisitActionUpdated, id, fmt.Sprintf("%s visit on %s, %d visitors", updated.VisitType, updated.Date, updated.Total()))
	s.changed(ctx, models.VisitActionUpdated, id, updated.Date)
	return updated, nil
}

func (s *VisitService) DeleteVisit(ctx context.Context, id int64) error {
	visit, err := s.DB.GetVisit(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteVisit(ctx, id); err != nil {
		return err
	}

	s.Logger.LogVisit(models.VisitActionDeleted, id, fmt.Sprintf("visit on %s removed", visit.Date))
	s.changed(ctx, models.VisitActionDeleted, id, visit.Date)
	return nil
}

// changed drops cached reports and announces the change. The write already
// succeeded, so failures here are logged and not returned.
func (s *VisitService) changed(ctx context.Context, action string, id int64, date string) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("Failed to invalidate reports after visit %d %s: %v", id, action, err))
		}
	}

	if s.Publisher != nil {
		event := models.VisitChangeEvent{
			Action:  action,
			VisitID: id,
			Date:    date,
			At:      s.Now().UTC().Format(time.RFC3339),
		}
		if err := s.Publisher.PublishVisitChange(ctx, event); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish visit %d %s: %v", id, action, err))
		}
	}
}

// validate checks input and returns it normalised: individual visits carry
// no description.
func (s *VisitService) validate(ctx context.Context, input models.VisitInput) (models.VisitInput, error) {
	var problems []string

	if day, err := time.Parse(models.DateLayout, input.Date); err != nil {
		problems = append(problems, fmt.Sprintf("date %q must be YYYY-MM-DD", input.Date))
	} else if day.After(s.Today()) {
		problems = append(problems, fmt.Sprintf("date %s is in the future", input.Date))
	}

	switch input.VisitType {
	case models.VisitTypeIndividual:
		input.GroupDescription = ""
	case models.VisitTypeGroup:
		input.GroupDescription = strings.TrimSpace(input.GroupDescription)
		if utf8.RuneCountInString(input.GroupDescription) > models.MaxGroupDescriptionLength {
			problems = append(problems, fmt.Sprintf("group_description must be at most %d characters", models.MaxGroupDescriptionLength))
		}
	default:
		problems = append(problems, fmt.Sprintf("visit_type must be %q or %q", models.VisitTypeIndividual, models.VisitTypeGroup))
	}

	counts := input.AgeGroupCounts
	if counts.ChildrenCount < 0 || counts.AdultsCount < 0 || counts.SeniorsCount < 0 || counts.StudentsCount < 0 {
		problems = append(problems, "visitor counts cannot be negative")
	}

	if input.EventTypeID == 0 {
		problems = append(problems, "event_type_id is required")
	} else if _, err := s.DB.GetEventType(ctx, input.EventTypeID); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return input, err
		}
		problems = append(problems, fmt.Sprintf("event_type_id %d does not exist", input.EventTypeID))
	}

	if len(problems) > 0 {
		return input, fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(problems, "; "))
	}
	return input, nil
}

// ---------------- EVENT TYPES ----------------

func (s *VisitService) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	return s.DB.ListEventTypes(ctx)
}

// ---------------- EXPORT ----------------

// ExportCSV renders every visit in list order, resolving event type names
func (s *VisitService) ExportCSV(ctx context.Context, opts export.Options) ([]byte, error) {
	visits, err := s.DB.ListVisits(ctx)
	if err != nil {
		return nil, err
	}
	if len(visits) == 0 {
		return nil, export.ErrNoData
	}

	eventTypes, err := s.DB.ListEventTypes(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(eventTypes))
	for _, et := range eventTypes {
		names[et.ID] = et.Name
	}

	data, err := export.Export(visits, func(id int64) (string, bool) {
		name, ok := names[id]
		return name, ok
	}, opts)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("EXPORT", fmt.Sprintf("Exported %d visits (%d bytes)", len(visits), len(data)))
	return data, nil
}
