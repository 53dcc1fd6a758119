package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"museum-visits/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// storeError classifies a driver error: missing rows become ErrNotFound,
// anything else is reported as the store being unavailable.
func storeError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
}

// ---------------- VISITS ----------------

// CreateVisit → insert a new visit, filling in its ID
func (d *DB) CreateVisit(ctx context.Context, visit *models.Visit) error {
	if _, err := d.Bun.NewInsert().Model(visit).Exec(ctx); err != nil {
		return storeError("create visit", err)
	}
	return nil
}

// GetVisit → fetch one visit by its ID
func (d *DB) GetVisit(ctx context.Context, id int64) (*models.Visit, error) {
	var visit models.Visit
	err := d.Bun.NewSelect().
		Model(&visit).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, storeError(fmt.Sprintf("get visit %d", id), err)
	}
	return &visit, nil
}

// UpdateVisit → replace every client-owned field; id and created_at stay
func (d *DB) UpdateVisit(ctx context.Context, visit *models.Visit) error {
	res, err := d.Bun.NewUpdate().
		Model(visit).
		Column("date", "visit_type", "group_description",
			"children_count", "adults_count", "seniors_count", "students_count",
			"event_type_id").
		Where("id = ?", visit.ID).
		Exec(ctx)
	if err != nil {
		return storeError(fmt.Sprintf("update visit %d", visit.ID), err)
	}
	return expectOneRow(res, fmt.Sprintf("update visit %d", visit.ID))
}

// DeleteVisit → delete a visit by ID
func (d *DB) DeleteVisit(ctx context.Context, id int64) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Visit)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return storeError(fmt.Sprintf("delete visit %d", id), err)
	}
	return expectOneRow(res, fmt.Sprintf("delete visit %d", id))
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// ListVisits → every visit, newest date first, then highest id
func (d *DB) ListVisits(ctx context.Context) ([]models.Visit, error) {
	visits := []models.Visit{}
	err := d.Bun.NewSelect().
		Model(&visits).
		Order("date DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, storeError("list visits", err)
	}
	return visits, nil
}

// ScanVisits → visits dated within [from, to], both YYYY-MM-DD inclusive.
// A single statement, so callers see one consistent snapshot.
func (d *DB) ScanVisits(ctx context.Context, from, to string) ([]models.Visit, error) {
	visits := []models.Visit{}
	err := d.Bun.NewSelect().
		Model(&visits).
		Where("date >= ?", from).
		Where("date <= ?", to).
		Order("date ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(fmt.Sprintf("scan visits %s..%s", from, to), err)
	}
	return visits, nil
}

// ---------------- EVENT TYPES ----------------

// ListEventTypes → all event types ordered by id
func (d *DB) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	eventTypes := []models.EventType{}
	err := d.Bun.NewSelect().
		Model(&eventTypes).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError("list event types", err)
	}
	return eventTypes, nil
}

// GetEventType → fetch one event type by its ID
func (d *DB) GetEventType(ctx context.Context, id int64) (*models.EventType, error) {
	var eventType models.EventType
	err := d.Bun.NewSelect().
		Model(&eventType).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, storeError(fmt.Sprintf("get event type %d", id), err)
	}
	return &eventType, nil
}
