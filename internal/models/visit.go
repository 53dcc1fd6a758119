package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DateLayout is the wire and storage format of a visit date.
const DateLayout = "2006-01-02"

// MaxGroupDescriptionLength caps the free-text description of a group visit.
const MaxGroupDescriptionLength = 100

type VisitType string

const (
	VisitTypeIndividual VisitType = "individual"
	VisitTypeGroup      VisitType = "group"
)

// Valid reports whether t is one of the known visit types
func (t VisitType) Valid() bool {
	return t == VisitTypeIndividual || t == VisitTypeGroup
}

// AgeGroupCounts holds the per-age-group headcount of a visit
type AgeGroupCounts struct {
	ChildrenCount int `bun:"children_count,notnull" json:"children_count"`
	AdultsCount   int `bun:"adults_count,notnull" json:"adults_count"`
	SeniorsCount  int `bun:"seniors_count,notnull" json:"seniors_count"`
	StudentsCount int `bun:"students_count,notnull" json:"students_count"`
}

// Total returns the number of visitors across all age groups
func (c AgeGroupCounts) Total() int {
	return c.ChildrenCount + c.AdultsCount + c.SeniorsCount + c.StudentsCount
}

// Visit is a single recorded museum visit, individual or group.
// Date is kept as a civil date string so range filters compare lexically
// in every backend.
type Visit struct {
	bun.BaseModel `bun:"table:visits"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	Date             string    `bun:"date,notnull" json:"date"`
	VisitType        VisitType `bun:"visit_type,notnull" json:"visit_type"`
	GroupDescription string    `bun:"group_description,nullzero" json:"group_description,omitempty"`
	AgeGroupCounts
	EventTypeID int64     `bun:"event_type_id,notnull" json:"event_type_id"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Day parses the visit date into a UTC midnight time.
func (v Visit) Day() (time.Time, error) {
	return time.Parse(DateLayout, v.Date)
}

// VisitInput is the client-supplied part of a visit, used for create and
// full-replace update. ID and CreatedAt are owned by the store.
type VisitInput struct {
	Date             string    `json:"date"`
	VisitType        VisitType `json:"visit_type"`
	GroupDescription string    `json:"group_description,omitempty"`
	AgeGroupCounts
	EventTypeID int64 `json:"event_type_id"`
}
