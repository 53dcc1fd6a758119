package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"museum-visits/internal/models"
)

// ErrNoData is returned instead of a header-only document.
var ErrNoData = errors.New("no data to export")

// Header is the fixed column order of the export
var Header = []string{
	"id",
	"date",
	"visit_type",
	"group_description",
	"children_count",
	"adults_count",
	"seniors_count",
	"students_count",
	"event_type_id",
	"created_at",
}

// EventTypeLookup resolves an event type id to its display name
type EventTypeLookup func(id int64) (string, bool)

type Options struct {
	// Quote switches to RFC 4180 quoting. The default output joins fields
	// with commas as-is, so a comma inside group_description splits the
	// field for any reader.
	Quote bool
}

// Export renders visits as CSV in the order given
func Export(visits []models.Visit, lookup EventTypeLookup, opts Options) ([]byte, error) {
	if len(visits) == 0 {
		return nil, ErrNoData
	}

	rows := make([][]string, 0, len(visits)+1)
	rows = append(rows, Header)
	for _, v := range visits {
		rows = append(rows, Row(v, lookup))
	}

	if opts.Quote {
		return quoted(rows)
	}

	// Lines are newline separated with no terminator after the last row.
	var buf bytes.Buffer
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.Join(row, ","))
	}
	return buf.Bytes(), nil
}

// Row renders a single visit in Header order
func Row(v models.Visit, lookup EventTypeLookup) []string {
	eventType := strconv.FormatInt(v.EventTypeID, 10)
	if lookup != nil {
		if name, ok := lookup(v.EventTypeID); ok {
			eventType = name
		}
	}

	createdAt := ""
	if !v.CreatedAt.IsZero() {
		createdAt = v.CreatedAt.UTC().Format(time.RFC3339)
	}

	return []string{
		strconv.FormatInt(v.ID, 10),
		v.Date,
		string(v.VisitType),
		v.GroupDescription,
		strconv.Itoa(v.ChildrenCount),
		strconv.Itoa(v.AdultsCount),
		strconv.Itoa(v.SeniorsCount),
		strconv.Itoa(v.StudentsCount),
		eventType,
		createdAt,
	}
}

func quoted(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the attachment name offered for an export made on day
func Filename(prefix string, day time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, day.Format(models.DateLayout))
}
