package visit_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"museum-visits/internal/database"
	"museum-visits/internal/export"
	"museum-visits/internal/logger"
	"museum-visits/internal/models"
	"museum-visits/internal/visits"
	visitdb "museum-visits/internal/visits/db"
	"museum-visits/internal/visits/visit_api"
)

func setupRouter(t *testing.T, opts export.Options) http.Handler {
	bunDB, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, database.Bootstrap(context.Background(), bunDB, true))

	log := logger.NewLoggerWithWriter(&bytes.Buffer{})
	svc := visits.NewVisitService(visitdb.New(bunDB), log, time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	visit_api.NewHandler(svc, log, opts, "museum_visits").RegisterRoutes(r)
	return r
}

func do(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createVisit(t *testing.T, router http.Handler, body string) models.Visit {
	t.Helper()
	w := do(t, router, http.MethodPost, "/visits", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var visit models.Visit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &visit))
	return visit
}

const groupBody = `{"date":"2024-07-15","visit_type":"group","group_description":"A, B","children_count":25,"adults_count":2,"event_type_id":2}`
const individualBody = `{"date":"2024-07-16","visit_type":"individual","group_description":"ignored","adults_count":2,"seniors_count":1,"event_type_id":1}`

func TestVisitCRUD(t *testing.T) {
	router := setupRouter(t, export.Options{})

	created := createVisit(t, router, groupBody)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "A, B", created.GroupDescription)

	individual := createVisit(t, router, individualBody)
	assert.Empty(t, individual.GroupDescription)

	w := do(t, router, http.MethodGet, "/visits", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Visit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "2024-07-16", list[0].Date, "newest first")

	w = do(t, router, http.MethodPut, "/visits/"+itoa(created.ID),
		`{"date":"2024-07-14","visit_type":"group","children_count":10,"event_type_id":3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Visit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "2024-07-14", updated.Date)
	assert.Empty(t, updated.GroupDescription, "full replace clears omitted fields")
	assert.Zero(t, updated.AdultsCount)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	w = do(t, router, http.MethodGet, "/visits/"+itoa(created.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodDelete, "/visits/"+itoa(created.ID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodDelete, "/visits/"+itoa(created.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/visits/"+itoa(created.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMissingVisit(t *testing.T) {
	router := setupRouter(t, export.Options{})

	w := do(t, router, http.MethodPut, "/visits/999", groupBody)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateVisitRejectsInvalidInput(t *testing.T) {
	router := setupRouter(t, export.Options{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"date":`},
		{"future date", `{"date":"2024-07-21","visit_type":"individual","adults_count":1,"event_type_id":1}`},
		{"unknown event type", `{"date":"2024-07-15","visit_type":"individual","adults_count":1,"event_type_id":99}`},
		{"negative count", `{"date":"2024-07-15","visit_type":"individual","adults_count":-1,"event_type_id":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/visits", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestInvalidVisitID(t *testing.T) {
	router := setupRouter(t, export.Options{})

	w := do(t, router, http.MethodGet, "/visits/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEventTypes(t *testing.T) {
	router := setupRouter(t, export.Options{})

	w := do(t, router, http.MethodGet, "/event-types", "")
	require.Equal(t, http.StatusOK, w.Code)

	var eventTypes []models.EventType
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eventTypes))
	assert.Len(t, eventTypes, 8)
}

func TestExportEmpty(t *testing.T) {
	router := setupRouter(t, export.Options{})

	w := do(t, router, http.MethodGet, "/visits/export", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, visit_api.NoDataMessage, strings.TrimSpace(w.Body.String()))
}

func TestExportCSV(t *testing.T) {
	router := setupRouter(t, export.Options{})
	createVisit(t, router, groupBody)
	createVisit(t, router, individualBody)

	w := do(t, router, http.MethodGet, "/visits/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="museum_visits_2024-07-20.csv"`, w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(export.Header, ","), lines[0])
	assert.Contains(t, lines[1], ",2024-07-16,individual,,0,2,1,0,Meeting with writer,")
	assert.Contains(t, lines[2], ",2024-07-15,group,A, B,25,2,0,0,Excursion,")
}

func TestExportCSVQuoted(t *testing.T) {
	router := setupRouter(t, export.Options{Quote: true})
	createVisit(t, router, groupBody)

	w := do(t, router, http.MethodGet, "/visits/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `,"A, B",`)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
