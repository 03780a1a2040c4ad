package division_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"projecthub/internal/division"
	"projecthub/internal/logger"
	"projecthub/internal/metrics"
	"projecthub/internal/models"
	"projecthub/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivisionHandler_Shared(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.MigrateAll(t)

	m := metrics.NewMock()
	repo := division.NewRepository(pg.DB, m)
	service := division.NewService(repo)
	handler := division.NewHandler(service, logger.New())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	create := func(t *testing.T, course string, semester, year int) *httptest.ResponseRecorder {
		t.Helper()
		body, _ := json.Marshal(map[string]interface{}{
			"course":   course,
			"semester": semester,
			"year":     year,
		})
		req := httptest.NewRequest(http.MethodPost, "/divisions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("CreateDivision", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions")

		w := create(t, "BCA", 5, 2025)
		assert.Equal(t, http.StatusCreated, w.Code)

		var d models.Division
		require.NoError(t, json.NewDecoder(w.Body).Decode(&d))
		assert.NotZero(t, d.ID)
		assert.Equal(t, "BCA", d.Course)
		assert.Equal(t, models.StatusActive, d.Status)
	})

	t.Run("CreateDivisionRejectsBadInput", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions")

		assert.Equal(t, http.StatusBadRequest, create(t, "BCA-5", 5, 2025).Code)
		assert.Equal(t, http.StatusBadRequest, create(t, "BCA", 9, 2025).Code)
		assert.Equal(t, http.StatusBadRequest, create(t, "BCA", 5, 1999).Code)
	})

	t.Run("ToggleStatus", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions")
		d := pg.SeedDivision(t, "BCA", 5, 2025)

		req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/divisions/%d/status", d.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var toggled models.Division
		require.NoError(t, json.NewDecoder(w.Body).Decode(&toggled))
		assert.Equal(t, models.StatusInactive, toggled.Status)

		req = httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/divisions/%d/status", d.ID), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		require.NoError(t, json.NewDecoder(w.Body).Decode(&toggled))
		assert.Equal(t, models.StatusActive, toggled.Status)
	})

	t.Run("GetActiveDivisions", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions")
		pg.SeedDivision(t, "BCA", 5, 2025)
		inactive := pg.SeedDivision(t, "BCA", 6, 2025)

		req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/divisions/%d/status", inactive.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/divisions/active?course=BCA&year=2025", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var active []models.Division
		require.NoError(t, json.NewDecoder(w.Body).Decode(&active))
		require.Len(t, active, 1)
		assert.Equal(t, 5, active[0].Semester)
	})

	t.Run("DeleteDivisionRemovesEnrollments", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions", "enrollments")
		d := pg.SeedDivision(t, "BCA", 5, 2025)
		pg.SeedEnrollments(t, d, 4)

		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/divisions/%d", d.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)

		count, err := pg.DB.NewSelect().Model((*models.Enrollment)(nil)).
			Where("division_id = ?", d.ID).Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("DeleteDivisionNotFound", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions")

		req := httptest.NewRequest(http.MethodDelete, "/divisions/424242", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
