package enrollment_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"projecthub/internal/division"
	"projecthub/internal/enrollment"
	"projecthub/internal/logger"
	"projecthub/internal/metrics"
	"projecthub/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentHandler_Shared(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.MigrateAll(t)

	m := metrics.NewMock()
	log := logger.New()

	divisionRepo := division.NewRepository(pg.DB, m)
	repo := enrollment.NewRepository(pg.DB, m)
	service := enrollment.NewService(repo, divisionRepo)
	handler := enrollment.NewHandler(service, log, m)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	generate := func(t *testing.T, divisionID, start, end int) *httptest.ResponseRecorder {
		t.Helper()
		body, _ := json.Marshal(map[string]int{"start": start, "end": end})
		req := httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/divisions/%d/enrollments/generate", divisionID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("GenerateRange", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions", "enrollments")
		d := pg.SeedDivision(t, "BCA", 5, 2025)

		w := generate(t, d.ID, 1, 10)
		assert.Equal(t, http.StatusCreated, w.Code)

		var result enrollment.GenerateResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, 10, result.Requested)
		assert.Equal(t, 10, result.Created)
		assert.Equal(t, 0, result.Skipped)

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/divisions/%d/enrollments", d.ID), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var list []map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
		require.Len(t, list, 10)
		assert.Equal(t, "BCA2025001", list[0]["enrollmentNumber"])
		assert.Equal(t, "BCA2025010", list[9]["enrollmentNumber"])
	})

	t.Run("GenerateRangeIsIdempotent", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions", "enrollments")
		d := pg.SeedDivision(t, "BCA", 5, 2025)

		w := generate(t, d.ID, 1, 5)
		require.Equal(t, http.StatusCreated, w.Code)

		// Overlapping range only creates the new tail.
		w = generate(t, d.ID, 1, 8)
		require.Equal(t, http.StatusCreated, w.Code)

		var result enrollment.GenerateResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, 8, result.Requested)
		assert.Equal(t, 3, result.Created)
		assert.Equal(t, 5, result.Skipped)
	})

	t.Run("GenerateRangeRejectsBadBounds", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions", "enrollments")
		d := pg.SeedDivision(t, "BCA", 5, 2025)

		assert.Equal(t, http.StatusBadRequest, generate(t, d.ID, 0, 5).Code)
		assert.Equal(t, http.StatusBadRequest, generate(t, d.ID, 5, 3).Code)
		assert.Equal(t, http.StatusBadRequest, generate(t, d.ID, 1, 1000).Code)
	})

	t.Run("GenerateRangeUnknownDivision", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions", "enrollments")

		assert.Equal(t, http.StatusNotFound, generate(t, 999, 1, 5).Code)
	})

	t.Run("AddOneValidatesPattern", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions", "enrollments")
		d := pg.SeedDivision(t, "BCA", 5, 2025)

		body, _ := json.Marshal(map[string]string{"enrollmentNumber": "BCA2025042"})
		req := httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/divisions/%d/enrollments", d.ID), bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		// Same number again conflicts.
		req = httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/divisions/%d/enrollments", d.ID), bytes.NewReader(body))
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)

		body, _ = json.Marshal(map[string]string{"enrollmentNumber": "not-a-number"})
		req = httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/divisions/%d/enrollments", d.ID), bytes.NewReader(body))
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Summary", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions", "enrollments")
		d := pg.SeedDivision(t, "BCA", 5, 2025)
		pg.SeedEnrollments(t, d, 6)

		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/divisions/%d/enrollments/summary", d.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var counts enrollment.CountResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&counts))
		assert.Equal(t, 6, counts.Registered)
		assert.Equal(t, 6, counts.Total)
	})

	t.Run("RemoveByNumber", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "divisions", "enrollments")
		d := pg.SeedDivision(t, "BCA", 5, 2025)
		pg.SeedEnrollments(t, d, 3)

		req := httptest.NewRequest(http.MethodDelete, "/enrollments/BCA2025002", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)

		req = httptest.NewRequest(http.MethodDelete, "/enrollments/BCA2025002", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
