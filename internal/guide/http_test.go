package guide_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"projecthub/internal/guide"
	"projecthub/internal/logger"
	"projecthub/internal/metrics"
	"projecthub/internal/models"
	"projecthub/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuideHandler_Shared(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.MigrateAll(t)

	m := metrics.NewMock()
	repo := guide.NewRepository(pg.DB, m)
	service := guide.NewService(repo)
	handler := guide.NewHandler(service, logger.New())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	t.Run("CreateGuide", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides")

		body, _ := json.Marshal(map[string]string{
			"name":      "Dr. Mehta",
			"email":     "mehta@example.com",
			"expertise": "Distributed Systems",
		})
		req := httptest.NewRequest(http.MethodPost, "/guides", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var created models.Guide
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		assert.NotZero(t, created.ID)
		assert.Equal(t, models.StatusActive, created.Status)
	})

	t.Run("CreateGuideDuplicateEmail", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides")
		pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")

		body, _ := json.Marshal(map[string]string{
			"name":  "Another Mehta",
			"email": "mehta@example.com",
		})
		req := httptest.NewRequest(http.MethodPost, "/guides", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("CreateGuideRejectsBadEmail", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides")

		body, _ := json.Marshal(map[string]string{
			"name":  "Dr. Mehta",
			"email": "not-an-email",
		})
		req := httptest.NewRequest(http.MethodPost, "/guides", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ToggleStatusHidesFromActiveList", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides")
		g := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		pg.SeedGuide(t, "Dr. Rao", "rao@example.com")

		req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/guides/%d/status", g.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/guides/active", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var active []models.Guide
		require.NoError(t, json.NewDecoder(w.Body).Decode(&active))
		require.Len(t, active, 1)
		assert.Equal(t, "Dr. Rao", active[0].Name)
	})

	t.Run("UpdateGuide", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides")
		g := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")

		body, _ := json.Marshal(map[string]string{
			"name":      "Dr. Mehta",
			"email":     "mehta@example.com",
			"expertise": "Databases",
		})
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/guides/%d", g.ID), bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Guide
		require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
		assert.Equal(t, "Databases", updated.Expertise)
	})
}
