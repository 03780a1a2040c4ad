package evaluation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"projecthub/internal/evaluation"
	"projecthub/internal/group"
	"projecthub/internal/logger"
	"projecthub/internal/metrics"
	"projecthub/internal/models"
	"projecthub/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGroup(t *testing.T, pg *testdb.PostgresContainer, guideID int) *models.Group {
	t.Helper()
	g := &models.Group{
		Name:         "Team Alpha",
		GuideID:      guideID,
		ProjectTitle: "Inventory Tracker",
		Year:         2025,
	}
	_, err := pg.DB.NewInsert().Model(g).Exec(context.Background())
	require.NoError(t, err)
	return g
}

func TestEvaluationHandler_Shared(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.MigrateAll(t)

	m := metrics.NewMock()
	log := logger.New()

	groupRepo := group.NewRepository(pg.DB, m)
	repo := evaluation.NewRepository(pg.DB, m)
	service := evaluation.NewService(repo, groupRepo, log, m)
	handler := evaluation.NewHandler(service, log)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	record := func(t *testing.T, groupID, guideID int, technical, presentation, documentation, innovation float64) *httptest.ResponseRecorder {
		t.Helper()
		body, _ := json.Marshal(map[string]interface{}{
			"guideId":            guideID,
			"technicalScore":     technical,
			"presentationScore":  presentation,
			"documentationScore": documentation,
			"innovationScore":    innovation,
		})
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/groups/%d/evaluation", groupID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Record", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "evaluations")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroup(t, pg, guide.ID)

		w := record(t, g.ID, guide.ID, 8, 7, 6, 9)
		assert.Equal(t, http.StatusOK, w.Code)

		var ev models.Evaluation
		require.NoError(t, json.NewDecoder(w.Body).Decode(&ev))
		assert.InDelta(t, 7.5, ev.OverallScore, 0.001)
		assert.Equal(t, models.EvaluationCompleted, ev.Status)
	})

	t.Run("RecordOverwritesPreviousScores", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "evaluations")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroup(t, pg, guide.ID)

		require.Equal(t, http.StatusOK, record(t, g.ID, guide.ID, 5, 5, 5, 5).Code)
		require.Equal(t, http.StatusOK, record(t, g.ID, guide.ID, 9, 9, 9, 9).Code)

		count, err := pg.DB.NewSelect().Model((*models.Evaluation)(nil)).
			Where("group_id = ?", g.ID).Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/groups/%d/evaluation?guideId=%d", g.ID, guide.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var ev models.Evaluation
		require.NoError(t, json.NewDecoder(w.Body).Decode(&ev))
		assert.InDelta(t, 9.0, ev.OverallScore, 0.001)
	})

	t.Run("RecordRejectsWrongGuide", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "evaluations")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		other := pg.SeedGuide(t, "Dr. Rao", "rao@example.com")
		g := seedGroup(t, pg, guide.ID)

		w := record(t, g.ID, other.ID, 8, 8, 8, 8)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "not assigned")
	})

	t.Run("RecordRejectsOutOfRangeScore", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "evaluations")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroup(t, pg, guide.ID)

		w := record(t, g.ID, guide.ID, 11, 5, 5, 5)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GetEvaluationNotFound", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "evaluations")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroup(t, pg, guide.ID)

		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/groups/%d/evaluation?guideId=%d", g.ID, guide.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ListByGuide", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "evaluations")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g1 := seedGroup(t, pg, guide.ID)
		g2 := seedGroup(t, pg, guide.ID)

		require.Equal(t, http.StatusOK, record(t, g1.ID, guide.ID, 7, 7, 7, 7).Code)
		require.Equal(t, http.StatusOK, record(t, g2.ID, guide.ID, 8, 8, 8, 8).Code)

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/guides/%d/evaluations", guide.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var evaluations []models.Evaluation
		require.NoError(t, json.NewDecoder(w.Body).Decode(&evaluations))
		assert.Len(t, evaluations, 2)
	})
}
