package feedback_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"projecthub/internal/feedback"
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

func TestFeedbackHandler_Shared(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.MigrateAll(t)

	m := metrics.NewMock()
	log := logger.New()

	groupRepo := group.NewRepository(pg.DB, m)
	repo := feedback.NewRepository(pg.DB, m)
	service := feedback.NewService(repo, groupRepo, log, m)
	handler := feedback.NewHandler(service, log)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	submit := func(t *testing.T, groupID, rating int, message string) *httptest.ResponseRecorder {
		t.Helper()
		body, _ := json.Marshal(map[string]interface{}{
			"groupId": groupID,
			"message": message,
			"rating":  rating,
		})
		req := httptest.NewRequest(http.MethodPost, "/feedback", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Submit", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "feedbacks")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroup(t, pg, guide.ID)

		w := submit(t, g.ID, 4, "Weekly reviews were very helpful")
		assert.Equal(t, http.StatusCreated, w.Code)

		var fb models.Feedback
		require.NoError(t, json.NewDecoder(w.Body).Decode(&fb))
		assert.NotZero(t, fb.ID)
		assert.Equal(t, guide.ID, fb.GuideID)
		assert.Equal(t, "Inventory Tracker", fb.ProjectTitle)
		assert.Equal(t, models.FeedbackSubmitted, fb.Status)
	})

	t.Run("SubmitRejectsBadRating", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "feedbacks")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroup(t, pg, guide.ID)

		assert.Equal(t, http.StatusBadRequest, submit(t, g.ID, 0, "too low").Code)
		assert.Equal(t, http.StatusBadRequest, submit(t, g.ID, 6, "too high").Code)
	})

	t.Run("SubmitUnknownGroup", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "feedbacks")

		assert.Equal(t, http.StatusNotFound, submit(t, 999, 3, "no such group").Code)
	})

	t.Run("RespondCompletesFeedback", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "feedbacks")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroup(t, pg, guide.ID)

		w := submit(t, g.ID, 5, "Great guidance this sprint")
		require.Equal(t, http.StatusCreated, w.Code)

		var fb models.Feedback
		require.NoError(t, json.NewDecoder(w.Body).Decode(&fb))

		body, _ := json.Marshal(map[string]string{"response": "Glad it helped, keep the demos coming"})
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/feedback/%d/response", fb.ID), bytes.NewReader(body))
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var updated models.Feedback
		require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
		assert.Equal(t, models.FeedbackCompleted, updated.Status)
		assert.NotEmpty(t, updated.Response)
	})

	t.Run("ListByGuide", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, "guides", "groups", "feedbacks")
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroup(t, pg, guide.ID)

		require.Equal(t, http.StatusCreated, submit(t, g.ID, 4, "first").Code)
		require.Equal(t, http.StatusCreated, submit(t, g.ID, 5, "second").Code)

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/guides/%d/feedback", guide.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var feedbacks []models.Feedback
		require.NoError(t, json.NewDecoder(w.Body).Decode(&feedbacks))
		assert.Len(t, feedbacks, 2)
	})
}
