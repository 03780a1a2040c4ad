package group_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"projecthub/internal/group"
	"projecthub/internal/metrics"
	"projecthub/internal/models"
	"projecthub/internal/roster"
	"projecthub/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_Shared(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.MigrateAll(t)

	repo := group.NewRepository(pg.DB, metrics.NewMock())

	allTables := []string{"divisions", "enrollments", "guides", "groups", "group_members"}

	seedGroupWithMembers := func(t *testing.T, guideID, count int) *models.Group {
		t.Helper()
		members := make([]models.GroupMember, 0, count)
		for i := 1; i <= count; i++ {
			members = append(members, models.GroupMember{
				Name:             fmt.Sprintf("Student %d", i),
				EnrollmentNumber: fmt.Sprintf("BCA2025%03d", i),
				ClassName:        "BCA 5",
				Position:         i,
			})
		}
		g, err := repo.CreateWithMembers(context.Background(), &models.Group{
			Name:         "Team Alpha",
			GuideID:      guideID,
			ProjectTitle: "Inventory Tracker",
			Year:         2025,
		}, members)
		require.NoError(t, err)
		return g
	}

	memberCount := func(t *testing.T, groupID int) int {
		t.Helper()
		count, err := pg.DB.NewSelect().
			Model((*models.GroupMember)(nil)).
			Where("group_id = ?", groupID).
			Count(context.Background())
		require.NoError(t, err)
		return count
	}

	t.Run("ConcurrentAddsCannotExceedCapacity", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroupWithMembers(t, guide.ID, 3)

		// Two sessions race to add a 4th member, each with a distinct
		// enrollment number so the unique constraint cannot save us.
		candidates := []string{"BCA2025101", "BCA2025102"}
		start := make(chan struct{})
		errs := make(chan error, len(candidates))
		var wg sync.WaitGroup
		for _, number := range candidates {
			wg.Add(1)
			go func(number string) {
				defer wg.Done()
				<-start
				errs <- repo.InsertMember(context.Background(), g.ID, &models.GroupMember{
					Name:             "Student " + number,
					EnrollmentNumber: number,
					ClassName:        "BCA 5",
				}, roster.MaxMembers)
			}(number)
		}
		close(start)
		wg.Wait()
		close(errs)

		var succeeded, rejected int
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, roster.ErrRosterFull)
			rejected++
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, rejected)
		assert.Equal(t, roster.MaxMembers, memberCount(t, g.ID))
	})

	t.Run("ConcurrentRemovesCannotBreachFloor", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)
		guide := pg.SeedGuide(t, "Dr. Mehta", "mehta@example.com")
		g := seedGroupWithMembers(t, guide.ID, 4)

		targets := []string{"BCA2025003", "BCA2025004"}
		start := make(chan struct{})
		errs := make(chan error, len(targets))
		var wg sync.WaitGroup
		for _, number := range targets {
			wg.Add(1)
			go func(number string) {
				defer wg.Done()
				<-start
				errs <- repo.DeleteMember(context.Background(), g.ID, number, roster.MinMembers)
			}(number)
		}
		close(start)
		wg.Wait()
		close(errs)

		var succeeded, rejected int
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, roster.ErrRosterAtMinimum)
			rejected++
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, rejected)
		assert.Equal(t, roster.MinMembers, memberCount(t, g.ID))
	})

	t.Run("InsertMemberUnknownGroup", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		err := repo.InsertMember(context.Background(), 999, &models.GroupMember{
			Name:             "Student X",
			EnrollmentNumber: "BCA2025900",
			ClassName:        "BCA 5",
		}, roster.MaxMembers)
		assert.ErrorIs(t, err, roster.ErrGroupNotFound)
	})
}
