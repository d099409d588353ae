package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/estatecrm/internal/entity"
	"anoa.com/estatecrm/internal/testsupport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateIfAbsentAwardsOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMilestoneRepository(testsupport.NewSQLiteDB(t))
	subjectID := uuid.New()
	awardedAt := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

	created, err := repo.CreateIfAbsent(ctx, &entity.MilestoneFlag{
		SubjectID: subjectID, MilestoneName: "engaged_visitor", Score: 30, AwardedAt: awardedAt,
	})
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, &entity.MilestoneFlag{
		SubjectID: subjectID, MilestoneName: "engaged_visitor", Score: 80, AwardedAt: awardedAt.Add(time.Hour),
	})
	require.NoError(t, err)
	require.False(t, created)

	flags, err := repo.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, flags, 1)
	require.Equal(t, 30, flags[0].Score)
}

func TestListBySubjectIsScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	repo := NewMilestoneRepository(testsupport.NewSQLiteDB(t))
	subjectID := uuid.New()
	other := uuid.New()
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

	for i, name := range []string{"engaged_visitor", "active_prospect"} {
		_, err := repo.CreateIfAbsent(ctx, &entity.MilestoneFlag{
			SubjectID: subjectID, MilestoneName: name, Score: 60, AwardedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := repo.CreateIfAbsent(ctx, &entity.MilestoneFlag{
		SubjectID: other, MilestoneName: "engaged_visitor", Score: 25, AwardedAt: base,
	})
	require.NoError(t, err)

	flags, err := repo.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, flags, 2)
	require.Equal(t, "engaged_visitor", flags[0].MilestoneName)
	require.Equal(t, "active_prospect", flags[1].MilestoneName)
}
