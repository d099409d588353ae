package engagement

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/lock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSweeper(activities *fakeActivities, snapshots *fakeSnapshots, milestones MilestoneChecker, locker lock.Locker) *Sweeper {
	svc := newTestService(activities, snapshots, nil, Config{})
	sweeper := NewSweeper(svc, activities, milestones, locker, SweepConfig{}, zap.NewNop())
	sweeper.now = func() time.Time { return fixedNow }
	return sweeper
}

func TestSweepRecomputesActiveSubjects(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	activities := &fakeActivities{
		sums:   map[uuid.UUID]int{a: 30, b: 80},
		active: []uuid.UUID{a, b},
	}
	snapshots := newFakeSnapshots()
	milestones := &fakeMilestones{}
	sweeper := newTestSweeper(activities, snapshots, milestones, lock.NewLocalLocker())

	result, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Subjects)
	require.Equal(t, 2, result.Recomputed)
	require.Zero(t, result.Failed)

	require.Equal(t, 30, snapshots.stored[a].TotalScore)
	require.Equal(t, 80, snapshots.stored[b].TotalScore)
	require.Equal(t, map[uuid.UUID]int{a: 30, b: 80}, milestones.scores)

	require.True(t, activities.since[0].Equal(fixedNow.Add(-DefaultSweepLookback)))
}

func TestSweepContinuesPastSubjectFailures(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	activities := &fakeActivities{
		sums:   map[uuid.UUID]int{a: 30, b: 10},
		active: []uuid.UUID{a, b},
	}
	milestones := &fakeMilestones{err: errors.New("flag table locked")}
	sweeper := newTestSweeper(activities, newFakeSnapshots(), milestones, lock.NewLocalLocker())

	result, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Failed)
	require.Zero(t, result.Recomputed)
}

func TestSweepRefusesWhileLockHeld(t *testing.T) {
	ctx := context.Background()
	locker := lock.NewLocalLocker()
	token, ok, err := locker.Acquire(ctx, SweepLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	sweeper := newTestSweeper(&fakeActivities{}, newFakeSnapshots(), nil, locker)
	_, err = sweeper.Run(ctx)
	require.ErrorIs(t, err, ErrSweepInProgress)
	require.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, locker.Release(ctx, SweepLockKey, token))
	_, err = sweeper.Run(ctx)
	require.NoError(t, err)
}

func TestSweepReleasesLockAfterFailure(t *testing.T) {
	ctx := context.Background()
	locker := lock.NewLocalLocker()
	activities := &fakeActivities{listErr: errors.New("db gone")}
	sweeper := newTestSweeper(activities, newFakeSnapshots(), nil, locker)

	_, err := sweeper.Run(ctx)
	require.ErrorIs(t, err, apperror.ErrStorage)

	_, ok, err := locker.Acquire(ctx, SweepLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

type recordingLocker struct {
	lock.Locker
	token    string
	released []string
}

func (l *recordingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token, ok, err := l.Locker.Acquire(ctx, key, ttl)
	l.token = token
	return token, ok, err
}

func (l *recordingLocker) Release(ctx context.Context, key, token string) error {
	l.released = append(l.released, token)
	return l.Locker.Release(ctx, key, token)
}

func TestSweepReleasesWithItsOwnToken(t *testing.T) {
	locker := &recordingLocker{Locker: lock.NewLocalLocker()}
	sweeper := newTestSweeper(&fakeActivities{}, newFakeSnapshots(), nil, locker)

	_, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, locker.token)
	require.Equal(t, []string{locker.token}, locker.released)
}
