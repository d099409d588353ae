package milestone

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anoa.com/estatecrm/internal/entity"
	milestoneRepo "anoa.com/estatecrm/internal/modules/milestone/repository"
	notification "anoa.com/estatecrm/internal/modules/notification/service"
	"anoa.com/estatecrm/internal/testsupport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notification.MilestoneEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event notification.MilestoneEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Milestone)
	}
	return out
}

func newTestTracker(t *testing.T, pub notification.Publisher) *tracker {
	t.Helper()
	repo := milestoneRepo.NewMilestoneRepository(testsupport.NewSQLiteDB(t))
	tr := NewTracker(repo, pub, time.Second, zap.NewNop()).(*tracker)
	tr.now = func() time.Time { return time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC) }
	return tr
}

func milestoneNames(ms []Milestone) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}

func TestCheckAwardsCrossedMilestonesOnce(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	tr := newTestTracker(t, pub)
	subjectID := uuid.New()

	crossed, err := tr.Check(ctx, subjectID, 30)
	require.NoError(t, err)
	require.Equal(t, []string{"engaged_visitor"}, milestoneNames(crossed))

	crossed, err = tr.Check(ctx, subjectID, 45)
	require.NoError(t, err)
	require.Empty(t, crossed)

	crossed, err = tr.Check(ctx, subjectID, 76)
	require.NoError(t, err)
	require.Equal(t, []string{"active_prospect", "hot_lead"}, milestoneNames(crossed))

	require.Equal(t, []string{"engaged_visitor", "active_prospect", "hot_lead"}, pub.names())

	flags, err := tr.List(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, flags, 3)
}

func TestCheckNeverRevokesOrReemits(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	tr := newTestTracker(t, pub)
	subjectID := uuid.New()

	_, err := tr.Check(ctx, subjectID, 60)
	require.NoError(t, err)

	crossed, err := tr.Check(ctx, subjectID, 10)
	require.NoError(t, err)
	require.Empty(t, crossed)

	crossed, err = tr.Check(ctx, subjectID, 60)
	require.NoError(t, err)
	require.Empty(t, crossed)

	flags, err := tr.List(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, flags, 2)
	require.Len(t, pub.names(), 2)
}

func TestCheckEventCarriesAwardDetails(t *testing.T) {
	pub := &recordingPublisher{}
	tr := newTestTracker(t, pub)
	subjectID := uuid.New()

	_, err := tr.Check(context.Background(), subjectID, 100)
	require.NoError(t, err)

	require.Len(t, pub.events, 4)
	last := pub.events[3]
	require.Equal(t, notification.EventTypeMilestoneReached, last.Type)
	require.Equal(t, subjectID, last.SubjectID)
	require.Equal(t, "ready_to_buy", last.Milestone)
	require.Equal(t, 100, last.Score)
	require.True(t, last.AwardedAt.Equal(time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)))
}

func TestCheckKeepsFlagWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	tr := newTestTracker(t, pub)
	subjectID := uuid.New()

	crossed, err := tr.Check(ctx, subjectID, 26)
	require.NoError(t, err)
	require.Equal(t, []string{"engaged_visitor"}, milestoneNames(crossed))

	flags, err := tr.List(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, flags, 1)

	crossed, err = tr.Check(ctx, subjectID, 26)
	require.NoError(t, err)
	require.Empty(t, crossed)
}

func TestCheckBelowFirstThresholdTouchesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	tr := newTestTracker(t, pub)

	crossed, err := tr.Check(context.Background(), uuid.New(), 24)
	require.NoError(t, err)
	require.Empty(t, crossed)
	require.Empty(t, pub.names())
}

func TestCheckRejectsNilSubject(t *testing.T) {
	tr := newTestTracker(t, nil)
	_, err := tr.Check(context.Background(), uuid.Nil, 50)
	require.Error(t, err)
}

var _ milestoneRepo.MilestoneRepository = (*racingRepo)(nil)

// racingRepo simulates another writer winning every insert.
type racingRepo struct{}

func (racingRepo) ListBySubject(context.Context, uuid.UUID) ([]entity.MilestoneFlag, error) {
	return nil, nil
}

func (racingRepo) CreateIfAbsent(context.Context, *entity.MilestoneFlag) (bool, error) {
	return false, nil
}

func TestCheckLeavesNotificationToInsertWinner(t *testing.T) {
	pub := &recordingPublisher{}
	tr := NewTracker(racingRepo{}, pub, time.Second, zap.NewNop())

	crossed, err := tr.Check(context.Background(), uuid.New(), 80)
	require.NoError(t, err)
	require.Empty(t, crossed)
	require.Empty(t, pub.names())
}
