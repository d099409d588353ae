package engagement

import (
	"context"
	"sync"
	"time"

	"anoa.com/estatecrm/internal/entity"
	milestone "anoa.com/estatecrm/internal/modules/milestone/service"
	"github.com/google/uuid"
)

type fakeActivities struct {
	mu      sync.Mutex
	sums    map[uuid.UUID]int
	since   []time.Time
	active  []uuid.UUID
	sumErr  error
	listErr error
}

func (f *fakeActivities) SumPointsSince(_ context.Context, subjectID uuid.UUID, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = append(f.since, since)
	if f.sumErr != nil {
		return 0, f.sumErr
	}
	return f.sums[subjectID], nil
}

func (f *fakeActivities) SubjectsActiveSince(_ context.Context, since time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = append(f.since, since)
	return f.active, f.listErr
}

type fakeSnapshots struct {
	mu      sync.Mutex
	stored  map[uuid.UUID]entity.EngagementSnapshot
	upserts int
	findErr error
	saveErr error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{stored: map[uuid.UUID]entity.EngagementSnapshot{}}
}

func (f *fakeSnapshots) Upsert(_ context.Context, snapshot *entity.EngagementSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.upserts++
	f.stored[snapshot.SubjectID] = *snapshot
	return nil
}

func (f *fakeSnapshots) FindBySubjectID(_ context.Context, subjectID uuid.UUID) (*entity.EngagementSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	snapshot, ok := f.stored[subjectID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (f *fakeSnapshots) GetTopSubjects(context.Context, int) ([]entity.EngagementSnapshot, error) {
	return nil, nil
}

type fakeLeadScores struct {
	mu     sync.Mutex
	scores []int
	found  bool
	err    error
}

func (f *fakeLeadScores) SyncLeadScore(_ context.Context, _ uuid.UUID, score int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = append(f.scores, score)
	return f.found, f.err
}

type fakeMilestones struct {
	mu     sync.Mutex
	scores map[uuid.UUID]int
	err    error
}

func (f *fakeMilestones) Check(_ context.Context, subjectID uuid.UUID, score int) ([]milestone.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scores == nil {
		f.scores = map[uuid.UUID]int{}
	}
	f.scores[subjectID] = score
	return nil, f.err
}
