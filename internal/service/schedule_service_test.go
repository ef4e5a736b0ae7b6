package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-balancer/internal/dto"
	"github.com/noah-isme/timetable-balancer/internal/models"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
)

type scheduleRepoStub struct {
	schedules map[string]models.Schedule
	filter    models.ScheduleFilter
}

func (s *scheduleRepoStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	s.filter = filter
	out := make([]models.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		out = append(out, sched)
	}
	return out, len(out), nil
}

func (s *scheduleRepoStub) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	sched, ok := s.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &sched, nil
}

func (s *scheduleRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.schedules[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.schedules, id)
	return nil
}

type classTimeReaderStub struct {
	views []models.ClassTimeView
	calls int
}

func (s *classTimeReaderStub) ListViewBySchedule(ctx context.Context, scheduleID string) ([]models.ClassTimeView, error) {
	s.calls++
	return s.views, nil
}

type loadBalanceReaderStub struct {
	record *models.LoadBalance
}

func (s *loadBalanceReaderStub) FindBySchedule(ctx context.Context, scheduleID string) (*models.LoadBalance, error) {
	if s.record == nil || s.record.ScheduleID != scheduleID {
		return nil, sql.ErrNoRows
	}
	return s.record, nil
}

// patternCache extends jsonCache with prefix invalidation.
type patternCache struct {
	*jsonCache
	invalidated []string
}

func (c *patternCache) Invalidate(ctx context.Context, pattern string) error {
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func newScheduleFixture() (*ScheduleService, *scheduleRepoStub, *classTimeReaderStub, *patternCache) {
	repo := &scheduleRepoStub{schedules: map[string]models.Schedule{"sched-1": {ID: "sched-1", CareerID: "career-1"}}}
	classTimes := &classTimeReaderStub{views: []models.ClassTimeView{
		{ID: "ct-1", Day: time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), Number: 1, SubjectID: "sub-a", SubjectSymbology: "MAT"},
	}}
	balance, _ := json.Marshal([][]int{{1, 2}, {0, 1}})
	balances := &loadBalanceReaderStub{record: &models.LoadBalance{ScheduleID: "sched-1", Balance: types.JSONText(balance)}}
	cache := &patternCache{jsonCache: newJSONCache()}
	svc := NewScheduleService(repo, classTimes, balances, cache, nil, nil, "test")
	return svc, repo, classTimes, cache
}

func TestScheduleServiceListDefaultsPagination(t *testing.T) {
	svc, repo, _, _ := newScheduleFixture()

	items, pagination, err := svc.List(context.Background(), dto.ScheduleQuery{CareerID: "career-1"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, "career-1", repo.filter.CareerID)

	_, _, err = svc.List(context.Background(), dto.ScheduleQuery{PageSize: 500})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestScheduleServiceClassTimesCached(t *testing.T) {
	svc, _, classTimes, _ := newScheduleFixture()
	ctx := context.Background()

	views, hit, err := svc.ClassTimes(ctx, "sched-1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, views, 1)

	views, hit, err = svc.ClassTimes(ctx, "sched-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "MAT", views[0].SubjectSymbology)
	assert.Equal(t, 1, classTimes.calls)

	_, _, err = svc.ClassTimes(ctx, "missing")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestScheduleServiceBalanceWeekLoads(t *testing.T) {
	svc, _, _, _ := newScheduleFixture()

	resp, err := svc.Balance(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {0, 1}}, resp.Balance)
	assert.Equal(t, []int{6, 2}, resp.WeekLoads)

	_, err = svc.Balance(context.Background(), "other")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestScheduleServiceDeleteInvalidatesCache(t *testing.T) {
	svc, _, classTimes, cache := newScheduleFixture()
	ctx := context.Background()

	_, _, err := svc.ClassTimes(ctx, "sched-1")
	require.NoError(t, err)
	require.NotEmpty(t, cache.items)

	require.NoError(t, svc.Delete(ctx, "sched-1"))
	assert.Equal(t, []string{"test:schedule:sched-1:*"}, cache.invalidated)
	assert.Empty(t, cache.items)

	err = svc.Delete(ctx, "sched-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	assert.Equal(t, 1, classTimes.calls)
}
