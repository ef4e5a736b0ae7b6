package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/timetable-balancer/internal/dto"
	"github.com/noah-isme/timetable-balancer/internal/models"
	"github.com/noah-isme/timetable-balancer/internal/timetable"
	"github.com/noah-isme/timetable-balancer/pkg/cache"
	"github.com/noah-isme/timetable-balancer/pkg/logger"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type periodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
	ListDaysNotAvailable(ctx context.Context, periodID string) ([]models.DayNotAvailable, error)
	ListWeeksNotAvailable(ctx context.Context, periodID string) ([]models.WeekNotAvailable, error)
}

type balanceSubjectReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
	PrimaryTeachers(ctx context.Context, subjectIDs []string) (map[string]string, error)
}

type activityReader interface {
	MapBySymbology(ctx context.Context, symbologies []string) (map[string]models.Activity, error)
}

type scheduleWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule, subjectIDs []string) error
}

type classTimeWriter interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, classTimes []models.ClassTime) error
}

type loadBalanceWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, balance *models.LoadBalance) error
}

type proposalCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// BalanceServiceConfig tunes the engine and proposal retention.
type BalanceServiceConfig struct {
	Balancer timetable.BalancerConfig
	// Seed fixes the random source when a request does not carry one; 0 seeds from the clock.
	Seed        int64
	ProposalTTL time.Duration
	KeyPrefix   string
}

// BalanceService runs the timetable engine for a period and persists the resulting schedules.
type BalanceService struct {
	periods     periodReader
	subjects    balanceSubjectReader
	activities  activityReader
	schedules   scheduleWriter
	classTimes  classTimeWriter
	balances    loadBalanceWriter
	tx          txProvider
	cache       proposalCache
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         BalanceServiceConfig
	store       *proposalStore
	group       singleflight.Group
	now         func() time.Time
	seedCounter int64
	seedMu      sync.Mutex
}

// NewBalanceService wires balance dependencies.
func NewBalanceService(
	periods periodReader,
	subjects balanceSubjectReader,
	activities activityReader,
	schedules scheduleWriter,
	classTimes classTimeWriter,
	balances loadBalanceWriter,
	tx txProvider,
	cache proposalCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg BalanceServiceConfig,
) *BalanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.Balancer.Iterations == 0 && cfg.Balancer.Candidates == 0 {
		cfg.Balancer = timetable.DefaultBalancerConfig()
	}
	svc := &BalanceService{
		periods:    periods,
		subjects:   subjects,
		activities: activities,
		schedules:  schedules,
		classTimes: classTimes,
		balances:   balances,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
	svc.store = newProposalStore(cfg.ProposalTTL, func() time.Time { return svc.now() })
	return svc
}

// balanceProposal is an engine result waiting to be saved. It is mirrored to
// Redis as JSON so any replica can save it.
type balanceProposal struct {
	ProposalID  string              `json:"proposalId"`
	Request     dto.BalanceRequest  `json:"request"`
	RequestedAt time.Time           `json:"requestedAt"`
	ExpiresAt   time.Time           `json:"expiresAt"`
	Balance     [][]int             `json:"balance"`
	Slots       []dto.SlotProposal  `json:"slots"`
	Overflow    []dto.OverflowEntry `json:"overflow"`
	Stats       dto.BalanceStats    `json:"stats"`
}

func (p *balanceProposal) preview() *dto.BalancePreviewResponse {
	return &dto.BalancePreviewResponse{
		ProposalID: p.ProposalID,
		ExpiresAt:  p.ExpiresAt,
		Balance:    p.Balance,
		Slots:      p.Slots,
		Overflow:   p.Overflow,
		Stats:      p.Stats,
	}
}

// Preview runs the engine without persisting and keeps the proposal for Save.
// Identical concurrent requests share one engine run, which is detached from
// the first caller's cancellation so the others still get its result.
func (s *BalanceService) Preview(ctx context.Context, req dto.BalanceRequest) (*dto.BalancePreviewResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	key, err := requestKey(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fingerprint balance request")
	}

	value, err, shared := s.group.Do(key, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		proposal, err := s.generate(ctx, req)
		if err != nil {
			return nil, err
		}
		s.store.Save(*proposal)
		if s.cache != nil && s.cache.Enabled() {
			if cacheErr := s.cache.Set(ctx, s.proposalKey(proposal.ProposalID), proposal, s.cfg.ProposalTTL); cacheErr != nil {
				s.logger.Warn("failed to mirror balance proposal", zap.String("proposal_id", proposal.ProposalID), zap.Error(cacheErr))
			}
		}
		return proposal, nil
	})
	if err != nil {
		return nil, err
	}
	proposal := value.(*balanceProposal)
	if shared {
		s.logger.Debug("balance preview shared", zap.String("proposal_id", proposal.ProposalID))
	}
	return proposal.preview(), nil
}

// Save persists a proposal produced by Preview.
func (s *BalanceService) Save(ctx context.Context, req dto.SaveBalanceRequest, actorID string) (*dto.BalanceSavedResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save balance payload")
	}

	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		mirrored, found := s.loadMirrored(ctx, req.ProposalID)
		if !found {
			return nil, appErrors.Clone(appErrors.ErrProposalExpired, "proposal not found or expired")
		}
		proposal = mirrored
	}

	resp, err := s.persist(ctx, &proposal, actorID)
	if err != nil {
		return nil, err
	}

	s.store.Delete(proposal.ProposalID)
	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Delete(ctx, s.proposalKey(proposal.ProposalID)); err != nil {
			s.logger.Warn("failed to drop mirrored proposal", zap.String("proposal_id", proposal.ProposalID), zap.Error(err))
		}
	}
	return resp, nil
}

// Calculate runs the engine and persists the schedule in one call.
func (s *BalanceService) Calculate(ctx context.Context, req dto.BalanceRequest, actorID string) (*dto.BalanceSavedResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	proposal, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, proposal, actorID)
}

func (s *BalanceService) validateRequest(req dto.BalanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid balance payload")
	}
	subjects := len(req.SubjectIDs)
	if len(req.SubjectsSymbology) != subjects || len(req.EncountersList) != subjects {
		return appErrors.Clone(appErrors.ErrValidation, "subjectsSymbology, encountersList and subjectIds must have the same length")
	}
	if len(req.TimeBaseList) > 0 && len(req.TimeBaseList) != subjects {
		return appErrors.Clone(appErrors.ErrValidation, "timeBaseList must have one entry per subject")
	}
	if len(req.ActivitiesList) > subjects {
		return appErrors.Clone(appErrors.ErrValidation, "activitiesList has more entries than subjects")
	}
	if len(req.BalanceBelowList) != req.WeeksCount {
		return appErrors.Clone(appErrors.ErrValidation, "balanceBelowList must have weeksCount entries")
	}
	for name, rows := range map[string][][]int{"aboveList": req.AboveList, "belowList": req.BelowList} {
		if rows == nil {
			continue
		}
		if len(rows) != subjects {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must have one row per subject", name))
		}
		for _, row := range rows {
			if len(row) != req.WeeksCount {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s rows must have weeksCount entries", name))
			}
		}
	}
	seen := make(map[string]struct{}, subjects)
	for _, id := range req.SubjectIDs {
		if _, dup := seen[id]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s listed twice", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *BalanceService) generate(ctx context.Context, req dto.BalanceRequest) (*balanceProposal, error) {
	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	days, err := s.periods.ListDaysNotAvailable(ctx, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unavailable days")
	}
	weeks, err := s.periods.ListWeeksNotAvailable(ctx, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unavailable weeks")
	}
	if available := period.NumberOfWeeksExcludingUnavailable(weeks); req.WeeksCount > available {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weeksCount %d exceeds the %d teaching weeks of the period", req.WeeksCount, available))
	}

	if _, err := s.knownSubjects(ctx, req.SubjectIDs); err != nil {
		return nil, err
	}

	request, err := s.engineRequest(req, period.Calendar(days, weeks))
	if err != nil {
		return nil, err
	}

	started := s.now()
	result, err := timetable.Run(ctx, request, rand.New(rand.NewSource(s.seed(req))), s.logger)
	if err != nil {
		s.metrics.ObserveBalanceFailure()
		return nil, mapEngineError(err)
	}

	proposal := &balanceProposal{
		ProposalID:  uuid.NewString(),
		Request:     req,
		RequestedAt: started.UTC(),
		ExpiresAt:   started.UTC().Add(s.cfg.ProposalTTL),
		Balance:     result.BalanceVector,
		Slots:       slotProposals(result.Slots, req),
		Overflow:    overflowEntries(result.Overflow, req),
		Stats: dto.BalanceStats{
			InitialObjective: result.Balance.Initial,
			Objective:        result.Balance.Objective,
			Iterations:       len(result.Balance.Trace),
			Policy:           string(result.Balance.Policy),
			Unplaced:         result.Allocation.Unplaced,
			ShiftsPerDay:     result.ShiftsPerDay,
			ShiftsCover:      result.ShiftsCover,
			Duplicates:       result.Plan.Duplicates,
			WeekLoads:        result.Balance.Loads,
		},
	}

	overflowCount := 0
	for _, o := range proposal.Overflow {
		overflowCount += o.Count
	}
	s.metrics.ObserveBalanceRun(BalanceRun{
		Policy:    proposal.Stats.Policy,
		Duration:  s.now().Sub(started),
		Initial:   proposal.Stats.InitialObjective,
		Objective: proposal.Stats.Objective,
		Unplaced:  proposal.Stats.Unplaced,
		Overflow:  overflowCount,
	})
	logger.For(ctx, s.logger).Info("balance generated",
		zap.String("proposal_id", proposal.ProposalID),
		zap.String("period_id", req.PeriodID),
		zap.Int("subjects", len(req.SubjectIDs)),
		zap.Int("weeks", req.WeeksCount),
		zap.Float64("initial_objective", proposal.Stats.InitialObjective),
		zap.Float64("objective", proposal.Stats.Objective),
		zap.Int("slots", len(proposal.Slots)),
		zap.Int("overflow", overflowCount),
	)
	return proposal, nil
}

// knownSubjects returns the ids of ids that exist. Unknown ids are logged and
// their meetings are kept; persist stores them without a subject.
func (s *BalanceService) knownSubjects(ctx context.Context, ids []string) (map[string]struct{}, error) {
	subjects, err := s.subjects.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	found := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		found[subject.ID] = struct{}{}
	}
	known := make(map[string]struct{}, len(ids))
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; ok {
			known[id] = struct{}{}
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		logger.For(ctx, s.logger).Warn("skipping unknown subjects", zap.Strings("subject_ids", missing))
	}
	return known, nil
}

func (s *BalanceService) engineRequest(req dto.BalanceRequest, cal timetable.Calendar) (timetable.Request, error) {
	in := timetable.Instance{
		Meetings: req.EncountersList,
		Capacity: req.BalanceBelowList,
	}
	if req.AboveList != nil {
		upper, err := timetable.MatrixFromRows(req.AboveList)
		if err != nil {
			return timetable.Request{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid aboveList")
		}
		in.Upper = upper
	}
	if req.BelowList != nil {
		lower, err := timetable.MatrixFromRows(req.BelowList)
		if err != nil {
			return timetable.Request{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid belowList")
		}
		in.Lower = lower
	}

	cfg := s.cfg.Balancer
	if req.Policy != "" {
		policy, err := timetable.ParsePolicy(req.Policy)
		if err != nil {
			return timetable.Request{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid policy")
		}
		cfg.Policy = policy
	}

	order := timetable.FillByShift
	if req.FillOrder == string(timetable.FillByDay) {
		order = timetable.FillByDay
	}

	return timetable.Request{
		Instance:   in,
		Activities: req.ActivitiesList,
		Calendar:   cal,
		Balancer:   cfg,
		Order:      order,
	}, nil
}

func (s *BalanceService) seed(req dto.BalanceRequest) int64 {
	if req.Seed != nil {
		return *req.Seed
	}
	if s.cfg.Seed != 0 {
		return s.cfg.Seed
	}
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	s.seedCounter++
	return s.now().UnixNano() + s.seedCounter
}

func mapEngineError(err error) error {
	switch {
	case errors.Is(err, timetable.ErrInfeasibleBounds):
		return appErrors.Wrap(err, appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, "lower bounds exceed upper bounds")
	case errors.Is(err, timetable.ErrDimensionMismatch), errors.Is(err, timetable.ErrEmptyInstance):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "balance run cancelled")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "balance run failed")
	}
}

func slotProposals(slots []timetable.Slot, req dto.BalanceRequest) []dto.SlotProposal {
	out := make([]dto.SlotProposal, 0, len(slots))
	for _, slot := range slots {
		out = append(out, dto.SlotProposal{
			Week:       slot.Week,
			Date:       slot.Date,
			Day:        slot.Weekday,
			Number:     slot.Number,
			SubjectID:  req.SubjectIDs[slot.Subject],
			Symbology:  req.SubjectsSymbology[slot.Subject],
			Activities: slot.Activities,
		})
	}
	return out
}

func overflowEntries(overflow []timetable.Overflow, req dto.BalanceRequest) []dto.OverflowEntry {
	out := make([]dto.OverflowEntry, 0, len(overflow))
	for _, o := range overflow {
		out = append(out, dto.OverflowEntry{
			Week:      o.Week,
			SubjectID: req.SubjectIDs[o.Subject],
			Symbology: req.SubjectsSymbology[o.Subject],
			Count:     o.Count,
			Reason:    string(o.Reason),
			Date:      o.Date,
		})
	}
	return out
}

func (s *BalanceService) persist(ctx context.Context, proposal *balanceProposal, actorID string) (*dto.BalanceSavedResponse, error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	req := proposal.Request

	known, err := s.knownSubjects(ctx, req.SubjectIDs)
	if err != nil {
		return nil, err
	}
	linked := make([]string, 0, len(known))
	for _, id := range req.SubjectIDs {
		if _, ok := known[id]; ok {
			linked = append(linked, id)
		}
	}

	teachers, err := s.subjects.PrimaryTeachers(ctx, linked)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject teachers")
	}
	activities, err := s.activities.MapBySymbology(ctx, activitySymbologies(proposal.Slots))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activities")
	}

	meta, err := json.Marshal(map[string]any{
		"proposalId":        proposal.ProposalID,
		"generatedAt":       proposal.RequestedAt,
		"subjectsSymbology": req.SubjectsSymbology,
		"timeBaseList":      req.TimeBaseList,
		"weeksCount":        req.WeeksCount,
		"stats":             proposal.Stats,
		"overflow":          proposal.Overflow,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
	}
	balance, err := json.Marshal(proposal.Balance)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode balance")
	}

	schedule := &models.Schedule{
		CareerID:  req.CareerID,
		YearID:    req.YearID,
		PeriodID:  req.PeriodID,
		ClassRoom: req.ClassRoom,
		Group:     req.Group,
		Meta:      types.JSONText(meta),
	}
	if actorID != "" {
		schedule.CreatedBy = &actorID
	}

	classTimes := make([]models.ClassTime, 0, len(proposal.Slots))
	unknown := make(map[string]struct{})
	for _, slot := range proposal.Slots {
		ct := models.ClassTime{
			Day:    slot.Date,
			Number: slot.Number,
			Week:   slot.Week,
		}
		if _, ok := known[slot.SubjectID]; ok {
			subjectID := slot.SubjectID
			ct.SubjectID = &subjectID
		}
		if teacherID, ok := teachers[slot.SubjectID]; ok {
			id := teacherID
			ct.TeacherID = &id
		}
		for _, symbology := range slot.Activities {
			activity, ok := activities[symbology]
			if !ok {
				unknown[symbology] = struct{}{}
				continue
			}
			ct.ActivityIDs = append(ct.ActivityIDs, activity.ID)
		}
		classTimes = append(classTimes, ct)
	}
	if len(unknown) > 0 {
		s.logger.Warn("skipping unknown activity symbologies", zap.Strings("symbologies", sortedKeys(unknown)))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.schedules.Create(ctx, tx, schedule, linked); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
		return nil, err
	}
	for i := range classTimes {
		classTimes[i].ScheduleID = schedule.ID
	}
	if err = s.classTimes.InsertBatch(ctx, tx, classTimes); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist class times")
		return nil, err
	}
	if err = s.balances.Create(ctx, tx, &models.LoadBalance{ScheduleID: schedule.ID, Balance: types.JSONText(balance)}); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist load balance")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule")
		return nil, err
	}

	logger.For(ctx, s.logger).Info("schedule saved",
		zap.String("schedule_id", schedule.ID),
		zap.String("proposal_id", proposal.ProposalID),
		zap.Int("class_times", len(classTimes)),
	)
	return &dto.BalanceSavedResponse{
		Message:    "schedule created",
		ScheduleID: schedule.ID,
		ClassTimes: len(classTimes),
		Overflow:   proposal.Overflow,
		Stats:      proposal.Stats,
	}, nil
}

func (s *BalanceService) loadMirrored(ctx context.Context, id string) (balanceProposal, bool) {
	if s.cache == nil || !s.cache.Enabled() {
		return balanceProposal{}, false
	}
	var proposal balanceProposal
	hit, err := s.cache.Get(ctx, s.proposalKey(id), &proposal)
	if err != nil || !hit {
		return balanceProposal{}, false
	}
	if s.now().After(proposal.ExpiresAt) {
		return balanceProposal{}, false
	}
	return proposal, true
}

func (s *BalanceService) proposalKey(id string) string {
	return cache.Key(s.cfg.KeyPrefix, "proposal", id)
}

func requestKey(req dto.BalanceRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func activitySymbologies(slots []dto.SlotProposal) []string {
	set := make(map[string]struct{})
	for _, slot := range slots {
		for _, symbology := range slot.Activities {
			set[strings.TrimSpace(symbology)] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type proposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]balanceProposal
}

func newProposalStore(ttl time.Duration, now func() time.Time) *proposalStore {
	if now == nil {
		now = time.Now
	}
	return &proposalStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]balanceProposal),
	}
}

func (s *proposalStore) Save(proposal balanceProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (balanceProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return balanceProposal{}, false
	}
	if s.now().Sub(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return balanceProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
