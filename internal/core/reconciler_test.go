package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----- fakes -----

type fakePunchStore struct {
	punches map[string]model.PunchEvent
}

func (f *fakePunchStore) GetPunch(_ context.Context, punchID, _ string) (*model.PunchEvent, error) {
	p, ok := f.punches[punchID]
	if !ok {
		return nil, model.ErrPunchNotFound
	}
	return &p, nil
}

func (f *fakePunchStore) CreatePunch(_ context.Context, punch model.PunchEvent) error {
	f.punches[punch.ID] = punch
	return nil
}

type fakeEmployeeStore struct {
	employees   map[string]model.Employee
	departments map[string]model.Department
}

func (f *fakeEmployeeStore) GetEmployee(_ context.Context, employeeID, _ string) (*model.Employee, error) {
	e, ok := f.employees[employeeID]
	if !ok {
		return nil, model.ErrEmployeeNotFound
	}
	return &e, nil
}

func (f *fakeEmployeeStore) GetDepartment(_ context.Context, departmentID string) (*model.Department, error) {
	d, ok := f.departments[departmentID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

type fakeShiftStore struct {
	byID      map[string]model.ShiftDefinition
	active    []model.ShiftDefinition
	byIDErr   error
	activeErr error
}

func (f *fakeShiftStore) GetByIDs(_ context.Context, _ string, ids []string) ([]model.ShiftDefinition, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	var shifts []model.ShiftDefinition
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			shifts = append(shifts, s)
		}
	}
	return shifts, nil
}

func (f *fakeShiftStore) ListActive(_ context.Context, _ string) ([]model.ShiftDefinition, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	return f.active, nil
}

type fakeDirectory struct {
	ids   []string
	err   error
	calls int
}

func (f *fakeDirectory) GetShifts(context.Context, string, string, string) ([]string, error) {
	f.calls++
	return f.ids, f.err
}

// fakeAttendanceStore serializes Update calls on a mutex, mirroring the
// per-key advisory lock of the real store.
type fakeAttendanceStore struct {
	mu      sync.Mutex
	records []*model.DayAttendanceRecord
	failErr error
}

func (f *fakeAttendanceStore) Update(_ context.Context, businessID, employeeID, date string, candidateShiftIDs []string,
	apply func(existing *model.DayAttendanceRecord) (*model.DayAttendanceRecord, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failErr != nil {
		return f.failErr
	}

	idx := -1
	for i, r := range f.records {
		if r.BusinessID != businessID || r.EmployeeID != employeeID || r.Date != date {
			continue
		}
		if r.ShiftID == nil {
			if len(candidateShiftIDs) == 0 {
				idx = i
				break
			}
			continue
		}
		for _, id := range candidateShiftIDs {
			if id == *r.ShiftID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			break
		}
	}

	var existing *model.DayAttendanceRecord
	if idx >= 0 {
		clone := *f.records[idx]
		clone.RawPunches = append([]model.RawPunch(nil), f.records[idx].RawPunches...)
		existing = &clone
	}

	merged, err := apply(existing)
	if err != nil {
		return err
	}
	if merged == nil {
		return nil
	}
	if idx >= 0 {
		f.records[idx] = merged
	} else {
		f.records = append(f.records, merged)
	}
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Emit(_ context.Context, _ string, message string, _ map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, message)
}

// ----- fixtures -----

type reconcilerFixture struct {
	punches   *fakePunchStore
	employees *fakeEmployeeStore
	shifts    *fakeShiftStore
	directory *fakeDirectory
	store     *fakeAttendanceStore
	sink      *recordingSink
	engine    *Reconciler
}

func newFixture() *reconcilerFixture {
	nineToFive := testShift("s1", 9*time.Hour, 17*time.Hour)

	f := &reconcilerFixture{
		punches: &fakePunchStore{punches: map[string]model.PunchEvent{}},
		employees: &fakeEmployeeStore{
			employees: map[string]model.Employee{
				"emp-1": {ID: "emp-1", BusinessID: "biz-1", FullName: "Ada Test", Timezone: "UTC", Active: true},
			},
			departments: map[string]model.Department{},
		},
		shifts: &fakeShiftStore{
			byID:   map[string]model.ShiftDefinition{"s1": nineToFive},
			active: []model.ShiftDefinition{nineToFive},
		},
		directory: &fakeDirectory{ids: []string{"s1"}},
		store:     &fakeAttendanceStore{},
		sink:      &recordingSink{},
	}

	resolver := NewShiftResolver(f.directory, f.shifts, f.sink)
	f.engine = NewReconciler(f.punches, f.employees, resolver, f.store, f.sink)
	return f
}

func (f *reconcilerFixture) addPunch(id string, occurredAt time.Time) {
	f.punches.punches[id] = model.PunchEvent{
		ID:         id,
		BusinessID: "biz-1",
		EmployeeID: "emp-1",
		OccurredAt: occurredAt,
		Method:     model.MethodBiometric,
	}
}

// ----- tests -----

func TestReconciler_MissingPunchIsTerminal(t *testing.T) {
	t.Parallel()
	f := newFixture()

	err := f.engine.Reconcile(context.Background(), "nope", "biz-1", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPunchNotFound))
	assert.Empty(t, f.store.records)
	assert.Contains(t, f.sink.events, "punch dropped")
}

func TestReconciler_MissingEmployeeIsTerminal(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.punches.punches["p1"] = model.PunchEvent{
		ID: "p1", BusinessID: "biz-1", EmployeeID: "ghost", OccurredAt: at(9, 0), Method: model.MethodQR,
	}

	err := f.engine.Reconcile(context.Background(), "p1", "biz-1", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrEmployeeNotFound))
	assert.Empty(t, f.store.records)
}

func TestReconciler_ChecksInAgainstAssignedShift(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.addPunch("p1", at(8, 55))

	err := f.engine.Reconcile(context.Background(), "p1", "biz-1", "turnstile-2")

	require.NoError(t, err)
	require.Len(t, f.store.records, 1)
	rec := f.store.records[0]
	require.NotNil(t, rec.CheckIn)
	assert.Equal(t, at(8, 55), *rec.CheckIn)
	require.NotNil(t, rec.ShiftID)
	assert.Equal(t, "s1", *rec.ShiftID)
	assert.Equal(t, "2026-03-02", rec.Date)
	assert.Contains(t, f.sink.events, "punch reconciled")
}

func TestReconciler_DirectoryFailureFallsBackToActiveShifts(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.directory.err = errors.New("directory down")
	f.addPunch("p1", at(8, 55))

	err := f.engine.Reconcile(context.Background(), "p1", "biz-1", "")

	require.NoError(t, err)
	require.Len(t, f.store.records, 1)
	assert.NotNil(t, f.store.records[0].CheckIn)
	assert.Equal(t, 1, f.directory.calls)
	assert.Contains(t, f.sink.events, "shift assignment lookup failed")
}

func TestReconciler_NoShiftsAnywhereLogsRawOnly(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.directory.err = errors.New("directory down")
	f.shifts.activeErr = errors.New("shifts table gone")
	f.addPunch("p1", at(12, 0))

	err := f.engine.Reconcile(context.Background(), "p1", "biz-1", "")

	require.NoError(t, err)
	require.Len(t, f.store.records, 1)
	rec := f.store.records[0]
	assert.Nil(t, rec.ShiftID)
	assert.Nil(t, rec.CheckIn)
	assert.Nil(t, rec.CheckOut)
	require.Len(t, rec.RawPunches, 1)
	assert.Equal(t, model.OutcomeRawOnly, rec.RawPunches[0].Outcome)
}

func TestReconciler_StoreFailurePropagates(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.failErr = errors.New("connection reset")
	f.addPunch("p1", at(8, 55))

	err := f.engine.Reconcile(context.Background(), "p1", "biz-1", "")

	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
	assert.False(t, model.IsNotFound(err))
}

func TestReconciler_EmployeeTimezoneDeterminesDate(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.employees.employees["emp-1"] = model.Employee{
		ID: "emp-1", BusinessID: "biz-1", FullName: "Ada Test", Timezone: "Asia/Jakarta", Active: true,
	}
	// 01:55 UTC on March 2nd is 08:55 in Jakarta (UTC+7).
	f.addPunch("p1", time.Date(2026, 3, 2, 1, 55, 0, 0, time.UTC))

	err := f.engine.Reconcile(context.Background(), "p1", "biz-1", "")

	require.NoError(t, err)
	require.Len(t, f.store.records, 1)
	rec := f.store.records[0]
	assert.Equal(t, "2026-03-02", rec.Date)
	require.NotNil(t, rec.CheckIn)
	assert.Nil(t, rec.LateIn)
}

func TestReconciler_ConcurrentPunchesLoseNoUpdate(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.addPunch("p-in", at(8, 55))
	f.addPunch("p-out", at(17, 5))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = f.engine.Reconcile(context.Background(), "p-in", "biz-1", "")
	}()
	go func() {
		defer wg.Done()
		errs[1] = f.engine.Reconcile(context.Background(), "p-out", "biz-1", "")
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Len(t, f.store.records, 1)
	rec := f.store.records[0]

	// Both punches landed in the raw trail and both structured fields are
	// set, whichever order the goroutines ran in.
	assert.Len(t, rec.RawPunches, 2)
	require.NotNil(t, rec.CheckIn)
	assert.Equal(t, at(8, 55), *rec.CheckIn)
	require.NotNil(t, rec.CheckOut)
	assert.Equal(t, at(17, 5), *rec.CheckOut)
	require.NotNil(t, rec.WorkingHours)
	assert.Equal(t, 8*time.Hour+10*time.Minute, *rec.WorkingHours)
}
