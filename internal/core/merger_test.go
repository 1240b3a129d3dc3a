package core

import (
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_CreatesRecordWithShiftSnapshot(t *testing.T) {
	t.Parallel()

	shift := testShift("s1", 9*time.Hour, 17*time.Hour)
	punch := testPunch(at(8, 55))
	out := model.Outcome{Kind: model.OutcomeCheckIn, Shift: &shift}

	rec := Merge(nil, punch, "biz-1", "2026-03-02", out, at(8, 55))

	require.NotEmpty(t, rec.ID)
	assert.Equal(t, "emp-1", rec.EmployeeID)
	assert.Equal(t, "2026-03-02", rec.Date)
	require.NotNil(t, rec.ShiftID)
	assert.Equal(t, "s1", *rec.ShiftID)
	require.NotNil(t, rec.ShiftSnapshot)
	assert.Equal(t, shift, *rec.ShiftSnapshot)
	require.NotNil(t, rec.CheckIn)
	assert.Equal(t, at(8, 55), *rec.CheckIn)
	assert.Nil(t, rec.WorkingHours)
	require.Len(t, rec.RawPunches, 1)
	assert.Equal(t, model.OutcomeCheckIn, rec.RawPunches[0].Outcome)
}

func TestMerge_RawOnlyRecordHasNoStructuredFields(t *testing.T) {
	t.Parallel()

	punch := testPunch(at(12, 0))
	rec := Merge(nil, punch, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeRawOnly}, at(12, 0))

	assert.Nil(t, rec.ShiftID)
	assert.Nil(t, rec.CheckIn)
	assert.Nil(t, rec.CheckOut)
	assert.Nil(t, rec.WorkingHours)
	require.Len(t, rec.RawPunches, 1)
	assert.Equal(t, model.OutcomeRawOnly, rec.RawPunches[0].Outcome)
}

func TestMerge_FirstWriterWins(t *testing.T) {
	t.Parallel()

	shift := testShift("s1", 9*time.Hour, 17*time.Hour)
	first := testPunch(at(8, 55))
	rec := Merge(nil, first, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckIn, Shift: &shift}, at(8, 55))

	// A later check-in classification must not move the field.
	late := 10 * time.Minute
	second := testPunch(at(9, 10))
	second.ID = "punch-2"
	rec = Merge(rec, second, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckIn, Shift: &shift, LateIn: &late}, at(9, 10))

	require.NotNil(t, rec.CheckIn)
	assert.Equal(t, at(8, 55), *rec.CheckIn)
	assert.Nil(t, rec.LateIn)
	assert.Len(t, rec.RawPunches, 2)
}

func TestMerge_SamePunchTwiceOnlyGrowsRawTrail(t *testing.T) {
	t.Parallel()

	shift := testShift("s1", 9*time.Hour, 17*time.Hour)
	punch := testPunch(at(8, 55))
	out := model.Outcome{Kind: model.OutcomeCheckIn, Shift: &shift}

	once := Merge(nil, punch, "biz-1", "2026-03-02", out, at(8, 55))
	twice := Merge(once, punch, "biz-1", "2026-03-02", out, at(8, 56))

	assert.Equal(t, *once.CheckIn, *twice.CheckIn)
	assert.Equal(t, once.LateIn, twice.LateIn)
	assert.Equal(t, once.ShiftID, twice.ShiftID)
	assert.Len(t, twice.RawPunches, 2)
}

func TestMerge_WorkingHoursComputedAtCompletion(t *testing.T) {
	t.Parallel()

	shift := testShift("s1", 9*time.Hour, 17*time.Hour+30*time.Minute)
	checkIn := testPunch(at(9, 0))
	rec := Merge(nil, checkIn, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckIn, Shift: &shift}, at(9, 0))
	assert.Nil(t, rec.WorkingHours)

	checkOut := testPunch(at(17, 30))
	checkOut.ID = "punch-2"
	rec = Merge(rec, checkOut, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckOut, Shift: &shift}, at(17, 30))

	require.NotNil(t, rec.WorkingHours)
	assert.Equal(t, 8*time.Hour+30*time.Minute, *rec.WorkingHours)
}

func TestMerge_WorksInEitherOrder(t *testing.T) {
	t.Parallel()

	shift := testShift("s1", 9*time.Hour, 17*time.Hour)
	early := 10 * time.Minute
	outPunch := testPunch(at(16, 50))
	rec := Merge(nil, outPunch, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckOut, Shift: &shift, EarlyOut: &early}, at(16, 50))
	assert.Nil(t, rec.WorkingHours)

	inPunch := testPunch(at(9, 0))
	inPunch.ID = "punch-2"
	rec = Merge(rec, inPunch, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckIn, Shift: &shift}, at(16, 55))

	require.NotNil(t, rec.WorkingHours)
	assert.Equal(t, 7*time.Hour+50*time.Minute, *rec.WorkingHours)
	require.NotNil(t, rec.EarlyOut)
	assert.Equal(t, early, *rec.EarlyOut)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	shift := testShift("s1", 9*time.Hour, 17*time.Hour)
	first := testPunch(at(8, 55))
	original := Merge(nil, first, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckIn, Shift: &shift}, at(8, 55))
	rawLen := len(original.RawPunches)

	second := testPunch(at(16, 50))
	second.ID = "punch-2"
	_ = Merge(original, second, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckOut, Shift: &shift}, at(16, 50))

	assert.Nil(t, original.CheckOut)
	assert.Len(t, original.RawPunches, rawLen)
}

func TestMerge_ShiftFrozenForExistingRecord(t *testing.T) {
	t.Parallel()

	shift := testShift("s1", 9*time.Hour, 17*time.Hour)
	first := testPunch(at(8, 55))
	rec := Merge(nil, first, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckIn, Shift: &shift}, at(8, 55))

	other := testShift("s2", 10*time.Hour, 18*time.Hour)
	second := testPunch(at(17, 55))
	second.ID = "punch-2"
	rec = Merge(rec, second, "biz-1", "2026-03-02", model.Outcome{Kind: model.OutcomeCheckOut, Shift: &other}, at(17, 55))

	// The record key was fixed at creation; a later punch classified
	// against another shift cannot re-key it.
	assert.Equal(t, "s1", *rec.ShiftID)
	assert.Equal(t, "s1", rec.ShiftSnapshot.ID)
}
