package schedule_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/schedule"
	gormrepos "github.com/trezcool/elimu/storage/database/gorm"
	"github.com/trezcool/elimu/tests"
)

type fixture struct {
	repo schedule.Repository
	svc  schedule.Service
}

func setup(t *testing.T) fixture {
	gdb := testutil.PrepareDB(t)
	f := fixture{repo: gormrepos.NewScheduleRepository(gdb)}
	f.svc = schedule.NewService(gormrepos.NewTransactor(gdb), f.repo)
	return f
}

func slot(day, clock, place string) schedule.NewTimeSlot {
	return schedule.NewTimeSlot{Day: day, Time: clock, Place: place}
}

func slotKeys(slots []schedule.TimeSlot) []string {
	keys := make([]string, 0, len(slots))
	for _, ts := range slots {
		keys = append(keys, ts.Day+" "+ts.Time)
	}
	return keys
}

func assertSlotTaken(t *testing.T, err error) {
	t.Helper()
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "unexpected error %T: %v", err, err)
	assert.Equal(t, schedule.ErrSlotTaken, vErr.Err)
	assert.Equal(t, []core.FieldError{{Field: "time", Error: schedule.ErrSlotTaken.Error()}}, vErr.Fields)
}

func TestService_Schedule(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	grace, err := f.svc.AddEngineer(ctx, schedule.NewEngineer{
		Name: "Grace",
		Times: []schedule.NewTimeSlot{
			slot("Tuesday", "14:00", "Lab 1"),
			slot("Sunday", "09:00", "Online"),
			slot("Tuesday", "08:30", "Lab 2"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sunday 09:00", "Tuesday 08:30", "Tuesday 14:00"}, slotKeys(grace.Times))

	_, err = f.svc.AddEngineer(ctx, schedule.NewEngineer{Name: "Ada", Times: []schedule.NewTimeSlot{slot("Monday", "10:00", "Lab 1")}})
	require.NoError(t, err)
	_, err = f.svc.AddEngineer(ctx, schedule.NewEngineer{Name: "Linus"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		day       string
		wantNames []string
		wantSlots [][]string
	}{
		{
			name:      "full week",
			wantNames: []string{"Ada", "Grace", "Linus"},
			wantSlots: [][]string{{"Monday 10:00"}, {"Sunday 09:00", "Tuesday 08:30", "Tuesday 14:00"}, {}},
		},
		{
			name:      "one day",
			day:       "tuesday",
			wantNames: []string{"Grace"},
			wantSlots: [][]string{{"Tuesday 08:30", "Tuesday 14:00"}},
		},
		{name: "empty day", day: "Saturday", wantNames: []string{}, wantSlots: [][]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engineers, err := f.svc.Schedule(ctx, tt.day)
			require.NoError(t, err)
			names := make([]string, 0, len(engineers))
			slots := make([][]string, 0, len(engineers))
			for _, e := range engineers {
				names = append(names, e.Name)
				slots = append(slots, slotKeys(e.Times))
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantSlots, slots)
		})
	}

	t.Run("unknown day", func(t *testing.T) {
		_, err := f.svc.Schedule(ctx, "Funday")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "day", vErr.Fields[0].Field)
	})
}

func TestService_AddEngineer_slotTaken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.AddEngineer(ctx, schedule.NewEngineer{
		Name:  "Grace",
		Times: []schedule.NewTimeSlot{slot("Monday", "10:00", "Lab 1"), slot("Monday", "10:00", "Lab 2")},
	})
	assertSlotTaken(t, err)

	// the engineer insert was rolled back with the slots
	engineers, err := f.svc.Schedule(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, engineers)
}

func TestService_timeSlots(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	e, err := f.svc.AddEngineer(ctx, schedule.NewEngineer{Name: "Grace"})
	require.NoError(t, err)
	other, err := f.svc.AddEngineer(ctx, schedule.NewEngineer{Name: "Ada", Times: []schedule.NewTimeSlot{slot("Monday", "10:00", "Lab 1")}})
	require.NoError(t, err)

	mon, err := f.svc.AddTimeSlot(ctx, e.ID, slot("Monday", "10:00", "Lab 1"))
	require.NoError(t, err, "another engineer's slot at the same time")
	assert.Equal(t, e.ID, mon.EngineerID)

	wed, err := f.svc.AddTimeSlot(ctx, e.ID, slot("Wednesday", "16:00", "Lab 2"))
	require.NoError(t, err)

	t.Run("unknown engineer", func(t *testing.T) {
		_, err := f.svc.AddTimeSlot(ctx, "00000000-0000-0000-0000-000000000000", slot("Monday", "11:00", "Lab"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("taken", func(t *testing.T) {
		_, err := f.svc.AddTimeSlot(ctx, e.ID, slot("Monday", "10:00", "Online"))
		assertSlotTaken(t, err)
	})

	t.Run("update into a taken slot", func(t *testing.T) {
		day, clock := "Monday", "10:00"
		_, err := f.svc.UpdateTimeSlot(ctx, wed.ID, schedule.UpdateTimeSlot{Day: &day, Time: &clock})
		assertSlotTaken(t, err)
	})

	t.Run("update", func(t *testing.T) {
		place := "Online"
		upd, err := f.svc.UpdateTimeSlot(ctx, wed.ID, schedule.UpdateTimeSlot{Place: &place})
		require.NoError(t, err)
		assert.Equal(t, "Wednesday", upd.Day)
		assert.Equal(t, "16:00", upd.Time)
		assert.Equal(t, "Online", upd.Place)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteTimeSlot(ctx, mon.ID))
		assert.ErrorIs(t, f.svc.DeleteTimeSlot(ctx, mon.ID), core.ErrNotFound)

		got, err := f.svc.GetEngineer(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Wednesday 16:00"}, slotKeys(got.Times))
	})

	t.Run("delete engineer removes its slots", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteEngineer(ctx, e.ID))
		_, err := f.svc.GetEngineer(ctx, e.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = f.repo.GetTimeSlot(ctx, wed.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.ErrorIs(t, f.svc.DeleteEngineer(ctx, e.ID), core.ErrNotFound)

		got, err := f.svc.GetEngineer(ctx, other.ID)
		require.NoError(t, err)
		assert.Len(t, got.Times, 1)
	})
}

func TestService_UpdateEngineer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	e, err := f.svc.AddEngineer(ctx, schedule.NewEngineer{Name: "Grace", Times: []schedule.NewTimeSlot{slot("Friday", "12:00", "Lab")}})
	require.NoError(t, err)

	name := "Grace Hopper"
	upd, err := f.svc.UpdateEngineer(ctx, e.ID, schedule.UpdateEngineer{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", upd.Name)
	assert.Len(t, upd.Times, 1)

	_, err = f.svc.UpdateEngineer(ctx, "00000000-0000-0000-0000-000000000000", schedule.UpdateEngineer{Name: &name})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
