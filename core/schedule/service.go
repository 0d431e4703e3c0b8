package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

type (
	// SlotFilter narrows QueryTimeSlots; empty fields match everything.
	SlotFilter struct {
		EngineerID string
		Day        string
	}

	Repository interface {
		CreateEngineer(ctx context.Context, e Engineer) (Engineer, error)
		UpdateEngineer(ctx context.Context, e Engineer) (Engineer, error)
		// DeleteEngineer removes the engineer along with its time slots.
		DeleteEngineer(ctx context.Context, id string) error
		GetEngineer(ctx context.Context, id string) (Engineer, error)
		// QueryEngineers returns every engineer ordered by name, without time slots.
		QueryEngineers(ctx context.Context) ([]Engineer, error)

		// CreateTimeSlot returns core.ErrConstraintViolation when the engineer already holds the day and time.
		CreateTimeSlot(ctx context.Context, ts TimeSlot) (TimeSlot, error)
		UpdateTimeSlot(ctx context.Context, ts TimeSlot) (TimeSlot, error)
		DeleteTimeSlot(ctx context.Context, id string) error
		GetTimeSlot(ctx context.Context, id string) (TimeSlot, error)
		QueryTimeSlots(ctx context.Context, filter SlotFilter) ([]TimeSlot, error)
	}

	Service interface {
		// Schedule lists engineers with their slots sorted by weekday and time.
		// When day is set, only that day's slots are listed, and engineers without any are left out.
		Schedule(ctx context.Context, day string) ([]Engineer, error)
		GetEngineer(ctx context.Context, id string) (Engineer, error)

		AddEngineer(ctx context.Context, ne NewEngineer) (Engineer, error)
		UpdateEngineer(ctx context.Context, id string, ue UpdateEngineer) (Engineer, error)
		DeleteEngineer(ctx context.Context, id string) error

		AddTimeSlot(ctx context.Context, engineerID string, nts NewTimeSlot) (TimeSlot, error)
		UpdateTimeSlot(ctx context.Context, id string, uts UpdateTimeSlot) (TimeSlot, error)
		DeleteTimeSlot(ctx context.Context, id string) error
	}

	service struct {
		tx   core.Transactor
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(tx core.Transactor, repo Repository) Service {
	return &service{tx: tx, repo: repo}
}

func slotTaken(err error) error {
	if errors.Cause(err) == core.ErrConstraintViolation {
		return core.NewValidationError(ErrSlotTaken, core.FieldError{Field: "time", Error: ErrSlotTaken.Error()})
	}
	return err
}

func (svc *service) Schedule(ctx context.Context, day string) ([]Engineer, error) {
	var filter SlotFilter
	if day != "" {
		d, ok := ParseDay(day)
		if !ok {
			return nil, core.NewValidationError(errBadDay, core.FieldError{Field: "day", Error: weekdayText})
		}
		filter.Day = d
	}

	engineers, err := svc.repo.QueryEngineers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying engineers")
	}
	slots, err := svc.repo.QueryTimeSlots(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying time slots")
	}
	SortSlots(slots)

	byEngineer := make(map[string][]TimeSlot)
	for _, ts := range slots {
		byEngineer[ts.EngineerID] = append(byEngineer[ts.EngineerID], ts)
	}
	res := make([]Engineer, 0, len(engineers))
	for _, e := range engineers {
		e.Times = byEngineer[e.ID]
		if e.Times == nil {
			if filter.Day != "" {
				continue
			}
			e.Times = []TimeSlot{}
		}
		res = append(res, e)
	}
	return res, nil
}

func (svc *service) GetEngineer(ctx context.Context, id string) (Engineer, error) {
	e, err := svc.repo.GetEngineer(ctx, id)
	if err != nil {
		return Engineer{}, err
	}
	if e.Times, err = svc.repo.QueryTimeSlots(ctx, SlotFilter{EngineerID: e.ID}); err != nil {
		return Engineer{}, errors.Wrap(err, "querying time slots")
	}
	SortSlots(e.Times)
	return e, nil
}

func (svc *service) AddEngineer(ctx context.Context, ne NewEngineer) (Engineer, error) {
	var e Engineer
	err := svc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := core.NowFunc()
		var err error
		e, err = svc.repo.CreateEngineer(ctx, Engineer{
			ID:        uuid.NewString(),
			Name:      ne.Name,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		e.Times = make([]TimeSlot, 0, len(ne.Times))
		for _, nts := range ne.Times {
			ts, err := svc.repo.CreateTimeSlot(ctx, newTimeSlot(e.ID, nts, now))
			if err != nil {
				return slotTaken(err)
			}
			e.Times = append(e.Times, ts)
		}
		return nil
	})
	if err != nil {
		return Engineer{}, err
	}
	SortSlots(e.Times)
	return e, nil
}

func (svc *service) UpdateEngineer(ctx context.Context, id string, ue UpdateEngineer) (Engineer, error) {
	e, err := svc.repo.GetEngineer(ctx, id)
	if err != nil {
		return Engineer{}, err
	}
	if ue.Name != nil {
		e.Name = *ue.Name
	}
	e.UpdatedAt = core.NowFunc()
	if _, err = svc.repo.UpdateEngineer(ctx, e); err != nil {
		return Engineer{}, err
	}
	return svc.GetEngineer(ctx, id)
}

func (svc *service) DeleteEngineer(ctx context.Context, id string) error {
	return svc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return svc.repo.DeleteEngineer(ctx, id)
	})
}

func (svc *service) AddTimeSlot(ctx context.Context, engineerID string, nts NewTimeSlot) (TimeSlot, error) {
	if _, err := svc.repo.GetEngineer(ctx, engineerID); err != nil {
		return TimeSlot{}, err
	}
	ts, err := svc.repo.CreateTimeSlot(ctx, newTimeSlot(engineerID, nts, core.NowFunc()))
	if err != nil {
		return TimeSlot{}, slotTaken(err)
	}
	return ts, nil
}

func (svc *service) UpdateTimeSlot(ctx context.Context, id string, uts UpdateTimeSlot) (TimeSlot, error) {
	ts, err := svc.repo.GetTimeSlot(ctx, id)
	if err != nil {
		return TimeSlot{}, err
	}
	uts.apply(&ts)
	ts.UpdatedAt = core.NowFunc()
	upd, err := svc.repo.UpdateTimeSlot(ctx, ts)
	if err != nil {
		return TimeSlot{}, slotTaken(err)
	}
	return upd, nil
}

func (svc *service) DeleteTimeSlot(ctx context.Context, id string) error {
	return svc.repo.DeleteTimeSlot(ctx, id)
}

func newTimeSlot(engineerID string, nts NewTimeSlot, now time.Time) TimeSlot {
	return TimeSlot{
		ID:         uuid.NewString(),
		EngineerID: engineerID,
		Day:        nts.Day,
		Time:       nts.Time,
		Place:      nts.Place,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
