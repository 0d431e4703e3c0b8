package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/schedule"
)

type scheduleRepository struct {
	db *gorm.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *gorm.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

// Engineers

func (repo scheduleRepository) fromEngineerRow(row *engineerRow) schedule.Engineer {
	return schedule.Engineer{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (repo scheduleRepository) CreateEngineer(ctx context.Context, e schedule.Engineer) (schedule.Engineer, error) {
	row := &engineerRow{ID: e.ID, Name: e.Name, CreatedAt: e.CreatedAt.UTC(), UpdatedAt: e.UpdatedAt.UTC()}
	if err := getDB(ctx, repo.db).Create(row).Error; err != nil {
		return schedule.Engineer{}, errors.Wrap(translateErr(err), "creating engineer")
	}
	return repo.fromEngineerRow(row), nil
}

func (repo scheduleRepository) UpdateEngineer(ctx context.Context, e schedule.Engineer) (schedule.Engineer, error) {
	res := getDB(ctx, repo.db).Model(&engineerRow{}).Where("id = ?", e.ID).
		Updates(map[string]interface{}{"name": e.Name, "updated_at": e.UpdatedAt.UTC()})
	if res.Error != nil {
		return schedule.Engineer{}, errors.Wrap(translateErr(res.Error), "updating engineer")
	}
	if res.RowsAffected == 0 {
		return schedule.Engineer{}, core.ErrNotFound
	}
	return repo.GetEngineer(ctx, e.ID)
}

func (repo scheduleRepository) DeleteEngineer(ctx context.Context, id string) error {
	db := getDB(ctx, repo.db)
	if err := db.Where("engineer_id = ?", id).Delete(&timeSlotRow{}).Error; err != nil {
		return errors.Wrap(translateErr(err), "deleting time slots")
	}
	res := db.Where("id = ?", id).Delete(&engineerRow{})
	if res.Error != nil {
		return errors.Wrap(translateErr(res.Error), "deleting engineer")
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo scheduleRepository) GetEngineer(ctx context.Context, id string) (schedule.Engineer, error) {
	var row engineerRow
	if err := getDB(ctx, repo.db).Where("id = ?", id).Take(&row).Error; err != nil {
		return schedule.Engineer{}, errors.Wrap(translateErr(err), "getting engineer")
	}
	return repo.fromEngineerRow(&row), nil
}

func (repo scheduleRepository) QueryEngineers(ctx context.Context) ([]schedule.Engineer, error) {
	var rows []engineerRow
	if err := getDB(ctx, repo.db).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(translateErr(err), "querying engineers")
	}
	engineers := make([]schedule.Engineer, 0, len(rows))
	for i := range rows {
		engineers = append(engineers, repo.fromEngineerRow(&rows[i]))
	}
	return engineers, nil
}

// Time slots

func (repo scheduleRepository) toTimeSlotRow(ts schedule.TimeSlot) *timeSlotRow {
	return &timeSlotRow{
		ID:         ts.ID,
		EngineerID: ts.EngineerID,
		Day:        ts.Day,
		Time:       ts.Time,
		Place:      ts.Place,
		CreatedAt:  ts.CreatedAt.UTC(),
		UpdatedAt:  ts.UpdatedAt.UTC(),
	}
}

func (repo scheduleRepository) fromTimeSlotRow(row *timeSlotRow) schedule.TimeSlot {
	return schedule.TimeSlot{
		ID:         row.ID,
		EngineerID: row.EngineerID,
		Day:        row.Day,
		Time:       row.Time,
		Place:      row.Place,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

func (repo scheduleRepository) CreateTimeSlot(ctx context.Context, ts schedule.TimeSlot) (schedule.TimeSlot, error) {
	row := repo.toTimeSlotRow(ts)
	if err := getDB(ctx, repo.db).Create(row).Error; err != nil {
		return schedule.TimeSlot{}, errors.Wrap(translateErr(err), "creating time slot")
	}
	return repo.fromTimeSlotRow(row), nil
}

func (repo scheduleRepository) UpdateTimeSlot(ctx context.Context, ts schedule.TimeSlot) (schedule.TimeSlot, error) {
	row := repo.toTimeSlotRow(ts)
	res := getDB(ctx, repo.db).Model(row).Select("*").Omit("id", "engineer_id", "created_at").Updates(row)
	if res.Error != nil {
		return schedule.TimeSlot{}, errors.Wrap(translateErr(res.Error), "updating time slot")
	}
	if res.RowsAffected == 0 {
		return schedule.TimeSlot{}, core.ErrNotFound
	}
	return repo.GetTimeSlot(ctx, ts.ID)
}

func (repo scheduleRepository) DeleteTimeSlot(ctx context.Context, id string) error {
	res := getDB(ctx, repo.db).Where("id = ?", id).Delete(&timeSlotRow{})
	if res.Error != nil {
		return errors.Wrap(translateErr(res.Error), "deleting time slot")
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo scheduleRepository) GetTimeSlot(ctx context.Context, id string) (schedule.TimeSlot, error) {
	var row timeSlotRow
	if err := getDB(ctx, repo.db).Where("id = ?", id).Take(&row).Error; err != nil {
		return schedule.TimeSlot{}, errors.Wrap(translateErr(err), "getting time slot")
	}
	return repo.fromTimeSlotRow(&row), nil
}

func (repo scheduleRepository) QueryTimeSlots(ctx context.Context, filter schedule.SlotFilter) ([]schedule.TimeSlot, error) {
	q := getDB(ctx, repo.db).Model(&timeSlotRow{})
	if filter.EngineerID != "" {
		q = q.Where("engineer_id = ?", filter.EngineerID)
	}
	if filter.Day != "" {
		q = q.Where("day = ?", filter.Day)
	}

	var rows []timeSlotRow
	if err := q.Order("time ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(translateErr(err), "querying time slots")
	}
	slots := make([]schedule.TimeSlot, 0, len(rows))
	for i := range rows {
		slots = append(slots, repo.fromTimeSlotRow(&rows[i]))
	}
	return slots, nil
}
