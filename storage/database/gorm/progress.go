package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trezcool/elimu/core/progress"
)

type progressRepository struct {
	db *gorm.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *gorm.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo progressRepository) fromRow(row *progressRow) progress.Progress {
	return progress.Progress{
		ID:          row.ID,
		StudentID:   row.StudentID,
		SectionID:   row.SectionID,
		IsCompleted: row.IsCompleted,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo progressRepository) UpsertProgress(ctx context.Context, p progress.Progress) (progress.Progress, error) {
	row := &progressRow{
		ID:          p.ID,
		StudentID:   p.StudentID,
		SectionID:   p.SectionID,
		IsCompleted: p.IsCompleted,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
	err := getDB(ctx, repo.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "section_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_completed", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return progress.Progress{}, errors.Wrap(translateErr(err), "upserting progress")
	}
	// the stored row keeps its original id on conflict
	return repo.GetProgress(ctx, p.StudentID, p.SectionID)
}

func (repo progressRepository) GetProgress(ctx context.Context, studentID, sectionID string) (progress.Progress, error) {
	var row progressRow
	err := getDB(ctx, repo.db).Where("student_id = ? AND section_id = ?", studentID, sectionID).Take(&row).Error
	if err != nil {
		return progress.Progress{}, errors.Wrap(translateErr(err), "getting progress")
	}
	return repo.fromRow(&row), nil
}

func (repo progressRepository) CountSections(ctx context.Context, courseID, studentID string) (int, int, error) {
	var counts struct {
		Total     int
		Completed int
	}
	err := getDB(ctx, repo.db).
		Model(&sectionRow{}).
		Select(
			"COUNT(sections.id) AS total, "+
				"COUNT(CASE WHEN progress.is_completed THEN 1 END) AS completed",
		).
		Joins("LEFT JOIN progress ON progress.section_id = sections.id AND progress.student_id = ?", studentID).
		Where("sections.course_id = ? AND sections.is_published = ?", courseID, true).
		Scan(&counts).Error
	if err != nil {
		return 0, 0, errors.Wrap(translateErr(err), "counting sections")
	}
	return counts.Total, counts.Completed, nil
}
