package progress

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
)

type (
	Repository interface {
		// UpsertProgress inserts p or updates the completion of the existing (student, section) record.
		UpsertProgress(ctx context.Context, p Progress) (Progress, error)
		// GetProgress returns core.ErrNotFound when the student never marked the section.
		GetProgress(ctx context.Context, studentID, sectionID string) (Progress, error)
		// CountSections counts the published sections of a course and those the student completed.
		CountSections(ctx context.Context, courseID, studentID string) (total, completed int, err error)
	}

	Reporter interface {
		InstructorCourseStats(ctx context.Context, instructorID string) ([]CourseStats, error)
	}

	Service interface {
		MarkSection(ctx context.Context, studentID, sectionID string, completed bool) (Progress, error)
		Get(ctx context.Context, studentID, sectionID string) (Progress, error)
		// CoursePercentage is 0 for a course without published sections.
		CoursePercentage(ctx context.Context, courseID, studentID string) (float64, error)
		CourseProgress(ctx context.Context, c course.Course, studentID string) (CourseProgress, error)
		// Aggregate averages the progress over the courses the student purchased, 0 when none.
		Aggregate(ctx context.Context, studentID string) (Aggregate, error)
		InstructorPerformance(ctx context.Context, instructorID string) (Performance, error)
	}

	service struct {
		repo        Repository
		reporter    Reporter
		courses     course.Service
		enrollments enrollment.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, reporter Reporter, courses course.Service, enrollments enrollment.Service) Service {
	return &service{
		repo:        repo,
		reporter:    reporter,
		courses:     courses,
		enrollments: enrollments,
	}
}

// Percentage returns completed/total as a percentage in [0, 100]; 0 when total is 0.
func Percentage(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return float64(completed) / float64(total) * 100
}

func (svc *service) MarkSection(ctx context.Context, studentID, sectionID string, completed bool) (Progress, error) {
	now := core.NowFunc()
	return svc.repo.UpsertProgress(ctx, Progress{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		SectionID:   sectionID,
		IsCompleted: completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) Get(ctx context.Context, studentID, sectionID string) (Progress, error) {
	return svc.repo.GetProgress(ctx, studentID, sectionID)
}

func (svc *service) CoursePercentage(ctx context.Context, courseID, studentID string) (float64, error) {
	total, completed, err := svc.repo.CountSections(ctx, courseID, studentID)
	if err != nil {
		return 0, errors.Wrap(err, "counting sections")
	}
	return Percentage(completed, total), nil
}

func (svc *service) CourseProgress(ctx context.Context, c course.Course, studentID string) (CourseProgress, error) {
	total, completed, err := svc.repo.CountSections(ctx, c.ID, studentID)
	if err != nil {
		return CourseProgress{}, errors.Wrap(err, "counting sections")
	}
	return CourseProgress{
		CourseID:          c.ID,
		Title:             c.Title,
		TotalSections:     total,
		CompletedSections: completed,
		RemainingSections: total - completed,
		Percentage:        Percentage(completed, total),
	}, nil
}

func (svc *service) Aggregate(ctx context.Context, studentID string) (Aggregate, error) {
	purchases, err := svc.enrollments.Purchases(ctx, studentID)
	if err != nil {
		return Aggregate{}, errors.Wrap(err, "querying purchases")
	}

	agg := Aggregate{Courses: make([]CourseProgress, 0, len(purchases))}
	if len(purchases) == 0 {
		return agg, nil
	}
	var sum float64
	for _, p := range purchases {
		c, err := svc.courses.GetPublished(ctx, p.CourseID)
		if err != nil {
			return Aggregate{}, errors.Wrapf(err, "getting course %s", p.CourseID)
		}
		cp, err := svc.CourseProgress(ctx, c, studentID)
		if err != nil {
			return Aggregate{}, err
		}
		sum += cp.Percentage
		agg.Courses = append(agg.Courses, cp)
	}
	agg.Total = sum / float64(len(purchases))
	return agg, nil
}

func (svc *service) InstructorPerformance(ctx context.Context, instructorID string) (Performance, error) {
	stats, err := svc.reporter.InstructorCourseStats(ctx, instructorID)
	if err != nil {
		return Performance{}, errors.Wrap(err, "getting course stats")
	}

	perf := Performance{Courses: make([]CoursePerformance, 0, len(stats))}
	for _, st := range stats {
		cp := CoursePerformance{
			CourseID:          st.CourseID,
			Title:             st.Title,
			IsPublished:       st.IsPublished,
			Sales:             st.Sales,
			Revenue:           st.Price * float64(st.Sales),
			TotalSections:     st.TotalSections,
			CompletedSections: st.CompletedSections,
			TotalStudents:     st.Sales,
			AverageProgress:   Percentage(st.CompletedSections, st.TotalSections*st.Sales),
		}
		perf.Courses = append(perf.Courses, cp)
		perf.TotalRevenue += cp.Revenue
		perf.TotalSales += cp.Sales
		if cp.IsPublished {
			perf.ActiveCourses++
		}
	}
	return perf, nil
}
