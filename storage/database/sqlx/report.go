package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/progress"
)

const instructorCourseStatsQuery = `
SELECT c.id AS course_id,
       c.title,
       c.price,
       c.is_published,
       (SELECT COUNT(*) FROM purchases p WHERE p.course_id = c.id) AS sales,
       (SELECT COUNT(*) FROM sections s WHERE s.course_id = c.id AND s.is_published = ?) AS total_sections,
       (SELECT COUNT(*)
          FROM progress pr
          JOIN sections s ON s.id = pr.section_id
          JOIN purchases p ON p.customer_id = pr.student_id AND p.course_id = s.course_id
         WHERE s.course_id = c.id AND s.is_published = ? AND pr.is_completed = ?) AS completed_sections
  FROM courses c
 WHERE c.instructor_id = ?
 ORDER BY c.created_at ASC, c.id ASC`

// reportRepository runs the read-only aggregate queries of the instructor dashboards.
type reportRepository struct {
	db *sqlx.DB
}

var _ progress.Reporter = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo reportRepository) InstructorCourseStats(ctx context.Context, instructorID string) ([]progress.CourseStats, error) {
	stats := make([]progress.CourseStats, 0)
	q := repo.db.Rebind(instructorCourseStatsQuery)
	if err := repo.db.SelectContext(ctx, &stats, q, true, true, true, instructorID); err != nil {
		return nil, errors.Wrap(err, "selecting instructor course stats")
	}
	return stats, nil
}
