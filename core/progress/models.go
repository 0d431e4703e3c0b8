package progress

import "time"

type Progress struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	SectionID   string    `json:"section_id"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type MarkSection struct {
	IsCompleted *bool `json:"is_completed" validate:"required"`
}

// CourseProgress is a student's progress through the published sections of a course.
type CourseProgress struct {
	CourseID          string  `json:"course_id"`
	Title             string  `json:"title"`
	TotalSections     int     `json:"total_sections"`
	CompletedSections int     `json:"completed_sections"`
	RemainingSections int     `json:"remaining_sections"`
	Percentage        float64 `json:"progress"`
}

type Aggregate struct {
	Total   float64          `json:"total"`
	Courses []CourseProgress `json:"courses"`
}

// CourseStats are the raw figures of an instructor's course.
type CourseStats struct {
	CourseID          string  `db:"course_id"`
	Title             string  `db:"title"`
	Price             float64 `db:"price"`
	IsPublished       bool    `db:"is_published"`
	Sales             int     `db:"sales"`
	TotalSections     int     `db:"total_sections"`
	CompletedSections int     `db:"completed_sections"`
}

type CoursePerformance struct {
	CourseID          string  `json:"course_id"`
	Title             string  `json:"title"`
	IsPublished       bool    `json:"is_published"`
	Sales             int     `json:"sales"`
	Revenue           float64 `json:"revenue"`
	TotalSections     int     `json:"total_sections"`
	CompletedSections int     `json:"completed_sections"`
	TotalStudents     int     `json:"total_students"`
	AverageProgress   float64 `json:"average_progress"`
}

type Performance struct {
	Courses       []CoursePerformance `json:"courses"`
	TotalRevenue  float64             `json:"total_revenue"`
	TotalSales    int                 `json:"total_sales"`
	ActiveCourses int                 `json:"active_courses"`
}
