package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/user"
	videosvc "github.com/trezcool/elimu/services/video"
	gormrepos "github.com/trezcool/elimu/storage/database/gorm"
	sqlxrepos "github.com/trezcool/elimu/storage/database/sqlx"
	"github.com/trezcool/elimu/tests"
)

type fixture struct {
	usrRepo      user.Repository
	courseRepo   course.Repository
	purchaseRepo enrollment.Repository
	progressRepo progress.Repository
	svc          progress.Service
}

func setup(t *testing.T) fixture {
	gdb := testutil.PrepareDB(t)
	f := fixture{
		usrRepo:      gormrepos.NewUserRepository(gdb),
		courseRepo:   gormrepos.NewCourseRepository(gdb),
		purchaseRepo: gormrepos.NewPurchaseRepository(gdb),
		progressRepo: gormrepos.NewProgressRepository(gdb),
	}
	courseSvc := course.NewService(gormrepos.NewTransactor(gdb), f.courseRepo, videosvc.NewDummyService())
	enrollmentSvc := enrollment.NewService(f.purchaseRepo, courseSvc)
	f.svc = progress.NewService(
		f.progressRepo,
		sqlxrepos.NewReportRepository(testutil.ReportDB(t, gdb)),
		courseSvc,
		enrollmentSvc,
	)
	return f
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name             string
		completed, total int
		want             float64
	}{
		{name: "no sections", completed: 0, total: 0, want: 0},
		{name: "none completed", completed: 0, total: 4, want: 0},
		{name: "half", completed: 2, total: 4, want: 50},
		{name: "all", completed: 4, total: 4, want: 100},
		{name: "more completed than total", completed: 5, total: 4, want: 100},
		{name: "negative total", completed: 1, total: -1, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progress.Percentage(tt.completed, tt.total))
		})
	}
}

func TestService_CoursePercentage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, f.usrRepo, "Student", "student@test.cd", "", "")
	c := testutil.CreateCourse(t, f.courseRepo, teacher.ID, testutil.CourseOpts{Price: 10, IsPublished: true})

	t.Run("no published sections", func(t *testing.T) {
		draft := testutil.CreateSection(t, f.courseRepo, c.ID, testutil.SectionOpts{Position: 0})
		testutil.MarkSection(t, f.progressRepo, student.ID, draft.ID, true)

		pct, err := f.svc.CoursePercentage(ctx, c.ID, student.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(0), pct)
	})

	var sections []course.Section
	for i := 1; i <= 4; i++ {
		sections = append(sections, testutil.CreateSection(t, f.courseRepo, c.ID, testutil.SectionOpts{Position: i, IsPublished: true}))
	}

	t.Run("monotonic while completing", func(t *testing.T) {
		prev, err := f.svc.CoursePercentage(ctx, c.ID, student.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(0), prev)

		for _, s := range sections {
			_, err = f.svc.MarkSection(ctx, student.ID, s.ID, true)
			require.NoError(t, err)

			pct, err := f.svc.CoursePercentage(ctx, c.ID, student.ID)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, pct, prev)
			assert.GreaterOrEqual(t, pct, float64(0))
			assert.LessOrEqual(t, pct, float64(100))
			prev = pct
		}
		assert.Equal(t, float64(100), prev)
	})

	t.Run("other students do not count", func(t *testing.T) {
		other := testutil.CreateUser(t, f.usrRepo, "Other", "other@test.cd", "", "")
		pct, err := f.svc.CoursePercentage(ctx, c.ID, other.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(0), pct)
	})

	t.Run("unmarking lowers the percentage", func(t *testing.T) {
		_, err := f.svc.MarkSection(ctx, student.ID, sections[0].ID, false)
		require.NoError(t, err)
		pct, err := f.svc.CoursePercentage(ctx, c.ID, student.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(75), pct)
	})
}

func TestService_MarkSection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, f.usrRepo, "Student", "student@test.cd", "", "")
	c := testutil.CreateCourse(t, f.courseRepo, teacher.ID, testutil.CourseOpts{Price: 10, IsPublished: true})
	s := testutil.CreateSection(t, f.courseRepo, c.ID, testutil.SectionOpts{IsPublished: true})

	first, err := f.svc.MarkSection(ctx, student.ID, s.ID, true)
	require.NoError(t, err)
	assert.True(t, first.IsCompleted)

	again, err := f.svc.MarkSection(ctx, student.ID, s.ID, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "upsert must keep a single row")

	undone, err := f.svc.MarkSection(ctx, student.ID, s.ID, false)
	require.NoError(t, err)
	assert.Equal(t, first.ID, undone.ID)
	assert.False(t, undone.IsCompleted)

	got, err := f.svc.Get(ctx, student.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)
}

func TestService_Aggregate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, f.usrRepo, "Student", "student@test.cd", "", "")

	agg, err := f.svc.Aggregate(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), agg.Total)
	assert.Empty(t, agg.Courses)

	half := testutil.CreateCourse(t, f.courseRepo, teacher.ID, testutil.CourseOpts{Price: 10, IsPublished: true})
	s1 := testutil.CreateSection(t, f.courseRepo, half.ID, testutil.SectionOpts{Position: 0, IsPublished: true})
	testutil.CreateSection(t, f.courseRepo, half.ID, testutil.SectionOpts{Position: 1, IsPublished: true})

	full := testutil.CreateCourse(t, f.courseRepo, teacher.ID, testutil.CourseOpts{Price: 20, IsPublished: true})
	s3 := testutil.CreateSection(t, f.courseRepo, full.ID, testutil.SectionOpts{IsPublished: true})

	testutil.CreatePurchase(t, f.purchaseRepo, student.ID, half.ID)
	testutil.CreatePurchase(t, f.purchaseRepo, student.ID, full.ID)
	testutil.MarkSection(t, f.progressRepo, student.ID, s1.ID, true)
	testutil.MarkSection(t, f.progressRepo, student.ID, s3.ID, true)

	agg, err = f.svc.Aggregate(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(75), agg.Total)
	require.Len(t, agg.Courses, 2)

	byCourse := make(map[string]progress.CourseProgress)
	for _, cp := range agg.Courses {
		byCourse[cp.CourseID] = cp
	}
	assert.Equal(t, progress.CourseProgress{
		CourseID: half.ID, Title: half.Title, TotalSections: 2, CompletedSections: 1, RemainingSections: 1, Percentage: 50,
	}, byCourse[half.ID])
	assert.Equal(t, float64(100), byCourse[full.ID].Percentage)
}

func TestService_InstructorPerformance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleAdmin)
	rival := testutil.CreateUser(t, f.usrRepo, "Rival", "rival@test.cd", "", user.RoleAdmin)
	st1 := testutil.CreateUser(t, f.usrRepo, "One", "one@test.cd", "", "")
	st2 := testutil.CreateUser(t, f.usrRepo, "Two", "two@test.cd", "", "")

	perf, err := f.svc.InstructorPerformance(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, perf.Courses)
	assert.Zero(t, perf.TotalRevenue)

	sold := testutil.CreateCourse(t, f.courseRepo, teacher.ID, testutil.CourseOpts{Title: "Sold", Price: 25, IsPublished: true})
	s1 := testutil.CreateSection(t, f.courseRepo, sold.ID, testutil.SectionOpts{Position: 0, IsPublished: true})
	testutil.CreateSection(t, f.courseRepo, sold.ID, testutil.SectionOpts{Position: 1, IsPublished: true})
	testutil.CreateSection(t, f.courseRepo, sold.ID, testutil.SectionOpts{Position: 2}) // draft
	testutil.CreateCourse(t, f.courseRepo, teacher.ID, testutil.CourseOpts{Title: "Draft", Price: 5, CreatedAt: sold.CreatedAt.Add(time.Second)})
	testutil.CreateCourse(t, f.courseRepo, rival.ID, testutil.CourseOpts{Title: "Rival", Price: 5, IsPublished: true})

	testutil.CreatePurchase(t, f.purchaseRepo, st1.ID, sold.ID)
	testutil.CreatePurchase(t, f.purchaseRepo, st2.ID, sold.ID)
	testutil.MarkSection(t, f.progressRepo, st1.ID, s1.ID, true)

	perf, err = f.svc.InstructorPerformance(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, perf.Courses, 2)

	got := perf.Courses[0]
	assert.Equal(t, "Sold", got.Title)
	assert.Equal(t, 2, got.Sales)
	assert.Equal(t, float64(50), got.Revenue)
	assert.Equal(t, 2, got.TotalSections)
	assert.Equal(t, 1, got.CompletedSections)
	assert.Equal(t, 2, got.TotalStudents)
	assert.Equal(t, float64(25), got.AverageProgress)

	draft := perf.Courses[1]
	assert.Equal(t, "Draft", draft.Title)
	assert.Zero(t, draft.Sales)
	assert.Zero(t, draft.AverageProgress)

	assert.Equal(t, float64(50), perf.TotalRevenue)
	assert.Equal(t, 2, perf.TotalSales)
	assert.Equal(t, 1, perf.ActiveCourses)
}
