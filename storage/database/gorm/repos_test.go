package gormrepos_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/schedule"
	"github.com/trezcool/elimu/core/user"
	gormrepos "github.com/trezcool/elimu/storage/database/gorm"
	"github.com/trezcool/elimu/tests"
)

func TestUserRepository(t *testing.T) {
	repo := gormrepos.NewUserRepository(testutil.PrepareDB(t))
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Ada", "ada@test.cd", "Secur3Pass!", "")

	t.Run("duplicate email", func(t *testing.T) {
		dup := usr
		dup.ID = uuid.NewString()
		_, err := repo.CreateUser(ctx, dup)
		assert.Equal(t, user.ErrEmailExists, errors.Cause(err))
	})

	t.Run("get", func(t *testing.T) {
		byID, err := repo.GetUserByID(ctx, usr.ID)
		require.NoError(t, err)
		byEmail, err := repo.GetUserByEmail(ctx, "ada@test.cd")
		require.NoError(t, err)
		assert.Equal(t, byID.ID, byEmail.ID)
		assert.NoError(t, byEmail.CheckPassword("Secur3Pass!"))
		assert.Nil(t, byEmail.EmailVerifiedAt)
	})

	t.Run("update", func(t *testing.T) {
		now := core.NowFunc()
		upd := usr
		upd.EmailVerifiedAt = &now
		upd.Role = user.RoleAdmin
		_, err := repo.UpdateUser(ctx, upd)
		require.NoError(t, err)

		got, err := repo.GetUserByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.True(t, got.IsEmailVerified())
		assert.True(t, got.IsAdmin())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetUserByID(ctx, uuid.NewString())
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
		_, err = repo.UpdateUser(ctx, user.User{ID: uuid.NewString(), Email: "x@test.cd"})
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})
}

func TestPurchaseRepository(t *testing.T) {
	gdb := testutil.PrepareDB(t)
	usrRepo := gormrepos.NewUserRepository(gdb)
	courseRepo := gormrepos.NewCourseRepository(gdb)
	repo := gormrepos.NewPurchaseRepository(gdb)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", "")
	c := testutil.CreateCourse(t, courseRepo, teacher.ID, testutil.CourseOpts{IsPublished: true})

	p := enrollment.Purchase{ID: uuid.NewString(), CustomerID: student.ID, CourseID: c.ID, CreatedAt: core.NowFunc()}
	created, err := repo.CreatePurchase(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)

	p.ID = uuid.NewString()
	created, err = repo.CreatePurchase(ctx, p)
	require.NoError(t, err)
	assert.False(t, created, "a customer buys a course once")

	purchases, err := repo.QueryCustomerPurchases(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, c.ID, purchases[0].CourseID)

	_, err = repo.GetPurchase(ctx, teacher.ID, c.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestProgressRepository(t *testing.T) {
	gdb := testutil.PrepareDB(t)
	usrRepo := gormrepos.NewUserRepository(gdb)
	courseRepo := gormrepos.NewCourseRepository(gdb)
	repo := gormrepos.NewProgressRepository(gdb)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", "")
	c := testutil.CreateCourse(t, courseRepo, teacher.ID, testutil.CourseOpts{IsPublished: true})
	s1 := testutil.CreateSection(t, courseRepo, c.ID, testutil.SectionOpts{Position: 0, IsPublished: true})
	s2 := testutil.CreateSection(t, courseRepo, c.ID, testutil.SectionOpts{Position: 1, IsPublished: true})
	draft := testutil.CreateSection(t, courseRepo, c.ID, testutil.SectionOpts{Position: 2})

	first := testutil.MarkSection(t, repo, student.ID, s1.ID, true)
	second := testutil.MarkSection(t, repo, student.ID, s1.ID, false)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.IsCompleted)

	testutil.MarkSection(t, repo, student.ID, s1.ID, true)
	testutil.MarkSection(t, repo, student.ID, draft.ID, true)

	total, completed, err := repo.CountSections(ctx, c.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, completed)

	_, err = repo.GetProgress(ctx, student.ID, s2.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestCourseRepository_DeleteCourse(t *testing.T) {
	gdb := testutil.PrepareDB(t)
	usrRepo := gormrepos.NewUserRepository(gdb)
	repo := gormrepos.NewCourseRepository(gdb)
	purchaseRepo := gormrepos.NewPurchaseRepository(gdb)
	progressRepo := gormrepos.NewProgressRepository(gdb)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", "")
	c := testutil.CreateCourse(t, repo, teacher.ID, testutil.CourseOpts{IsPublished: true})
	s := testutil.CreateSection(t, repo, c.ID, testutil.SectionOpts{IsPublished: true})
	_, err := repo.CreateQuestion(ctx, course.Question{
		ID: uuid.NewString(), SectionID: s.ID, Text: "?", Options: []string{"a", "b"}, Answer: "a", CreatedAt: core.NowFunc(),
	})
	require.NoError(t, err)
	testutil.CreatePurchase(t, purchaseRepo, student.ID, c.ID)
	testutil.MarkSection(t, progressRepo, student.ID, s.ID, true)

	questions, err := repo.QueryQuestions(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, []string{"a", "b"}, questions[0].Options)

	require.NoError(t, repo.DeleteCourse(ctx, c.ID))

	_, err = repo.GetCourse(ctx, c.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	questions, err = repo.QueryQuestions(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)
	purchases, err := purchaseRepo.QueryCustomerPurchases(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, purchases)
	_, err = progressRepo.GetProgress(ctx, student.ID, s.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	assert.True(t, errors.Is(repo.DeleteCourse(ctx, c.ID), core.ErrNotFound))
}

func TestScheduleRepository(t *testing.T) {
	repo := gormrepos.NewScheduleRepository(testutil.PrepareDB(t))
	ctx := context.Background()
	now := core.NowFunc()

	e, err := repo.CreateEngineer(ctx, schedule.Engineer{ID: uuid.NewString(), Name: "Grace", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	newSlot := func(day, clock string) schedule.TimeSlot {
		return schedule.TimeSlot{ID: uuid.NewString(), EngineerID: e.ID, Day: day, Time: clock, Place: "Lab", CreatedAt: now, UpdatedAt: now}
	}
	_, err = repo.CreateTimeSlot(ctx, newSlot("Monday", "10:00"))
	require.NoError(t, err)
	fri, err := repo.CreateTimeSlot(ctx, newSlot("Friday", "08:00"))
	require.NoError(t, err)

	t.Run("same day and time", func(t *testing.T) {
		_, err := repo.CreateTimeSlot(ctx, newSlot("Monday", "10:00"))
		assert.Equal(t, core.ErrConstraintViolation, errors.Cause(err))
	})

	t.Run("filter", func(t *testing.T) {
		tests := []struct {
			name   string
			filter schedule.SlotFilter
			want   int
		}{
			{name: "all", want: 2},
			{name: "by engineer", filter: schedule.SlotFilter{EngineerID: e.ID}, want: 2},
			{name: "by day", filter: schedule.SlotFilter{Day: "Friday"}, want: 1},
			{name: "other engineer", filter: schedule.SlotFilter{EngineerID: uuid.NewString()}, want: 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				slots, err := repo.QueryTimeSlots(ctx, tt.filter)
				require.NoError(t, err)
				assert.Len(t, slots, tt.want)
			})
		}
	})

	t.Run("update missing slot", func(t *testing.T) {
		_, err := repo.UpdateTimeSlot(ctx, newSlot("Sunday", "10:00"))
		assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	})

	t.Run("delete engineer", func(t *testing.T) {
		require.NoError(t, repo.DeleteEngineer(ctx, e.ID))
		_, err := repo.GetTimeSlot(ctx, fri.ID)
		assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	})
}

func TestTranslateErr_closedDatabase(t *testing.T) {
	gdb := testutil.PrepareDB(t)
	repo := gormrepos.NewUserRepository(gdb)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.GetUserByID(context.Background(), uuid.NewString())
	assert.True(t, core.IsShutdown(err), "got %v", err)
}

func TestTransactor_WithTransaction(t *testing.T) {
	gdb := testutil.PrepareDB(t)
	tx := gormrepos.NewTransactor(gdb)
	usrRepo := gormrepos.NewUserRepository(gdb)
	ctx := context.Background()

	errDomain := errors.New("domain failure")
	tests := []struct {
		name    string
		fnErr   error
		wantErr error
	}{
		{name: "duplicated key", fnErr: gorm.ErrDuplicatedKey, wantErr: core.ErrConstraintViolation},
		{name: "record not found", fnErr: gorm.ErrRecordNotFound, wantErr: core.ErrNotFound},
		{name: "other errors untouched", fnErr: errDomain, wantErr: errDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := uuid.NewString() + "@test.cd"
			err := tx.WithTransaction(ctx, func(ctx context.Context) error {
				if _, err := usrRepo.CreateUser(ctx, newTxUser(email)); err != nil {
					return err
				}
				return tt.fnErr
			})
			assert.Equal(t, tt.wantErr, errors.Cause(err))

			_, err = usrRepo.GetUserByEmail(ctx, email)
			assert.Equal(t, core.ErrNotFound, errors.Cause(err), "rolled back")
		})
	}

	t.Run("commit", func(t *testing.T) {
		email := uuid.NewString() + "@test.cd"
		require.NoError(t, tx.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := usrRepo.CreateUser(ctx, newTxUser(email))
			return err
		}))
		_, err := usrRepo.GetUserByEmail(ctx, email)
		assert.NoError(t, err)
	})
}

func newTxUser(email string) user.User {
	now := core.NowFunc()
	return user.User{ID: uuid.NewString(), Name: "Tx", Email: email, Role: user.RoleUser, CreatedAt: now, UpdatedAt: now}
}
