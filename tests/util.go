// Package testutil holds the database and fixture helpers shared by the tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/schedule"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/user"
	logsvc "github.com/trezcool/elimu/services/logger"
	gormrepos "github.com/trezcool/elimu/storage/database/gorm"
)

// PrepareDB returns a fresh in-memory SQLite database with the schema of the row models.
// It is closed when the test ends.
func PrepareDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        core.NowFunc,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1) // one connection keeps the memory database alive and serializes transactions

	if err = gdb.AutoMigrate(gormrepos.Models()...); err != nil {
		t.Fatalf("PrepareDB().AutoMigrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// ReportDB wraps the connection of gdb for the sqlx report queries.
func ReportDB(t *testing.T, gdb *gorm.DB) *sqlx.DB {
	t.Helper()
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("ReportDB(): %v", err)
	}
	return sqlx.NewDb(sqlDB, "sqlite3")
}

// NewLogger returns a logger that reports nothing.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zap.NewNop().Sugar(), conf)
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, name, email, pwd, role string, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := core.NowFunc()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if role == "" {
		role = user.RoleUser
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// CourseOpts overrides the defaults of CreateCourse.
type CourseOpts struct {
	Title       string
	Price       float64
	CategoryID  string
	LevelID     string
	IsFree      bool
	IsPublished bool
	CreatedAt   time.Time
}

// CreateCourse stores a course that passes the publish gate, once it has a published section.
func CreateCourse(t *testing.T, repo course.Repository, instructorID string, opts CourseOpts) course.Course {
	t.Helper()
	tstamp := opts.CreatedAt
	if tstamp.IsZero() {
		tstamp = core.NowFunc()
	}
	if opts.Title == "" {
		opts.Title = "Course " + uuid.NewString()[:8]
	}
	if opts.CategoryID == "" {
		opts.CategoryID = "cat"
	}
	if opts.LevelID == "" {
		opts.LevelID = "beginner"
	}
	c, err := repo.CreateCourse(context.Background(), course.Course{
		ID:            uuid.NewString(),
		InstructorID:  instructorID,
		Title:         opts.Title,
		Description:   "A course",
		ImageURL:      "https://img.test/course.png",
		Price:         opts.Price,
		CategoryID:    opts.CategoryID,
		SubCategoryID: "subcat",
		LevelID:       opts.LevelID,
		IsPublished:   opts.IsPublished,
		IsFree:        opts.IsFree,
		CreatedAt:     tstamp.UTC(),
		UpdatedAt:     tstamp.UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourse(): %v", err)
	}
	return c
}

// SectionOpts overrides the defaults of CreateSection.
type SectionOpts struct {
	Title       string
	Position    int
	IsPublished bool
	IsFree      bool
	VideoURL    string
}

func CreateSection(t *testing.T, repo course.Repository, courseID string, opts SectionOpts) course.Section {
	t.Helper()
	now := core.NowFunc()
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("Section %d", opts.Position)
	}
	s, err := repo.CreateSection(context.Background(), course.Section{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Title:       opts.Title,
		Description: "About " + opts.Title,
		Position:    opts.Position,
		IsPublished: opts.IsPublished,
		IsFree:      opts.IsFree,
		VideoURL:    opts.VideoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateSection(): %v", err)
	}
	return s
}

func CreatePurchase(t *testing.T, repo enrollment.Repository, customerID, courseID string) enrollment.Purchase {
	t.Helper()
	p := enrollment.Purchase{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		CourseID:   courseID,
		CreatedAt:  core.NowFunc(),
	}
	if _, err := repo.CreatePurchase(context.Background(), p); err != nil {
		t.Fatalf("CreatePurchase(): %v", err)
	}
	return p
}

func MarkSection(t *testing.T, repo progress.Repository, studentID, sectionID string, completed bool) progress.Progress {
	t.Helper()
	now := core.NowFunc()
	p, err := repo.UpsertProgress(context.Background(), progress.Progress{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		SectionID:   sectionID,
		IsCompleted: completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("MarkSection(): %v", err)
	}
	return p
}
