package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // register /debug/pprof
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	echoapi "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/schedule"
	"github.com/trezcool/elimu/core/user"
	cachesvc "github.com/trezcool/elimu/services/cache"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
	videosvc "github.com/trezcool/elimu/services/video"
	"github.com/trezcool/elimu/storage/database"
	gormrepos "github.com/trezcool/elimu/storage/database/gorm"
	sqlxrepos "github.com/trezcool/elimu/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := newLogger("API", conf)
	defer logger.Sync()
	dbLogger := newLogger("DB", conf)
	defer dbLogger.Sync()

	// set up DB
	db, gdb, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	var videoSvc core.VideoService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
		videoSvc = videosvc.NewDummyService()
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
		videoSvc = videosvc.NewMuxService(conf, logger)
	}

	var cache core.Cache = cachesvc.NewMemoryCache()
	if conf.Redis.Address != "" {
		client, err := cachesvc.NewRedisClient(context.Background(), conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
		}
		defer client.Close()
		cache = cachesvc.NewRedisCache(client, conf)
	}

	usrSvc := user.NewService(gormrepos.NewUserRepository(gdb), cache, mailSvc, conf)
	courseSvc := course.NewService(gormrepos.NewTransactor(gdb), gormrepos.NewCourseRepository(gdb), videoSvc)
	enrollmentSvc := enrollment.NewService(gormrepos.NewPurchaseRepository(gdb), courseSvc)
	progressSvc := progress.NewService(
		gormrepos.NewProgressRepository(gdb),
		sqlxrepos.NewReportRepository(sqlx.NewDb(db, "postgres")),
		courseSvc,
		enrollmentSvc,
	)
	learningSvc := learning.NewService(courseSvc, enrollmentSvc, progressSvc)
	scheduleSvc := schedule.NewService(gormrepos.NewTransactor(gdb), gormrepos.NewScheduleRepository(gdb))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		&echoapi.Options{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			UserSvc:       usrSvc,
			CourseSvc:     courseSvc,
			EnrollmentSvc: enrollmentSvc,
			ProgressSvc:   progressSvc,
			LearningSvc:   learningSvc,
			ScheduleSvc:   scheduleSvc,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func newLogger(name string, conf *core.Config) *logsvc.RollbarLogger {
	zl, err := logsvc.NewZap(name, conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building %s logger: %v\n", name, err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func setUpDB(conf *core.Config) (*sql.DB, *gorm.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	gdb, err := database.OpenGorm(conf)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, gdb, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
