package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
	cachesvc "github.com/trezcool/elimu/services/cache"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
	"github.com/trezcool/elimu/storage/database"
	gormrepos "github.com/trezcool/elimu/storage/database/gorm"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap("ADMIN", conf)
	if err != nil {
		zl = zap.NewNop().Sugar()
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()
	gdb, err := database.OpenGorm(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening gorm: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db: db,
		usrSvc: user.NewService(
			gormrepos.NewUserRepository(gdb),
			cachesvc.NewMemoryCache(),
			emailsvc.NewConsoleService(conf, logger),
			conf,
		),
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("admin command failed: %v", err), err)
			fmt.Printf("\nerror: %s\n", err)
		}
		_ = db.Close()
		logger.Sync()
		os.Exit(1)
	}
}
