package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	stores, err := storage.Open(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	// start CLI
	validator := core.NewValidator()
	cli := &commandLine{
		conf:   conf,
		stores: stores,
		usrSvc: user.NewService(stores.Users, validator, conf.Admin.Passcode),
		schedSvc: schedule.NewService(
			stores.Schedules,
			stores.Checks,
			validator,
			schedule.WithVisibility(schedule.VisibilityFor(conf.Admin.ViewAll)),
		),
	}
	err = newRootCommand(cli).Execute()
	if cerr := stores.Close(); cerr != nil {
		logger.Error("Failed to close storage", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		os.Exit(1)
	}
}
