package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	logsvc "github.com/trezcool/ratiba/services/logger"
	metricsvc "github.com/trezcool/ratiba/services/metrics"
	sessionsvc "github.com/trezcool/ratiba/services/session"
	sweepersvc "github.com/trezcool/ratiba/services/sweeper"
	"github.com/trezcool/ratiba/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// generated credentials only ever go to the local console
	console := log.New(os.Stderr, "", 0)

	if err := ensureSecrets(conf, logger, console); err != nil {
		logger.Fatal(fmt.Sprintf("generating secrets: %v", err), err)
	}

	// set up storage
	stores, err := storage.Open(conf, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = stores.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	validator := core.NewValidator()
	usrSvc := user.NewService(stores.Users, validator, conf.Admin.Passcode)
	schedSvc := schedule.NewService(
		stores.Schedules,
		stores.Checks,
		validator,
		schedule.WithVisibility(schedule.VisibilityFor(conf.Admin.ViewAll)),
	)

	var sessions sessionsvc.Store
	if conf.Redis.Addr != "" {
		redisStore := sessionsvc.NewRedisStore(conf)
		defer redisStore.Close()
		if !redisStore.Healthy(context.Background()) {
			logger.Fatal(fmt.Sprintf("redis at %q is unreachable", conf.Redis.Addr))
		}
		sessions = redisStore
	} else {
		sessions = sessionsvc.NewMemoryStore()
	}

	metrics := metricsvc.New(core.CleanString(conf.AppName, true))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if err = seedAdmin(context.Background(), usrSvc, conf, logger, console); err != nil {
		logger.Fatal(fmt.Sprintf("seeding admin account: %v", err), err)
	}

	if conf.Completion.SweepInterval > 0 {
		sweeper, err := sweepersvc.New(schedSvc, logger, conf.Completion.SweepInterval, metrics.ObserveSweep)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up completion sweeper: %v", err), err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		ScheduleSvc: schedSvc,
		Sessions:    sessions,
		Metrics:     metrics,
	})

	go func() {
		server.Start()
	}()

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
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// ensureSecrets fills unset secrets with random values, valid for this process only.
func ensureSecrets(conf *core.Config, logger core.Logger, console *log.Logger) error {
	if conf.SecretKey == "" {
		key, err := core.RandomSecret(32)
		if err != nil {
			return errors.Wrap(err, "secret key")
		}
		conf.SecretKey = key
		logger.Warn("secret key is not configured: using a random key, sessions will not survive a restart")
	}
	if conf.Admin.Passcode == "" {
		code, err := core.RandomSecret(6)
		if err != nil {
			return errors.Wrap(err, "admin passcode")
		}
		conf.Admin.Passcode = code
		logger.Warn("admin passcode is not configured: a random one is printed on the console")
		console.Printf("admin passcode for this run: %s", code)
	}
	return nil
}

// seedAdmin creates the admin account when it does not exist yet.
// A generated password is printed on the console only when the account is actually created by this call.
func seedAdmin(ctx context.Context, svc *user.Service, conf *core.Config, logger core.Logger, console *log.Logger) error {
	pwd, generated := conf.Admin.Password, false
	if pwd == "" {
		var err error
		if pwd, err = core.RandomSecret(12); err != nil {
			return errors.Wrap(err, "admin password")
		}
		generated = true
	}

	admin, created, err := svc.EnsureAdmin(ctx, conf.Admin.Username, pwd)
	if err != nil || !created {
		return err
	}
	logger.Info(fmt.Sprintf("admin account %q created", admin.Username))
	if generated {
		console.Printf("admin account %q created with password: %s", admin.Username, pwd)
	}
	return nil
}
