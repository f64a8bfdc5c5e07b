package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/freetime/apps/api/echo"
	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/calendar"
	"github.com/trezcool/freetime/core/event"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/profile"
	"github.com/trezcool/freetime/core/schedule"
	"github.com/trezcool/freetime/core/user"
	emailsvc "github.com/trezcool/freetime/services/email"
	logsvc "github.com/trezcool/freetime/services/logger"
	"github.com/trezcool/freetime/storage/cache"
	"github.com/trezcool/freetime/storage/database"
	inmemdb "github.com/trezcool/freetime/storage/database/inmem"
	"github.com/trezcool/freetime/storage/database/sqlxrepos"
	"github.com/trezcool/freetime/storage/objectstore"
)

type repositories struct {
	usr      user.Repository
	profile  profile.Repository
	schedule schedule.Repository
	group    group.Repository
	event    event.Repository
}

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

	// set up DB
	var repos repositories
	if conf.Database.InMemory() {
		logger.Warn("using the in-memory database: data will not survive a restart", nil)
		repos = inMemoryRepositories()
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		repos = sqlxRepositories(db)
	}

	// set up storage
	store, err := objectstore.New(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up object store: %v", err), err)
	}
	var mediaDir string
	if local, ok := store.(*objectstore.LocalStore); ok {
		mediaDir = local.Dir()
	}

	calendarCache := cache.New(conf.Cache, logger)
	defer func() {
		if err = calendarCache.Close(); err != nil {
			logger.Error("closing cache", err)
		}
	}()

	theme, err := calendar.LoadTheme(conf.Calendar.ThemeFile)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading calendar theme: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.usr, mailSvc, conf)
	profileSvc := profile.NewService(repos.profile, store)
	scheduleSvc := schedule.NewService(repos.schedule)
	groupSvc := group.NewService(repos.group)
	eventSvc := event.NewService(repos.event, groupSvc, usrSvc, profileSvc, mailSvc, logger)
	calendarSvc := calendar.NewService(groupSvc, scheduleSvc, profileSvc, calendarCache, conf, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

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
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			Validate:    validate,
			Translator:  translator,
			UserSvc:     usrSvc,
			ProfileSvc:  profileSvc,
			ScheduleSvc: scheduleSvc,
			GroupSvc:    groupSvc,
			EventSvc:    eventSvc,
			CalendarSvc: calendarSvc,
			Theme:       theme,
			MediaDir:    mediaDir,
		},
	)

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

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func inMemoryRepositories() repositories {
	db := inmemdb.Open()
	return repositories{
		usr:      inmemdb.NewUserRepository(db),
		profile:  inmemdb.NewProfileRepository(db),
		schedule: inmemdb.NewScheduleRepository(db),
		group:    inmemdb.NewGroupRepository(db),
		event:    inmemdb.NewEventRepository(db),
	}
}

func sqlxRepositories(db *sqlx.DB) repositories {
	return repositories{
		usr:      sqlxrepos.NewUserRepository(db),
		profile:  sqlxrepos.NewProfileRepository(db),
		schedule: sqlxrepos.NewScheduleRepository(db),
		group:    sqlxrepos.NewGroupRepository(db),
		event:    sqlxrepos.NewEventRepository(db),
	}
}
