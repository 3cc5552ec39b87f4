package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/fonsecajr2/Student-Teacher-Appointment/apps/api/echo"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/registration"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
	emailsvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/email"
	identitysvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/identity"
	locksvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/lock"
	logsvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/logger"
	"github.com/fonsecajr2/Student-Teacher-Appointment/storage/database"
	inmemdb "github.com/fonsecajr2/Student-Teacher-Appointment/storage/database/inmem"
	sqlxrepos "github.com/fonsecajr2/Student-Teacher-Appointment/storage/database/sqlx"
)

type repositories struct {
	profiles     user.Repository
	credentials  user.CredentialRepository
	appointments appointment.Repository
	messages     message.Repository
	close        func() error
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
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	locker, closeLocker := setUpLocker(conf, logger)
	defer closeLocker()

	mailSvc := setUpMailService(conf, logger)

	validator := core.NewValidator()
	user.InitValidators(validator)

	identities := identitysvc.NewProvider(repos.credentials, conf, logger)
	registrationSvc := registration.NewService(repos.profiles, identities, locker, mailSvc, validator, logger)
	appointmentSvc := appointment.NewService(repos.appointments, repos.profiles, locker, mailSvc, validator, logger)
	messageSvc := message.NewService(repos.messages, repos.profiles, validator, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(logger, conf)

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
			Conf:            conf,
			Logger:          logger,
			Validator:       validator,
			Gate:            access.NewGate(repos.profiles, logger),
			Identity:        identities,
			RegistrationSvc: registrationSvc,
			AppointmentSvc:  appointmentSvc,
			MessageSvc:      messageSvc,
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

// setUpRepositories returns the PostgreSQL repositories, or the in-memory ones when DATABASE_INMEMORY is set.
func setUpRepositories(conf *core.Config) (*repositories, error) {
	if conf.Database.InMemory {
		db := inmemdb.Open()
		return &repositories{
			profiles:     inmemdb.NewProfileRepository(db),
			credentials:  inmemdb.NewCredentialRepository(db),
			appointments: inmemdb.NewAppointmentRepository(db),
			messages:     inmemdb.NewMessageRepository(db),
			close:        func() error { return nil },
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &repositories{
		profiles:     sqlxrepos.NewProfileRepository(db),
		credentials:  sqlxrepos.NewCredentialRepository(db),
		appointments: sqlxrepos.NewAppointmentRepository(db),
		messages:     sqlxrepos.NewMessageRepository(db),
		close:        db.Close,
	}, nil
}

// setUpLocker shares locks through redis when it is configured, so that several API instances can run.
func setUpLocker(conf *core.Config, logger core.Logger) (core.Locker, func()) {
	if conf.Redis.Address == "" {
		return locksvc.NewLocalLocker(), func() {}
	}
	client, err := locksvc.NewRedisClient(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return locksvc.NewRedisLocker(client, conf, logger), func() {
		if err := client.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing redis client: %v", err), err)
		}
	}
}

func setUpMailService(conf *core.Config, logger core.Logger) core.EmailService {
	switch {
	case conf.Debug:
		return emailsvc.NewConsoleService(conf, logger)
	case conf.SendgridAPIKey != "":
		return emailsvc.NewSendgridService(conf, logger)
	default:
		return emailsvc.NewSMTPService(conf, logger)
	}
}
