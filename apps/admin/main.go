package main

import (
	"log"
	"os"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
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

var logger *logsvc.RollbarLogger

func main() {
	conf := core.NewConfig()

	logger = logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	validator := core.NewValidator()
	user.InitValidators(validator)

	var cli commandLine
	var profiles user.Repository
	var creds user.CredentialRepository
	if conf.Database.InMemory {
		db := inmemdb.Open()
		profiles, creds = inmemdb.NewProfileRepository(db), inmemdb.NewCredentialRepository(db)
	} else {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(err.Error(), err)
		}
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(err.Error(), err)
		}
		defer db.Close()
		cli.db = db.DB
		profiles, creds = sqlxrepos.NewProfileRepository(db), sqlxrepos.NewCredentialRepository(db)
	}

	cli.identities = identitysvc.NewProvider(creds, conf, logger)
	cli.registrationSvc = registration.NewService(
		profiles,
		cli.identities,
		locksvc.NewLocalLocker(),
		emailsvc.NewConsoleService(conf, logger),
		validator,
		logger,
	)

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed: "+core.Reason(err), err)
		}
		os.Exit(1)
	}
}
