package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/library"
	"github.com/mathmaster/cbcportal/core/portal"
	"github.com/mathmaster/cbcportal/core/tutor"
	"github.com/mathmaster/cbcportal/core/user"
	aisvc "github.com/mathmaster/cbcportal/services/ai"
	emailsvc "github.com/mathmaster/cbcportal/services/email"
	logsvc "github.com/mathmaster/cbcportal/services/logger"
	prefssvc "github.com/mathmaster/cbcportal/services/prefs"
	"github.com/mathmaster/cbcportal/storage/database"
	sqlxrepos "github.com/mathmaster/cbcportal/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig(core.Getwd("cbcportal"))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewConsoleLogger(
		log.New(os.Stderr, "PORTAL : ", log.LstdFlags),
	)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err))
	}
	defer db.Close()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	catalogSvc := catalog.NewService(sqlxrepos.NewCatalogRepository(db))

	app := &portalApp{
		conf:       conf,
		logger:     logger,
		usrSvc:     user.NewService(conf, sqlxrepos.NewUserRepository(db), mailSvc),
		catalogSvc: catalogSvc,
		librarySvc: library.NewService(sqlxrepos.NewLibraryRepository(db)),
		tutorSvc:   tutor.NewService(aisvc.NewClient(conf), logger),
		prefs:      prefssvc.NewStore(conf),
		nav:        portal.NewNavigator(catalogSvc, logger),
		in:         bufio.NewScanner(os.Stdin),
	}
	if err := app.run(); err != nil {
		logger.Fatal(fmt.Sprintf("portal exited: %v", err))
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

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
