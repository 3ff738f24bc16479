package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/user"
	logsvc "github.com/trezcool/atlantis/services/logger"
	"github.com/trezcool/atlantis/storage"
	"github.com/trezcool/atlantis/storage/database"
)

func main() {
	conf := core.NewConfig()
	ctx := context.Background()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(!conf.Debug)

	os.Exit(runMain(ctx, conf, logger))
}

func runMain(ctx context.Context, conf *core.Config, logger *logsvc.RollbarLogger) int {
	//goland:noinspection GoUnhandledErrorResult
	defer logger.Sync()

	// set up DB: migrate manages the schema itself
	var db *sqlx.DB
	var err error
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if db, err = database.Open(conf.Database); err == nil {
			err = database.Ping(ctx, db, 10)
		}
	} else if storage.NeedsDB(conf) {
		db, err = storage.OpenDB(ctx, conf)
	}
	if err != nil {
		logger.Error(fmt.Sprintf("setting up database: %v", err), err)
		return 1
	}
	if db != nil {
		//goland:noinspection GoUnhandledErrorResult
		defer db.Close()
	}

	plans, err := catalog.Load(conf.Catalog.Path)
	if err != nil {
		logger.Error(fmt.Sprintf("loading catalog: %v", err), err)
		return 1
	}

	cartStorage, closeStorage, err := storage.NewCartStorage(ctx, conf, db)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up cart storage: %v", err), err)
		return 1
	}
	//goland:noinspection GoUnhandledErrorResult
	defer closeStorage()

	repos, err := storage.NewRepositories(conf, db)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up repositories: %v", err), err)
		return 1
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:       db,
		usrSvc:   user.NewService(repos.Users),
		validate: validate,
		plans:    plans,
		carts:    cart.NewRegistry(cartStorage, conf.Cart.StorageKey, storage.CartOptions(conf, logger)...),
		out:      os.Stdout,
		now:      time.Now,
	}
	if err = cli.run(os.Args); err != nil {
		var vErrs validator.ValidationErrors
		switch {
		case err == errHelp:
		case errors.As(err, &vErrs):
			for fld, msg := range core.TranslateErrors(vErrs, translator) {
				_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", fld, msg)
			}
		default:
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		return 1
	}
	return 0
}
