package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/atlantis/apps/api/echo"
	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/announcement"
	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/checkout"
	"github.com/trezcool/atlantis/core/reservation"
	"github.com/trezcool/atlantis/core/user"
	emailsvc "github.com/trezcool/atlantis/services/email"
	logsvc "github.com/trezcool/atlantis/services/logger"
	"github.com/trezcool/atlantis/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up logger
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug)
	//goland:noinspection GoUnhandledErrorResult
	defer logger.Sync()

	// set up DB
	var db *sqlx.DB
	if storage.NeedsDB(conf) {
		if db, err = storage.OpenDB(ctx, conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error("failed to close database", err)
			}
		}()
	}

	// set up catalog & storage
	plans := catalog.Default()
	if conf.Catalog.Path != "" {
		if plans, err = catalog.Load(conf.Catalog.Path); err != nil {
			logger.Fatal(fmt.Sprintf("loading catalog: %v", err), err)
		}
	}

	cartStorage, closeStorage, err := storage.NewCartStorage(ctx, conf, db)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cart storage: %v", err), err)
	}
	defer func() {
		if err = closeStorage(); err != nil {
			logger.Error("failed to close cart storage", err)
		}
	}()
	carts := cart.NewRegistry(cartStorage, conf.Cart.StorageKey, storage.CartOptions(conf, logger)...)

	repos, err := storage.NewRepositories(conf, db)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up repositories: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.Users)
	announcementSvc := announcement.NewService(announcement.Deps{
		Repo:     repos.Announcements,
		Audience: usrSvc,
		MailSvc:  mailSvc,
		Logger:   logger,
		AppName:  conf.AppName,
	})
	reservationSvc := reservation.NewService(repos.Reservations, usrSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	checkout.InitValidators(validate, translator)
	announcement.InitValidators(validate, translator)
	reservation.InitValidators(validate, translator)

	checkoutSvc := checkout.NewService(checkout.Deps{
		Validate:  validate,
		Processor: checkout.NewSimulatedProcessor(conf.Checkout.ProcessingDelay),
		MailSvc:   mailSvc,
		Logger:    logger,
		AppName:   conf.AppName,
		Currency:  plans.Currency(),
	})

	if err = bootstrapAdmin(conf, usrSvc, validate); err != nil {
		logger.Fatal(fmt.Sprintf("creating bootstrap admin: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("cartBackend").Set(conf.Cart.Backend)

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
			UserSvc:         usrSvc,
			Carts:           carts,
			Catalog:         plans,
			CheckoutSvc:     checkoutSvc,
			AnnouncementSvc: announcementSvc,
			ReservationSvc:  reservationSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	go func() {
		server.Start()
	}()

	if conf.Cart.IdleTimeout > 0 {
		go sweepCarts(carts, conf.Cart.IdleTimeout, logger)
	}

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

// sweepCarts evicts cached carts idle for longer than idle, checking every idle/2.
func sweepCarts(carts *cart.Registry, idle time.Duration, logger core.Logger) {
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for range ticker.C {
		if n := carts.Sweep(time.Now().Add(-idle)); n > 0 {
			logger.Debug(fmt.Sprintf("evicted %d idle carts", n))
		}
	}
}

// bootstrapAdmin creates the configured admin account unless its email is already taken.
func bootstrapAdmin(conf *core.Config, svc *user.Service, validate *validator.Validate) error {
	if conf.Admin.Email == "" {
		return nil
	}
	if _, err := svc.GetByEmail(core.CleanString(conf.Admin.Email, true /* lower */)); err == nil {
		return nil
	} else if errors.Cause(err) != user.ErrNotFound {
		return err
	}

	nu := user.NewUser{
		Name:            conf.Admin.Name,
		Email:           conf.Admin.Email,
		Role:            user.RoleAdmin,
		Password:        conf.Admin.Password,
		PasswordConfirm: conf.Admin.Password,
	}
	if err := nu.Validate(validate, svc); err != nil {
		return err
	}
	_, err := svc.Create(nu)
	return err
}
