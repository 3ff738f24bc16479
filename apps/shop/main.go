package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/checkout"
	logsvc "github.com/trezcool/atlantis/services/logger"
	filestore "github.com/trezcool/atlantis/storage/file"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("shop"), conf)
	logger.Enable(!conf.Debug)

	// ctrl+c aborts a pending payment
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, conf, logger)
	stop()
	os.Exit(code)
}

func runMain(ctx context.Context, conf *core.Config, logger *logsvc.RollbarLogger) int {
	//goland:noinspection GoUnhandledErrorResult
	defer logger.Sync()

	plans, err := catalog.Load(conf.Catalog.Path)
	if err != nil {
		logger.Error(fmt.Sprintf("loading catalog: %v", err), err)
		return 1
	}

	// the local shop always keeps its single cart on disk
	storage, err := filestore.New(conf.Cart.FileDir)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up cart storage: %v", err), err)
		return 1
	}
	carts := cart.NewRegistry(storage, conf.Cart.StorageKey, cart.WithLogger(logger))

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	checkout.InitValidators(validate, translator)

	cli := commandLine{
		engine: carts.Get(ctx, ""),
		plans:  plans,
		checkoutSvc: checkout.NewService(checkout.Deps{
			Validate:  validate,
			Processor: checkout.NewSimulatedProcessor(conf.Checkout.ProcessingDelay),
			Logger:    logger,
			AppName:   conf.AppName,
			Currency:  plans.Currency(),
		}),
		translator: translator,
		out:        os.Stdout,
	}
	if err = cli.run(ctx, os.Args); err != nil {
		switch err {
		case errHelp, errInvalidForm:
		default:
			_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
			logger.Debug("shop command failed", err)
		}
		return 1
	}
	return 0
}
