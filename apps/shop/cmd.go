package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"golang.org/x/term"

	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/checkout"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	engine      *cart.Engine
	plans       *catalog.Catalog
	checkoutSvc *checkout.Service
	translator  ut.Translator
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  plans [-category C]                  - list the plans on sale")
	_, _ = fmt.Fprintln(cli.out, "  show                                 - show the cart")
	_, _ = fmt.Fprintln(cli.out, "  add -plan ID                         - add a plan to the cart")
	_, _ = fmt.Fprintln(cli.out, "  remove -plan ID                      - remove a plan from the cart")
	_, _ = fmt.Fprintln(cli.out, "  update -plan ID -delta N             - change the quantity of a plan by N")
	_, _ = fmt.Fprintln(cli.out, "  clear                                - empty the cart")
	_, _ = fmt.Fprintln(cli.out, "  checkout -name -email -phone -card -holder -expiry")
	_, _ = fmt.Fprintln(cli.out, "                                       - pay for the cart; the CVV is prompted next")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	plansCmd := flag.NewFlagSet("plans", flag.ContinueOnError)
	plansCategory := plansCmd.String("category", "", "Only list plans of this category.")

	addCmd := flag.NewFlagSet("add", flag.ContinueOnError)
	addPlan := addCmd.String("plan", "", "The id of the plan to add.")

	removeCmd := flag.NewFlagSet("remove", flag.ContinueOnError)
	removePlan := removeCmd.String("plan", "", "The id of the plan to remove.")

	updateCmd := flag.NewFlagSet("update", flag.ContinueOnError)
	updatePlan := updateCmd.String("plan", "", "The id of the plan to update.")
	updateDelta := updateCmd.Int("delta", 0, "Quantity change, e.g. 1 or -1.")

	checkoutCmd := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var form checkout.Form
	checkoutCmd.StringVar(&form.Name, "name", "", "Your full name.")
	checkoutCmd.StringVar(&form.Email, "email", "", "The email the receipt is sent to.")
	checkoutCmd.StringVar(&form.Phone, "phone", "", "Your phone number.")
	checkoutCmd.StringVar(&form.CardNumber, "card", "", "The card number.")
	checkoutCmd.StringVar(&form.CardHolder, "holder", "", "The name on the card.")
	checkoutCmd.StringVar(&form.Expiry, "expiry", "", "The card expiry date, MM/YY.")

	for _, fs := range []*flag.FlagSet{plansCmd, addCmd, removeCmd, updateCmd, checkoutCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "plans":
		if err := plansCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.listPlans(*plansCategory)

	case "show":
		return cli.show()

	case "add":
		if err := addCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addPlan == "" {
			addCmd.Usage()
			return errHelp
		}
		return cli.add(ctx, *addPlan)

	case "remove":
		if err := removeCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *removePlan == "" {
			removeCmd.Usage()
			return errHelp
		}
		return cli.remove(ctx, *removePlan)

	case "update":
		if err := updateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *updatePlan == "" || *updateDelta == 0 {
			updateCmd.Usage()
			return errHelp
		}
		return cli.update(ctx, *updatePlan, *updateDelta)

	case "clear":
		return cli.clear(ctx)

	case "checkout":
		if err := checkoutCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		_, _ = fmt.Fprint(cli.out, "CVV:")
		cvv, err := readPasswordFunc(int(syscall.Stdin))
		_, _ = fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		form.CVV = string(cvv)
		return cli.checkout(ctx, form)

	default:
		cli.printUsage()
		return errHelp
	}
}
