package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB // nil unless a command needs it
	usrSvc   *user.Service
	validate *validator.Validate
	plans    *catalog.Catalog
	carts    *cart.Registry
	out      io.Writer
	now      func() time.Time
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                   - run a goose migration command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [-role R] - create a user; the password is prompted next")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -email EMAIL               - reset user's password")
	_, _ = fmt.Fprintln(cli.out, "  plans [-category C]                      - list the catalog")
	_, _ = fmt.Fprintln(cli.out, "  exportplans [-dir DIR]                   - export the catalog as CSV")
	_, _ = fmt.Fprintln(cli.out, "  purgecart -owner USER_ID                 - erase a user's stored cart")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(label string) (string, error) {
	_, _ = fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	return string(pwd), err
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "One of admin, coach, student.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	plansCmd := flag.NewFlagSet("plans", flag.ContinueOnError)
	plansCategory := plansCmd.String("category", "", "Only list plans of this category.")

	exportPlansCmd := flag.NewFlagSet("exportplans", flag.ContinueOnError)
	exportPlansDir := exportPlansCmd.String("dir", ".", "Directory the CSV file is written to.")

	purgeCartCmd := flag.NewFlagSet("purgecart", flag.ContinueOnError)
	purgeCartOwner := purgeCartCmd.String("owner", "", "The id of the user whose cart is erased.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, plansCmd, exportPlansCmd, purgeCartCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		confirm, err := cli.promptPassword("Confirm password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, *addUserRole, pwd, confirm)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "plans":
		if err := plansCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.listPlans(*plansCategory)

	case "exportplans":
		if err := exportPlansCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		_, err := cli.exportPlans(*exportPlansDir)
		return err

	case "purgecart":
		if err := purgeCartCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *purgeCartOwner == "" {
			purgeCartCmd.Usage()
			return errHelp
		}
		return cli.purgeCart(*purgeCartOwner)

	default:
		cli.printUsage()
		return errHelp
	}
}
