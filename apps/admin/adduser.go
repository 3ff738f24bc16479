package main

import (
	"fmt"

	"github.com/trezcool/atlantis/core/user"
)

// addUser validates and creates an active user.User
func (cli *commandLine) addUser(name, email, role, pwd, confirm string) error {
	nu := user.NewUser{
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        pwd,
		PasswordConfirm: confirm,
	}
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "created %s %s (%s)\n", usr.Role, usr.Email, usr.ID)
	return nil
}
