package main

import (
	"context"
	"fmt"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.findUser(ctx, uname, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username: uname,
			Email:    email,
		}
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if usr, err = cli.usrSvc.UpdateOrCreate(ctx, usr); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "User %s saved.\n", usr.ID)
	return nil
}

// findUser returns the first user matching one of the given usernames or emails.
func (cli *commandLine) findUser(ctx context.Context, unames ...string) (user.User, error) {
	for _, uname := range unames {
		if uname == "" {
			continue
		}
		usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
		if err != user.ErrNotFound {
			return usr, err
		}
	}
	return user.User{}, user.ErrNotFound
}
