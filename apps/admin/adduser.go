package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/user"
)

// addUser creates an active user.User, or reactivates the existing one with a new password.
func (cli *commandLine) addUser(email, pwd string) error {
	ctx := context.Background()
	now := time.Now().UTC()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	exists := err == nil
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{Email: email, CreatedAt: now}
	}

	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
