package main

import (
	"context"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	id, err := cli.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := user.ValidatePassword(pwd, id.Email); err != nil {
		return err
	}
	return cli.identities.SetPassword(ctx, id.ID, pwd)
}
