package main

import (
	"context"
	"fmt"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

// addAdmin creates an approved administrator; admins cannot be provisioned over the API.
func (cli *commandLine) addAdmin(name, email, pwd string) error {
	p, err := cli.registrationSvc.CreateAdmin(context.Background(), user.NewAdmin{Name: name, Email: email, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Printf("admin %s <%s> created\n", p.Name, p.Email)
	return nil
}
