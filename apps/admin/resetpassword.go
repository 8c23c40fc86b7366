package main

import (
	"context"
	"fmt"

	"github.com/trezcool/roster/core/school"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	if err := cli.check("password", &school.NewPassword{Password: pwd}); err != nil {
		return err
	}
	if err := cli.schoolSvc.SetPassword(context.Background(), email, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s updated\n", email)
	return nil
}
