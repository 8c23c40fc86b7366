package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/school"
)

// check runs payload through the API's rule set; violations are joined in field order.
func (cli *commandLine) check(what string, payload interface{}) error {
	res := core.Check(cli.validate, cli.translator, payload)
	if res.Valid {
		return nil
	}
	fields := make([]string, 0, len(res.Errors))
	for fld := range res.Errors {
		fields = append(fields, fld)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, fld := range fields {
		msgs = append(msgs, fld+": "+res.Errors[fld])
	}
	return errors.Errorf("invalid %s: %s", what, strings.Join(msgs, "; "))
}

// addSchool validates na the way signup does, then creates the account.
func (cli *commandLine) addSchool(na school.NewAccount) error {
	if err := cli.check("school", &na); err != nil {
		return err
	}

	acc, err := cli.schoolSvc.Signup(context.Background(), na)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "school %s created with id %s\n", acc.Email, acc.ID)
	return nil
}

func (cli *commandLine) listSchools() error {
	accounts, err := cli.schoolSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		fmt.Fprintf(cli.out, "%s\t%s\t%s %s\t%s\n", acc.ID, acc.Email, acc.FirstName, acc.LastName, acc.MobileNumber)
	}
	return nil
}
