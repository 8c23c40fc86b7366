package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/school"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	schoolSvc     school.Service
	ensureIndexes func(ctx context.Context) error
	validate      *validator.Validate
	translator    ut.Translator
	out           io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  addschool -email EMAIL -firstname NAME -lastname NAME -mobile MOBILE - create a school account")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset a school's password")
	fmt.Fprintln(cli.out, "  listschools - list every school account")
	fmt.Fprintln(cli.out, "  ensureindexes - create the database indexes")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ContinueOnError)
	addSchoolCmd.SetOutput(cli.out)
	addSchoolEmail := addSchoolCmd.String("email", "", "The school's email. The password will be prompted next.")
	addSchoolFirst := addSchoolCmd.String("firstname", "", "The first name of the school's contact.")
	addSchoolLast := addSchoolCmd.String("lastname", "", "The last name of the school's contact.")
	addSchoolMobile := addSchoolCmd.String("mobile", "", "The school's 10 digit mobile number.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The school's email. The password will be prompted next.")

	switch args[1] {
	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolEmail == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		return cli.addSchool(school.NewAccount{
			FirstName:       *addSchoolFirst,
			LastName:        *addSchoolLast,
			Email:           *addSchoolEmail,
			Password:        pwd,
			ConfirmPassword: pwd,
			MobileNumber:    core.FlexString(*addSchoolMobile),
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "listschools":
		return cli.listSchools()

	case "ensureindexes":
		if err := cli.ensureIndexes(context.Background()); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "indexes ensured")
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
