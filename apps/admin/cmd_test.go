package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/school"
	emailsvc "github.com/trezcool/roster/services/email"
	logsvc "github.com/trezcool/roster/services/logger"
	inmemdb "github.com/trezcool/roster/storage/database/inmem"
	"github.com/trezcool/roster/tests"
)

var (
	accRepo        school.Repository
	indexesEnsured int
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := &core.Config{TestMode: true, AppName: "Roster", DefaultFromEmail: "noreply@roster.test"}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// set up DB & repos
	accRepo = inmemdb.NewAccountRepository(inmemdb.Open())

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// start CLI
	var out bytes.Buffer
	indexesEnsured = 0
	return &commandLine{
		schoolSvc: school.NewService(accRepo, emailsvc.NewConsoleServiceMock(conf, logger)),
		ensureIndexes: func(context.Context) error {
			indexesEnsured++
			return nil
		},
		validate:   validate,
		translator: translator,
		out:        &out,
	}, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"addschool", "-username", "lol"}, wantErrStr: "flag provided but not defined: -username"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Errorf("usage not printed; got %q", out.String())
	}
}

func Test_commandLine_addSchool(t *testing.T) {
	cli, out := setup(t)
	testutil.CreateAccount(t, accRepo, "Taken", "School", "taken@school.test", "secret")

	valid := []string{"addschool", "-email", "Alpha@School.test", "-firstname", "Alpha", "-lastname", "School", "-mobile", "0123456789"}
	tests := []cliTest{
		{name: "no args", args: []string{"addschool"}, wantErr: errHelp},
		{name: "email but no password", args: valid, wantErr: errHelp},
		{
			name: "invalid", args: []string{"addschool", "-email", "lol", "-firstname", "Al", "-lastname", "School"}, extra: extra{pwd: "secret"},
			wantErrStr: "invalid school: email: email must have a valid format; firstName: firstName must be at least 5 characters long; mobileNumber: this field is required",
		},
		{name: "short password", args: valid, extra: extra{pwd: "abc"}, wantErrStr: "invalid school: password: password must be at least 5 characters long"},
		{
			name: "long password", args: valid, extra: extra{pwd: strings.Repeat("é", 40)},
			wantErrStr: "invalid school: password: password must be at most 72 bytes long",
		},
		{
			name: "email taken", args: []string{"addschool", "-email", "taken@school.test", "-firstname", "Alpha", "-lastname", "School", "-mobile", "0123456789"},
			extra: extra{pwd: "secret"}, wantErr: school.ErrEmailExists,
		},
		{name: "created", args: valid, extra: extra{pwd: "secret"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	acc, err := accRepo.GetAccountByEmail(context.Background(), "alpha@school.test")
	if err != nil {
		t.Fatalf("GetAccountByEmail() failed, %v", err)
	}
	if err = acc.CheckPassword("secret"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}
	if !strings.Contains(out.String(), "school alpha@school.test created with id "+acc.ID) {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err = cli.run([]string{"admin", "listschools"}); err != nil {
		t.Fatalf("listschools failed, %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out.String()), "\n"); len(lines) != 2 {
		t.Errorf("listschools printed %d lines; want 2: %q", len(lines), out.String())
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)

	acc := testutil.CreateAccount(t, accRepo, "Alpha", "School", "alpha@school.test", "secret")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol"}, wantErr: errHelp},
		{name: "school not found", args: []string{"resetpassword", "-email", "lol"}, extra: extra{pwd: "lolol"}, wantErr: school.ErrNotFound},
		{
			name: "short password", args: []string{"resetpassword", "-email", acc.Email}, extra: extra{pwd: "abc"},
			wantErrStr: "invalid password: password: password must be at least 5 characters long",
		},
		{
			name: "password over 72 bytes", args: []string{"resetpassword", "-email", acc.Email}, extra: extra{pwd: strings.Repeat("a", 73)},
			wantErrStr: "invalid password: password: password must be at most 72 bytes long",
		},
		{name: "reset", args: []string{"resetpassword", "-email", acc.Email}, extra: extra{pwd: "lmao1"}},
		{name: "reset with any case", args: []string{"resetpassword", "-email", "ALPHA@school.test"}, extra: extra{pwd: "lmao2"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err != nil || tt.extra == nil {
				return
			}
			refreshed, err := accRepo.GetAccount(context.Background(), acc.ID)
			if err != nil {
				t.Fatalf("GetAccount() failed, %v", err)
			}
			if refreshed.CheckPassword(tt.extra.(extra).pwd) != nil {
				t.Error("failed to update new password")
			}
		})
	}
}

func Test_commandLine_ensureIndexes(t *testing.T) {
	cli, out := setup(t)

	for i := 0; i < 2; i++ {
		if err := cli.run([]string{"admin", "ensureindexes"}); err != nil {
			t.Fatalf("ensureindexes failed, %v", err)
		}
	}
	if indexesEnsured != 2 {
		t.Errorf("indexes ensured %d times; want 2", indexesEnsured)
	}
	if !strings.Contains(out.String(), "indexes ensured") {
		t.Errorf("unexpected output %q", out.String())
	}
}
