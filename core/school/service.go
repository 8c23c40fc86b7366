package school

import (
	"context"
	"errors"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/roster/core"
)

var (
	ErrNotFound           = core.NewNotFoundError("User not found")
	ErrEmailExists        = core.NewDuplicateKeyError("email", "Email already exists.")
	ErrInvalidCredentials = core.NewValidationError(errors.New("Invalid email or password."))
)

type (
	Repository interface {
		// CreateAccount fails with ErrEmailExists when the email is taken.
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		QueryAccounts(ctx context.Context) ([]Account, error)
		GetAccount(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		// UpdateAccount fails with ErrEmailExists when another account holds the email.
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
		DeleteAccount(ctx context.Context, id string) (Account, error)
	}

	Service interface {
		Signup(ctx context.Context, na NewAccount) (Account, error)
		Authenticate(ctx context.Context, creds Credentials) (Account, error)
		QueryAll(ctx context.Context) ([]Account, error)
		GetByID(ctx context.Context, id string) (Account, error)
		GetByEmail(ctx context.Context, email string) (Account, error)
		Update(ctx context.Context, id string, ua UpdateAccount) (Account, error)
		SetPassword(ctx context.Context, email, pwd string) error
		Delete(ctx context.Context, id string) (Account, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{repo: repo, mailSvc: mailSvc}
}

func (svc *service) Signup(ctx context.Context, na NewAccount) (Account, error) {
	now := time.Now().UTC()
	acc := Account{
		FirstName:    na.FirstName,
		LastName:     na.LastName,
		Email:        na.Email,
		MobileNumber: na.MobileNumber.String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, pkgerrors.Wrap(err, "hashing password")
	}
	acc, err := svc.repo.CreateAccount(ctx, acc)
	if err != nil {
		return Account{}, err
	}
	svc.sendWelcomeMail(acc)
	return acc, nil
}

func (svc *service) sendWelcomeMail(acc Account) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.FirstName + " " + acc.LastName, Address: acc.Email}},
		Subject:      "Welcome aboard",
		TemplateName: "welcome",
		TemplateData: acc.Public(),
	})
}

func (svc *service) Authenticate(ctx context.Context, creds Credentials) (Account, error) {
	acc, err := svc.repo.GetAccountByEmail(ctx, core.CleanString(creds.Email, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, pkgerrors.Wrap(err, "finding account by email")
	}
	if err = acc.CheckPassword(creds.Password); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAccounts(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccount(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Update(ctx context.Context, id string, ua UpdateAccount) (Account, error) {
	acc, err := svc.repo.GetAccount(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acc.FirstName = ua.FirstName
	acc.LastName = ua.LastName
	acc.Email = ua.Email
	acc.MobileNumber = ua.MobileNumber.String()
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

func (svc *service) SetPassword(ctx context.Context, email, pwd string) error {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = acc.SetPassword(pwd); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateAccount(ctx, acc)
	return err
}

func (svc *service) Delete(ctx context.Context, id string) (Account, error) {
	return svc.repo.DeleteAccount(ctx, id)
}
