package school

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/roster/core"
)

// Account is a school: the tenant that signs in and manages a roster of students.
type Account struct {
	ID           string    `json:"_id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobileNumber"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// Public returns the fields exposed right after signup.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Email:        a.Email,
		MobileNumber: a.MobileNumber,
	}
}

type PublicAccount struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
}

// NewAccount contains information needed to sign up.
type NewAccount struct {
	FirstName       string          `json:"firstName" validate:"required,min=5"`
	LastName        string          `json:"lastName" validate:"required,min=5"`
	Email           string          `json:"email" validate:"required,email"`
	Password        string          `json:"password" validate:"required,min=5,maxbytes=72"`
	ConfirmPassword string          `json:"confirmPassword" validate:"eqfield=Password"`
	MobileNumber    core.FlexString `json:"mobileNumber" validate:"required,mobile"`
}

func (na *NewAccount) Clean() {
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.MobileNumber = core.FlexString(core.CleanString(na.MobileNumber.String()))
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Clean()
	return validate.Struct(na)
}

// Credentials are used to sign in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5,maxbytes=72"`
}

func (c *Credentials) Clean() {
	c.Email = core.CleanString(c.Email, true /* lower */)
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Clean()
	return validate.Struct(c)
}

// NewPassword replaces the password of an existing Account.
// bcrypt only hashes the first 72 bytes, and rejects longer input.
type NewPassword struct {
	Password string `json:"password" validate:"required,min=5,maxbytes=72"`
}

// UpdateAccount defines what information may be provided to modify an existing Account.
type UpdateAccount struct {
	FirstName    string          `json:"firstName" validate:"required,min=5"`
	LastName     string          `json:"lastName" validate:"required,min=5"`
	Email        string          `json:"email" validate:"required,email"`
	MobileNumber core.FlexString `json:"mobileNumber" validate:"required,mobile"`
}

func (ua *UpdateAccount) Clean() {
	ua.FirstName = core.CleanString(ua.FirstName)
	ua.LastName = core.CleanString(ua.LastName)
	ua.Email = core.CleanString(ua.Email, true /* lower */)
	ua.MobileNumber = core.FlexString(core.CleanString(ua.MobileNumber.String()))
}

func (ua *UpdateAccount) Validate(validate *validator.Validate) error {
	ua.Clean()
	return validate.Struct(ua)
}
