package student

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/roster/core"
)

// Genders
const (
	GenderFemale = "female"
	GenderMale   = "male"
	GenderOther  = "other"
)

// OrderableFields are the fields a listing may be ordered by.
var OrderableFields = map[string]bool{
	"firstName": true,
	"lastName":  true,
	"email":     true,
	"standard":  true,
	"createdAt": true,
}

type Student struct {
	ID           string    `json:"_id"`
	Owner        string    `json:"user,omitempty"` // Account that registered the student
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Standard     int       `json:"standard"`
	Division     string    `json:"division"`
	Gender       string    `json:"gender"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobileNumber"`
	Address      string    `json:"address"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

// Data is what a caller provides to add or update a Student.
// It binds from JSON bodies and from multipart forms (add/update with a profile image).
type Data struct {
	FirstName    string          `json:"firstName" form:"firstName" validate:"required,min=5"`
	LastName     string          `json:"lastName" form:"lastName" validate:"required,min=5"`
	Standard     core.FlexString `json:"standard" form:"standard" validate:"required,number,int"`
	Division     string          `json:"division" form:"division" validate:"required,notblank"`
	Gender       string          `json:"gender" form:"gender" validate:"required,oneof=female male other"`
	Email        string          `json:"email" form:"email" validate:"required,email"`
	MobileNumber core.FlexString `json:"mobileNumber" form:"mobileNumber" validate:"required,mobile"`
	Address      string          `json:"address" form:"address" validate:"required,min=3"`
}

func (d *Data) Clean() {
	d.FirstName = core.CleanString(d.FirstName)
	d.LastName = core.CleanString(d.LastName)
	d.Standard = core.FlexString(core.CleanString(d.Standard.String()))
	d.Division = core.CleanString(d.Division)
	d.Gender = core.CleanString(d.Gender, true /* lower */)
	d.Email = core.CleanString(d.Email, true /* lower */)
	d.MobileNumber = core.FlexString(core.CleanString(d.MobileNumber.String()))
	d.Address = core.CleanString(d.Address)
}

func (d *Data) Validate(validate *validator.Validate) error {
	d.Clean()
	return validate.Struct(d)
}

// apply copies validated Data onto s.
func (d Data) apply(s *Student) {
	s.FirstName = d.FirstName
	s.LastName = d.LastName
	s.Standard, _ = strconv.Atoi(d.Standard.String()) // checked by the int rule
	s.Division = d.Division
	s.Gender = d.Gender
	s.Email = d.Email
	s.MobileNumber = d.MobileNumber.String()
	s.Address = d.Address
}

// QueryFilter narrows a student listing.
// Search does a case-insensitive substring match on FirstName, LastName or Email,
// and an exact match on MobileNumber when it is made of digits only.
type QueryFilter struct {
	Search string `query:"search"`
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}

// IsNumeric reports whether the search term can match a mobile number.
func (f QueryFilter) IsNumeric() bool {
	if f.Search == "" {
		return false
	}
	for _, r := range f.Search {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Page is one window of a student listing.
type Page struct {
	Students    []Student `json:"students"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
	TotalCount  int64     `json:"totalCount"`
}
