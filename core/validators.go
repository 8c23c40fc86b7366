package core

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	mobileTag   = "mobile"
	mobileText  = "{0} must have exactly 10 digits"
	mobileRegex = regexp.MustCompile(`^[0-9]{10}$`)

	maxBytesTag  = "maxbytes"
	maxBytesText = "{0} must be at most {1} bytes long"
	intTag       = "int"
	intText      = "{0} is out of range"

	notBlankTag  = "notblank"
	requiredTag  = "required"
	requiredText = "this field is required"

	minTag      = "min"
	minText     = "{0} must be at least {1} characters long"
	emailTag    = "email"
	emailText   = "{0} must have a valid format"
	numberTag   = "number"
	numberText  = "{0} must be a numeric value"
	oneOfTag    = "oneof"
	oneOfText   = "{0} must be one of: {1}"
	eqFieldTag  = "eqfield"
	eqFieldText = "password and confirm password do not match"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(mobileTag, mobileValidation)
	RegisterCustomTranslation(validate, translator, mobileTag, mobileText)

	_ = validate.RegisterValidation(maxBytesTag, maxBytesValidation)
	RegisterCustomTranslation(validate, translator, maxBytesTag, maxBytesText)

	_ = validate.RegisterValidation(intTag, intValidation)
	RegisterCustomTranslation(validate, translator, intTag, intText)

	_ = validate.RegisterValidation(notBlankTag, validators.NotBlank)
	RegisterCustomTranslation(validate, translator, notBlankTag, requiredText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, minTag, minText, true)
	RegisterCustomTranslation(validate, translator, emailTag, emailText, true)
	RegisterCustomTranslation(validate, translator, numberTag, numberText, true)
	RegisterCustomTranslation(validate, translator, oneOfTag, oneOfText, true)
	RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// The text may reference the field name as {0} and the tag parameter as {1}.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// Cleaner is implemented by payloads that normalize their fields before being validated.
type Cleaner interface {
	Clean()
}

// Result is the outcome of checking a payload against its rule set.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Check validates payload and reports every violated rule at once, keyed by JSON field name.
// It never performs I/O: uniqueness is left to the store.
func Check(validate *validator.Validate, translator ut.Translator, payload interface{}) Result {
	if c, ok := payload.(Cleaner); ok {
		c.Clean()
	}
	err := validate.Struct(payload)
	if err == nil {
		return Result{Valid: true, Errors: map[string]string{}}
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return Result{Errors: TranslateFieldErrors(vErrs, translator)}
	}
	return Result{Errors: map[string]string{"payload": err.Error()}}
}

// TranslateFieldErrors maps validator errors to {field: message}.
func TranslateFieldErrors(vErrs validator.ValidationErrors, translator ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		if _, exists := fldErrs[vErr.Field()]; exists {
			continue
		}
		fldErrs[vErr.Field()] = vErr.Translate(translator)
	}
	return fldErrs
}

// FlexString is a string that may also be sent as a JSON number (e.g. mobile numbers, grades).
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// Custom Global Validators

// mobileValidation only allows exactly 10 decimal digits.
func mobileValidation(fl validator.FieldLevel) bool {
	return mobileRegex.MatchString(fl.Field().String())
}

// maxBytesValidation bounds the encoded length of a string, e.g. `maxbytes=72` for bcrypt input.
func maxBytesValidation(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

// intValidation only allows strings that parse to an int without overflowing.
func intValidation(fl validator.FieldLevel) bool {
	_, err := strconv.Atoi(fl.Field().String())
	return err == nil
}
