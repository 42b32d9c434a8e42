package waitlist

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/akeren/rankly-signals/pkg/constants"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// local@domain.tld with no whitespace (including Unicode separators) and exactly one '@'.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// max counts code points, not UTF-16 units.
var emailRule = "required,max=" + strconv.Itoa(constants.MaxEmailLength) + ",waitlist_email"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("waitlist_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})

	return v
}

// NormalizeEmail trims surrounding whitespace and returns the trimmed address with its
// lowercased uniqueness key.
func NormalizeEmail(raw string) (email, emailLower string) {
	email = strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})

	// A Caser holds state, so one is created per call.
	return email, cases.Lower(language.Und).String(email)
}

func validateEmail(email string) error {
	return validate.Var(email, emailRule)
}
