package validator

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxIdentifierLength = 180
	MinPasswordLength   = 6
	MaxPasswordLength   = 4096
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func (v ValidationErrors) Get(field string) string {
	return v[field]
}

// NormalizeUsername trims and NFKC-normalizes a username so visually
// identical names compare equal.
func NormalizeUsername(username string) string {
	return norm.NFKC.String(strings.TrimSpace(username))
}

// NormalizeEmail trims and case-folds an email address, local part
// included, so addresses differing only in case belong to one account.
func NormalizeEmail(email string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(email)))
}

// ValidateRegister expects normalized username and email.
func ValidateRegister(username, email, password, confirm string) ValidationErrors {
	errs := make(ValidationErrors)

	// Username
	if username == "" {
		errs.Add("username", "Please enter a username")
	} else if utf8.RuneCountInString(username) < 3 {
		errs.Add("username", "Your username should be at least 3 characters")
	} else if utf8.RuneCountInString(username) > MaxIdentifierLength {
		errs.Add("username", "Your username is too long")
	} else if strings.ContainsFunc(username, isControl) {
		errs.Add("username", "Your username contains invalid characters")
	}

	// Email
	if email == "" {
		errs.Add("email", "Please enter an email")
	} else if utf8.RuneCountInString(email) > MaxIdentifierLength {
		errs.Add("email", "Your email is too long")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs.Add("email", "This value is not a valid email address.")
	}

	// Password
	validatePassword(password, confirm, errs)

	return errs
}

func ValidateLogin(identifier, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(identifier) == "" {
		errs.Add("identifier", "Please enter your username")
	}

	if password == "" {
		errs.Add("password", "Please enter your password")
	}

	return errs
}

func validatePassword(password, confirm string, errs ValidationErrors) {
	if password != confirm {
		errs.Add("password", "The password fields must match.")
		return
	}

	if password == "" {
		errs.Add("password", "Please enter a password")
	} else if utf8.RuneCountInString(password) < MinPasswordLength {
		errs.Add("password", "Your password should be at least 6 characters")
	} else if len(password) > MaxPasswordLength {
		errs.Add("password", "Your password is too long")
	}
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
