package auth

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	minNameLen       = 2
	maxNameLen       = 50
	passwordSymbols  = "@$!%*?&"
)

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validateRegistration checks in field order and reports the first violated
// rule only.
func validateRegistration(in RegisterInput, allowAdmin bool) (domainauth.Role, error) {
	if err := validateEmail(in.Email); err != nil {
		return "", err
	}
	if err := validatePassword(in.Password); err != nil {
		return "", err
	}
	if err := validateName("firstName", in.FirstName); err != nil {
		return "", err
	}
	if err := validateName("lastName", in.LastName); err != nil {
		return "", err
	}

	if in.Role == "" {
		return domainauth.RoleUser, nil
	}
	role, err := domainauth.ParseRole(in.Role)
	if err != nil {
		return "", domainauth.Validation("role must be one of [user, admin]")
	}
	if role == domainauth.RoleAdmin && !allowAdmin {
		return "", domainauth.Validation("self-registration as admin is not allowed")
	}
	return role, nil
}

func validateEmail(email string) error {
	if email == "" {
		return domainauth.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return domainauth.Validation("email must be a valid email")
	}
	return nil
}

func validatePassword(pw string) error {
	if pw == "" {
		return domainauth.Validation("password is required")
	}
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return domainauth.Validation("password length must be at least %d characters long", minPasswordLen)
	}
	if len(pw) > maxPasswordBytes {
		return domainauth.Validation("password must be at most %d bytes long", maxPasswordBytes)
	}

	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	switch {
	case !lower:
		return domainauth.Validation("password must contain a lowercase letter")
	case !upper:
		return domainauth.Validation("password must contain an uppercase letter")
	case !digit:
		return domainauth.Validation("password must contain a digit")
	case !symbol:
		return domainauth.Validation("password must contain a special character (%s)", passwordSymbols)
	}
	return nil
}

func validateName(field, v string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	switch {
	case n == 0:
		return domainauth.Validation("%s is required", field)
	case n < minNameLen:
		return domainauth.Validation("%s length must be at least %d characters long", field, minNameLen)
	case n > maxNameLen:
		return domainauth.Validation("%s length must be at most %d characters long", field, maxNameLen)
	}
	return nil
}
