package auth

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/dhi/telemed/internal/model"
)

// ValidateEmail はメールアドレスが local@domain.tld の形式かを検証する。
func ValidateEmail(email string) bool {
	if !govalidator.StringLength(email, "3", "255") || !govalidator.IsEmail(email) {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// validateUsernameInput はローカル認証の入力を検証する。
func validateUsernameInput(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return invalidInput(model.NewMissingCredentialsError())
	}
	return nil
}

// validateEmailInput は委譲認証の入力を検証する。
func validateEmailInput(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return invalidInput(model.NewMissingCredentialsError())
	}
	if !ValidateEmail(email) {
		return invalidInput(model.NewInvalidEmailError())
	}
	return nil
}
