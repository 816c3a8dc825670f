package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

var validate = validator.New()

const (
	minPasswordLen = 6
	// bcrypt rejects longer inputs.
	maxPasswordLen = 72
)

// validateIdentityFields trims and checks a name/email pair.
func validateIdentityFields(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return "", "", domain.NewValidationError("name, email and password are required")
	}
	if err := validateEmail(email); err != nil {
		return "", "", err
	}
	return name, email, nil
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.NewValidationError("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return domain.NewValidationError("name, email and password are required")
	case len(password) < minPasswordLen:
		return domain.NewValidationError(fmt.Sprintf("password must be at least %d characters long", minPasswordLen))
	case len(password) > maxPasswordLen:
		return domain.NewValidationError(fmt.Sprintf("password must be at most %d bytes long", maxPasswordLen))
	}
	return nil
}

// resolveRole applies the default role and rejects unknown labels.
func resolveRole(raw string) (domain.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.DefaultRole, nil
	}
	role, ok := domain.ParseRole(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidRole, raw)
	}
	return role, nil
}
