package domain

import (
	"identity-platform/backend/internal/apperr"
)

const minPasswordLength = 12

// ValidatePassword enforces the password policy: at least 12 characters with an uppercase letter,
// a lowercase letter, a digit and a symbol.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Wrap(apperr.ErrInvalidPassword, "password must be at least 12 characters", nil)
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper {
		return apperr.Wrap(apperr.ErrInvalidPassword, "password must contain at least one uppercase letter", nil)
	}
	if !hasLower {
		return apperr.Wrap(apperr.ErrInvalidPassword, "password must contain at least one lowercase letter", nil)
	}
	if !hasNumber {
		return apperr.Wrap(apperr.ErrInvalidPassword, "password must contain at least one number", nil)
	}
	if !hasSymbol {
		return apperr.Wrap(apperr.ErrInvalidPassword, "password must contain at least one symbol", nil)
	}
	return nil
}
