package users

import "strings"

const specialCharacters = "@.#$!%*?&"

// ValidatePasswordComplexity enforces the password rule applied when a
// password is changed: at least one lowercase letter, one uppercase letter,
// one digit, and one of the allowed special characters.
func ValidatePasswordComplexity(password string) error {
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialCharacters, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
