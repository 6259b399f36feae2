package validators

import "errors"

const (
	PasswordMinLen = 6
	// bcrypt ignores everything past 72 bytes
	PasswordMaxLen = 72
)

var (
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes long")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len([]rune(p)) < PasswordMinLen {
		return ErrPasswordTooShort
	}

	if len(p) > PasswordMaxLen {
		return ErrPasswordTooLong
	}

	return nil
}

// ConfirmValidator checks a confirmation field. An empty confirmation means
// the caller didn't ask for one.
func ConfirmValidator(p, confirm string) error {
	if confirm != "" && confirm != p {
		return ErrPasswordMismatch
	}

	return nil
}
