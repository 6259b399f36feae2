package service

import "errors"

// Kind tells the transport how a failed operation should be reported.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindNotFound
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindDelivery:
		return "delivery"
	default:
		return "internal"
	}
}

// Error is returned by every service operation. Message is safe to show to
// the user; Err is the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	// Link is set on delivery failures so the caller can hand it out in-band
	Link string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and message, so the package
// level errors below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && t.Message == e.Message
}

var (
	ErrUserNotFound      = &Error{Kind: KindAuth, Message: "User not found"}
	ErrIncorrectPassword = &Error{Kind: KindAuth, Message: "Incorrect password"}
	ErrNotVerified       = &Error{Kind: KindAuth, Message: "Email not verified. Please check your inbox."}
	ErrAccountTaken      = &Error{Kind: KindConflict, Message: "Email or username already in use"}
	ErrNoAccountForEmail = &Error{Kind: KindNotFound, Message: "No account found with that email"}
	ErrResetTokenInvalid = &Error{Kind: KindNotFound, Message: "Invalid reset link"}
	ErrResetTokenUsed    = &Error{Kind: KindAuth, Message: "Reset link has already been used"}
	ErrResetTokenExpired = &Error{Kind: KindAuth, Message: "Reset link has expired"}
	ErrAccountMissing    = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrSelfAction        = &Error{Kind: KindValidation, Message: "Admins can't do that to their own account"}
	ErrInvalidRole       = &Error{Kind: KindValidation, Message: "Role must be user or admin"}
)

func validation(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

func internalErr(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf reports the kind of err, KindInternal for anything that isn't an
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}
