package submit

import "github.com/and161185/framez/internal/errs"

// GenericMessage is shown for failures without a specific message.
const GenericMessage = "Something went wrong. Please try again."

var messages = map[string]string{
	errs.CodeUserNotFound:      "No account found with this email.",
	errs.CodeWrongPassword:     "Incorrect password. Please try again.",
	errs.CodeInvalidEmail:      "The email address is badly formatted.",
	errs.CodeUserDisabled:      "This account has been disabled.",
	errs.CodeTooManyRequests:   "Too many attempts. Please try again later.",
	errs.CodeEmailAlreadyInUse: "An account with this email already exists.",
	errs.CodeWeakPassword:      "Password must be at least 6 characters.",
}

// MessageFor maps a provider error code to the text shown to the user.
func MessageFor(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return GenericMessage
}
