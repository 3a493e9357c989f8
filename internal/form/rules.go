// Package form implements field validation and per-screen form state for the auth flows.
package form

import (
	"regexp"
	"unicode/utf8"
)

// Field names used by the login and signup screens.
const (
	FieldFullname = "fullname"
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Minimum lengths (in characters).
const (
	MinPasswordLen = 6
	MinUsernameLen = 3
)

var emailShape = regexp.MustCompile(`\S+@\S+\.\S+`)

// Rule validates a single field.
type Rule struct {
	Field    string
	Required bool
	// RequiredMsg is reported for an empty required field.
	RequiredMsg string
	// Check runs on non-empty values and returns an error message or "".
	Check func(v string) string
}

// Rules is an ordered field-rule table.
type Rules []Rule

// Fields returns the field names covered by the table.
func (rs Rules) Fields() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Field)
	}
	return out
}

func minLen(n int, msg string) func(string) string {
	return func(v string) string {
		if utf8.RuneCountInString(v) < n {
			return msg
		}
		return ""
	}
}

var (
	emailRule = Rule{
		Field:       FieldEmail,
		Required:    true,
		RequiredMsg: "Email is required.",
		Check: func(v string) string {
			if !emailShape.MatchString(v) {
				return "Email is invalid."
			}
			return ""
		},
	}
	passwordRule = Rule{
		Field:       FieldPassword,
		Required:    true,
		RequiredMsg: "Password is required.",
		Check:       minLen(MinPasswordLen, "Password must be at least 6 characters."),
	}
	fullnameRule = Rule{
		Field:       FieldFullname,
		Required:    true,
		RequiredMsg: "Name is required.",
	}
	usernameRule = Rule{
		Field:       FieldUsername,
		Required:    true,
		RequiredMsg: "Username is required.",
		Check:       minLen(MinUsernameLen, "Username must be at least 3 characters."),
	}
)

// LoginRules covers the login screen.
var LoginRules = Rules{emailRule, passwordRule}

// SignupRules covers the registration screen.
var SignupRules = Rules{fullnameRule, usernameRule, emailRule, passwordRule}
