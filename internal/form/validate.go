package form

// Errors maps a field name to its visible error message.
type Errors map[string]string

// Validate applies rules to touched fields only. It is pure: the same inputs
// always yield the same result.
func Validate(rules Rules, values map[string]string, touched map[string]bool) Errors {
	errs := Errors{}
	for _, r := range rules {
		if !touched[r.Field] {
			continue
		}
		v := values[r.Field]
		if v == "" {
			if r.Required {
				errs[r.Field] = r.RequiredMsg
			}
			continue
		}
		if r.Check != nil {
			if msg := r.Check(v); msg != "" {
				errs[r.Field] = msg
			}
		}
	}
	return errs
}

// IsValid reports whether a form may be submitted: no visible errors and
// every required field non-empty, touched or not. Non-empty untouched values
// must also pass their checks, so a form is never submittable with a value
// that would fail once shown.
func IsValid(rules Rules, values map[string]string, errs Errors) bool {
	if len(errs) != 0 {
		return false
	}
	for _, r := range rules {
		v := values[r.Field]
		if v == "" {
			if r.Required {
				return false
			}
			continue
		}
		if r.Check != nil && r.Check(v) != "" {
			return false
		}
	}
	return true
}
