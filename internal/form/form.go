package form

// Form is the state of one screen's input fields. It is owned by a single
// screen and is not safe for concurrent use.
type Form struct {
	rules   Rules
	values  map[string]string
	touched map[string]bool
	errors  Errors
}

// New creates an empty form for the given rule table.
func New(rules Rules) *Form {
	f := &Form{rules: rules}
	f.Reset()
	return f
}

// Rules returns the rule table the form validates against.
func (f *Form) Rules() Rules { return f.rules }

// Set updates a field value and recomputes errors.
func (f *Form) Set(field, value string) {
	f.values[field] = value
	f.recompute()
}

// Blur marks a field as touched, as when it loses focus.
func (f *Form) Blur(field string) {
	f.touched[field] = true
	f.recompute()
}

// TouchAll marks every field touched so that all errors become visible.
func (f *Form) TouchAll() {
	for _, r := range f.rules {
		f.touched[r.Field] = true
	}
	f.recompute()
}

// Value returns the current text of a field.
func (f *Form) Value(field string) string { return f.values[field] }

// Values returns a copy of all field values.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Touched reports whether a field has been touched.
func (f *Form) Touched(field string) bool { return f.touched[field] }

// Errors returns a copy of the visible errors.
func (f *Form) Errors() Errors {
	out := make(Errors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// IsValid reports whether the form may be submitted.
func (f *Form) IsValid() bool { return IsValid(f.rules, f.values, f.errors) }

// Reset clears values, touched flags and errors.
func (f *Form) Reset() {
	f.values = make(map[string]string, len(f.rules))
	f.touched = make(map[string]bool, len(f.rules))
	for _, r := range f.rules {
		f.values[r.Field] = ""
		f.touched[r.Field] = false
	}
	f.errors = Errors{}
}

func (f *Form) recompute() {
	f.errors = Validate(f.rules, f.values, f.touched)
}
