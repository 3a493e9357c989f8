package form

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_Pure(t *testing.T) {
	t.Parallel()
	values := map[string]string{FieldEmail: "bad", FieldPassword: "123"}
	touched := map[string]bool{FieldEmail: true, FieldPassword: true}

	a := Validate(LoginRules, values, touched)
	b := Validate(LoginRules, values, touched)
	require.Equal(t, a, b)
	require.Equal(t, "Email is invalid.", a[FieldEmail])
	require.Equal(t, "Password must be at least 6 characters.", a[FieldPassword])
	// inputs untouched
	require.Equal(t, "bad", values[FieldEmail])
}

func TestValidate_OnlyTouched(t *testing.T) {
	t.Parallel()
	values := map[string]string{}
	errs := Validate(SignupRules, values, map[string]bool{FieldUsername: true})
	require.Equal(t, Errors{FieldUsername: "Username is required."}, errs)
	require.False(t, IsValid(SignupRules, values, errs))

	none := Validate(SignupRules, values, map[string]bool{})
	require.Empty(t, none)
	require.False(t, IsValid(SignupRules, values, none), "untouched empty required fields block submit")
}

func TestValidate_Rules(t *testing.T) {
	t.Parallel()
	all := map[string]bool{FieldFullname: true, FieldUsername: true, FieldEmail: true, FieldPassword: true}
	cases := []struct {
		name   string
		values map[string]string
		want   Errors
	}{
		{
			name:   "valid",
			values: map[string]string{FieldFullname: "Ann", FieldUsername: "ann1", FieldEmail: "ann@x.com", FieldPassword: "secret1"},
			want:   Errors{},
		},
		{
			name:   "email without dot in domain",
			values: map[string]string{FieldFullname: "Ann", FieldUsername: "ann1", FieldEmail: "ann@x", FieldPassword: "secret1"},
			want:   Errors{FieldEmail: "Email is invalid."},
		},
		{
			name:   "short username",
			values: map[string]string{FieldFullname: "Ann", FieldUsername: "an", FieldEmail: "ann@x.com", FieldPassword: "secret1"},
			want:   Errors{FieldUsername: "Username must be at least 3 characters."},
		},
		{
			name:   "all empty",
			values: map[string]string{},
			want: Errors{
				FieldFullname: "Name is required.",
				FieldUsername: "Username is required.",
				FieldEmail:    "Email is required.",
				FieldPassword: "Password is required.",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(SignupRules, tc.values, all)
			require.Equal(t, tc.want, got)
			require.Equal(t, len(tc.want) == 0, IsValid(SignupRules, tc.values, got))
		})
	}
}

// IsValid is stricter than "no errors and required filled": a filled value
// must pass its rule even before the field is touched.
func TestIsValid_UntouchedFilledValueMustPassItsRule(t *testing.T) {
	t.Parallel()
	values := map[string]string{FieldEmail: "nope", FieldPassword: "secret1"}
	errs := Validate(LoginRules, values, map[string]bool{})
	require.Empty(t, errs)
	require.False(t, IsValid(LoginRules, values, errs))
}

func TestForm_Lifecycle(t *testing.T) {
	t.Parallel()
	f := New(LoginRules)
	require.False(t, f.IsValid())
	require.Empty(t, f.Errors())

	f.Set(FieldEmail, "a@b")
	require.Empty(t, f.Errors(), "no errors before blur")

	f.Blur(FieldEmail)
	require.Equal(t, "Email is invalid.", f.Errors()[FieldEmail])
	require.True(t, f.Touched(FieldEmail))
	require.False(t, f.Touched(FieldPassword))

	f.Set(FieldEmail, "a@b.co")
	f.Set(FieldPassword, "secret1")
	require.True(t, f.IsValid())

	f.Set(FieldPassword, "")
	f.TouchAll()
	require.Equal(t, Errors{FieldPassword: "Password is required."}, f.Errors())

	f.Reset()
	require.Equal(t, "", f.Value(FieldEmail))
	require.False(t, f.Touched(FieldEmail))
	require.Empty(t, f.Errors())
}

func TestRules_Fields(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{FieldEmail, FieldPassword}, LoginRules.Fields())
	require.Len(t, SignupRules.Fields(), 4)
}
