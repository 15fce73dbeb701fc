package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringValidator(t *testing.T) {
	cases := []struct {
		name    string
		v       *StringValidator
		input   string
		wantErr string
	}{
		{"title ok", TitleValidator, "Release notes", ""},
		{"title required", TitleValidator, "   ", "Title is required"},
		{"title angle bracket", TitleValidator, "a <b>", "Title cannot contain"},
		{"title quote", TitleValidator, `say "hi"`, "Title cannot contain"},
		{"title newline", TitleValidator, "line\nbreak", "Title cannot contain"},
		{"title too long", TitleValidator, strings.Repeat("x", 1001), "1000 characters or less"},
		{"body allows markup", BodyValidator, "<p>hello; world</p>", ""},
		{"optional reason empty", ReasonValidator, "", ""},
		{"forum name semicolon", ForumNameValidator, "a;b", "Name cannot contain"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.v.Validate(tc.input)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)

			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.v.Field, vErr.Field)
		})
	}
}

func TestEnumValidator(t *testing.T) {
	v := &EnumValidator{Field: "reason", Allowed: []string{"spam", "other"}}

	assert.NoError(t, v.Validate("spam"))
	assert.Error(t, v.Validate("bogus"))
	assert.Equal(t, "spam", v.Sanitize("  SPAM "))
}

func TestValidateAll(t *testing.T) {
	err := ValidateAll(
		func() error { return TitleValidator.Validate("ok") },
		func() error { return BodyValidator.Validate("") },
		func() error { t.Fatal("must stop at first failure"); return nil },
	)
	assert.EqualError(t, err, "Content is required")
}
