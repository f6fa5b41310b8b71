package alias_test

import (
	"strings"
	"testing"

	"github.com/issafronov/shortener-front/internal/app/alias"
	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		alias string
		want  alias.Verdict
	}{
		{name: "empty", alias: "", want: alias.Empty},
		{name: "whitespace only", alias: "   \t", want: alias.Empty},
		{name: "too short", alias: "ab", want: alias.TooShort},
		{name: "too short after trim", alias: "  ab  ", want: alias.TooShort},
		{name: "min boundary", alias: "abc", want: alias.Valid},
		{name: "max boundary", alias: strings.Repeat("a", 30), want: alias.Valid},
		{name: "too long", alias: strings.Repeat("a", 31), want: alias.TooLong},
		{name: "too long wins over characters", alias: strings.Repeat("!", 31), want: alias.TooLong},
		{name: "too short wins over characters", alias: "!!", want: alias.TooShort},
		{name: "space inside", alias: "my link", want: alias.InvalidCharacters},
		{name: "dot", alias: "my.link", want: alias.InvalidCharacters},
		{name: "slash", alias: "a/b/c", want: alias.InvalidCharacters},
		{name: "non ascii letter", alias: "café", want: alias.InvalidCharacters},
		{name: "reserved", alias: "admin", want: alias.Reserved},
		{name: "reserved mixed case", alias: "LoGiN", want: alias.Reserved},
		{name: "reserved prefix is fine", alias: "admins", want: alias.Valid},
		{name: "hyphen and underscore", alias: "valid-name_1", want: alias.Valid},
		{name: "digits only", alias: "12345", want: alias.Valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alias.Check(tt.alias))
		})
	}
}

func TestCheck_AllReservedCasings(t *testing.T) {
	for _, w := range alias.ReservedWords {
		for _, v := range []string{w, strings.ToUpper(w), strings.ToUpper(w[:1]) + w[1:]} {
			assert.Equal(t, alias.Reserved, alias.Check(v), v)
			assert.True(t, alias.IsReserved(v), v)
		}
	}
}

func TestCheck_LengthCountsCharacters(t *testing.T) {
	// три символа, но больше трёх байт
	assert.Equal(t, alias.InvalidCharacters, alias.Check("ééé"))
	assert.Equal(t, alias.TooShort, alias.Check("éé"))
}

func TestCheck_Idempotent(t *testing.T) {
	for _, in := range []string{"", "ab", "admin", "good_one", "bad one", strings.Repeat("x", 40)} {
		first := alias.Check(in)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, alias.Check(in))
		}
	}
}

func TestValidate(t *testing.T) {
	assert.Equal(t, alias.Valid, alias.Validate("", false))
	assert.Equal(t, alias.Valid, alias.Validate("  ", false))
	assert.Equal(t, alias.Empty, alias.Validate("", true))
	assert.Equal(t, alias.TooShort, alias.Validate("ab", false))
	assert.Equal(t, alias.Reserved, alias.Validate("api", true))
}

func TestVerdictText(t *testing.T) {
	assert.Equal(t, "too_short", alias.TooShort.String())
	assert.Equal(t, "invalid_characters", alias.InvalidCharacters.String())
	assert.Empty(t, alias.Valid.Message())
	assert.Equal(t, "Custom URL looks good!", alias.Valid.Hint())
	for _, v := range []alias.Verdict{alias.Empty, alias.TooShort, alias.TooLong, alias.InvalidCharacters, alias.Reserved} {
		assert.NotEmpty(t, v.Message(), v.String())
	}
}
