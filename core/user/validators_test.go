package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		attrs   []string
		wantTag string
	}{
		{name: "too short", pwd: "abc12", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "correct horse", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "similar to email", pwd: "alice@test.cd", attrs: []string{"Alice", "alice@test.cd"}, wantTag: pwdAttrSimTag},
		{name: "similar to name (case insensitive)", pwd: "KingKong", attrs: []string{"kingkong"}, wantTag: pwdAttrSimTag},
		{name: "valid", pwd: "correct-horse-42", attrs: []string{"Alice", "alice@test.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTag, CheckPassword(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	nu := NewUser{Name: "  Alice ", Email: " ALICE@Test.cd ", Password: "correct-horse-42"}
	if assert.NoError(t, nu.Validate(validate)) {
		assert.Equal(t, "Alice", nu.Name)
		assert.Equal(t, "alice@test.cd", nu.Email)
	}

	nu = NewUser{Name: "Alice", Email: "not-an-email", Password: "short"}
	err := nu.Validate(validate)
	vErrs, ok := err.(validator.ValidationErrors)
	if assert.True(t, ok, "want validator.ValidationErrors; got %T", err) {
		flds := core.TranslateValidationErrors(vErrs, translator)
		assert.Equal(t, []core.FieldError{
			{Field: "email", Error: "email must be a valid email address"},
			{Field: "password", Error: pwdMinLenText},
		}, flds)
	}
}
