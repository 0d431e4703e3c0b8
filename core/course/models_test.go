package course

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
)

func newValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	t.Helper()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func fieldsOf(t *testing.T, err error, translator ut.Translator) []string {
	t.Helper()
	var flds []core.FieldError
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		flds = core.TranslateValidationErrors(e, translator)
	case *core.ValidationError:
		flds = e.Fields
	default:
		t.Fatalf("unexpected error %T: %v", err, err)
	}
	names := make([]string, 0, len(flds))
	for _, f := range flds {
		names = append(names, f.Field)
	}
	return names
}

func TestNewQuestion_Validate(t *testing.T) {
	validate, translator := newValidator(t)

	tests := []struct {
		name       string
		data       NewQuestion
		wantFields []string
	}{
		{name: "valid", data: NewQuestion{Text: "2+2?", Options: []string{"3", "4"}, Answer: " 4 "}},
		{name: "answer not in options", data: NewQuestion{Text: "2+2?", Options: []string{"3", "5"}, Answer: "4"}, wantFields: []string{"answer"}},
		{name: "one option", data: NewQuestion{Text: "2+2?", Options: []string{"4"}, Answer: "4"}, wantFields: []string{"options"}},
		{
			name:       "too many options",
			data:       NewQuestion{Text: "?", Options: []string{"1", "2", "3", "4", "5", "6", "7"}, Answer: "1"},
			wantFields: []string{"options"},
		},
		{name: "missing text", data: NewQuestion{Options: []string{"1", "2"}, Answer: "1"}, wantFields: []string{"text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantFields, fieldsOf(t, err, translator))
		})
	}
}

func TestNewResource_Validate(t *testing.T) {
	validate, translator := newValidator(t)

	t.Run("link takes precedence", func(t *testing.T) {
		nr := NewResource{Name: "Slides", FileURL: "https://files.test/a.pdf", Link: "https://link.test/b"}
		require.NoError(t, nr.Validate(validate))
		assert.Equal(t, "https://link.test/b", nr.FileURL)
	})

	t.Run("file url", func(t *testing.T) {
		nr := NewResource{Name: "Slides", FileURL: "https://files.test/a.pdf"}
		require.NoError(t, nr.Validate(validate))
		assert.Equal(t, "https://files.test/a.pdf", nr.FileURL)
	})

	t.Run("nothing attached", func(t *testing.T) {
		nr := NewResource{Name: "Slides"}
		err := nr.Validate(validate)
		require.Error(t, err)
		assert.Equal(t, []string{"file_url"}, fieldsOf(t, err, translator))
	})

	t.Run("short name", func(t *testing.T) {
		nr := NewResource{Name: "S", Link: "https://link.test/b"}
		err := nr.Validate(validate)
		require.Error(t, err)
		assert.Equal(t, []string{"name"}, fieldsOf(t, err, translator))
	})
}

func TestReorderSections_Validate(t *testing.T) {
	validate, translator := newValidator(t)

	rs := ReorderSections{List: []SectionPosition{{ID: "a", Position: 1}, {ID: "b", Position: 0}}}
	assert.NoError(t, rs.Validate(validate))

	rs = ReorderSections{List: []SectionPosition{{ID: "a", Position: 1}, {ID: "b", Position: 1}}}
	err := rs.Validate(validate)
	require.Error(t, err)
	assert.Equal(t, []string{"list"}, fieldsOf(t, err, translator))

	rs = ReorderSections{List: []SectionPosition{{ID: "a", Position: -1}}}
	err = rs.Validate(validate)
	require.Error(t, err)
	assert.Equal(t, []string{"position"}, fieldsOf(t, err, translator))

	rs = ReorderSections{}
	assert.Error(t, rs.Validate(validate))
}
