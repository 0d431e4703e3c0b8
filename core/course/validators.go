package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	answerInOptionsTag  = "answer_in_options"
	answerInOptionsText = "answer must be one of the options"

	errDuplicatePosition = errors.New("positions must be unique")
	errFileRequired      = errors.New("one of file_url or link is required")
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, answerInOptionsTag, answerInOptionsText)
}

func questionStructValidation(sl validator.StructLevel) {
	nq, ok := sl.Current().Interface().(NewQuestion)
	if !ok || nq.Answer == "" {
		return
	}
	for _, opt := range nq.Options {
		if opt == nq.Answer {
			return
		}
	}
	sl.ReportError(nq.Answer, "answer", "Answer", answerInOptionsTag, "")
}
