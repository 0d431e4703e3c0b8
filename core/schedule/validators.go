package schedule

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	weekdayTag  = "weekday_"
	weekdayText = "must be a day of the week"

	clockTag   = "clock_"
	clockText  = "must be a 24-hour time formatted as HH:MM"
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	ErrSlotTaken = errors.New("the engineer already has a slot at this day and time")
	errBadDay    = errors.New(weekdayText)
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(weekdayTag, func(fl validator.FieldLevel) bool {
		_, ok := ParseDay(fl.Field().String())
		return ok
	})
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)

	_ = validate.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		return clockRegex.MatchString(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, clockTag, clockText)
}
