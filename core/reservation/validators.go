package reservation

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/atlantis/core"
)

var (
	dateTag  = "resdate"
	dateText = "invalid date, expected YYYY-MM-DD"

	timeTag  = "restime"
	timeText = "invalid time, expected HH:MM"

	statusTag  = "resstatus"
	statusText = "status must be one of upcoming, completed, cancelled"
)

// InitValidators registers the reservation validators and their messages.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(dateTag, layoutValidation(DateLayout))
	core.RegisterCustomTranslation(validate, translator, dateTag, dateText)

	_ = validate.RegisterValidation(timeTag, layoutValidation(TimeLayout))
	core.RegisterCustomTranslation(validate, translator, timeTag, timeText)

	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return IsValidStatus(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

func layoutValidation(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}
