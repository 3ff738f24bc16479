package announcement

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/atlantis/core"
)

var (
	targetTag  = "announcementtarget"
	targetText = "target must be one of all, students, coaches"
)

// InitValidators registers the announcement validators and their messages.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(targetTag, func(fl validator.FieldLevel) bool {
		return IsValidTarget(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, targetTag, targetText)
}
