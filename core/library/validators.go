package library

import (
	"github.com/go-playground/validator/v10"

	"github.com/mathmaster/cbcportal/core"
)

var (
	bookKindTag  = "bookkind"
	bookKindText = "invalid book type"
)

func init() {
	_ = core.Validate.RegisterValidation(bookKindTag, bookKindValidation)
	core.RegisterCustomTranslation(bookKindTag, bookKindText)
}

func bookKindValidation(fl validator.FieldLevel) bool {
	return core.ContainsString(AllBookKinds, fl.Field().String())
}
