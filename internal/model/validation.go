package model

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Snellen notation, e.g. 20/20 or 20/200.
var acuityPattern = regexp.MustCompile(`^20/\d{2,3}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("acuity", func(fl validator.FieldLevel) bool {
			return acuityPattern.MatchString(fl.Field().String())
		})
	}
}
