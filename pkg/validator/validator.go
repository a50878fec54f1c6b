// Package validator registers the custom binding rules used by the API
// request types.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// dniPattern accepts the numeric citizen ids issued in the city, one to
// eight digits.
var dniPattern = regexp.MustCompile(`^[0-9]{1,8}$`)

func validDNI(fl validator.FieldLevel) bool {
	return dniPattern.MatchString(fl.Field().String())
}

// Register installs the custom rules on gin's binding engine. Call once
// at startup.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("dni", validDNI)
}
