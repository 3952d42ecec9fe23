package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// TimezoneName is the "timezone_name" binding validation: it accepts any
// zone the host zoneinfo database can load. The api package registers it
// on gin's binding engine.
func TimezoneName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
