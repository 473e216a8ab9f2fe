package server

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/smallbiznis/seatwise/internal/period"
)

var registerValidatorsOnce sync.Once

// RegisterValidators installs the domain enum tags on gin's binding validator.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(jsonFieldName)

		_ = v.RegisterValidation("period_type", func(fl validator.FieldLevel) bool {
			_, err := period.ParseType(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("insight_status", func(fl validator.FieldLevel) bool {
			return insightdomain.ValidStatus(fl.Field().String())
		})
		_ = v.RegisterValidation("insight_type", func(fl validator.FieldLevel) bool {
			return insightdomain.ValidType(fl.Field().String())
		})
		_ = v.RegisterValidation("billing_cycle", func(fl validator.FieldLevel) bool {
			return licensedomain.ValidBillingCycle(fl.Field().String())
		})
		_ = v.RegisterValidation("license_status", func(fl validator.FieldLevel) bool {
			return licensedomain.ValidStatus(fl.Field().String())
		})
	})
}

// jsonFieldName reports fields by their wire name in validation errors.
func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			continue
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
