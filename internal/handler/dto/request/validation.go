package request

import (
	"reflect"
	"sync"

	"studio-booking/internal/domain/pricing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by the request
// DTOs: hhmm (time of day, 24:00 allowed), weekday (MON..SUN) and isodate
// (YYYY-MM-DD).
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("hhmm", stringRule(func(s string) bool {
			_, err := pricing.ParseTimeOfDay(s)
			return err == nil
		}))
		_ = v.RegisterValidation("weekday", stringRule(func(s string) bool {
			_, err := pricing.ParseWeekday(s)
			return err == nil
		}))
		_ = v.RegisterValidation("isodate", stringRule(func(s string) bool {
			_, err := pricing.ParseDate(s)
			return err == nil
		}))
	})
}

func stringRule(ok func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return false
		}
		return ok(f.String())
	}
}
