package http

import (
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/sujalbistaa/blushbox/internal/models"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the custom binding tags used by the request
// structs to gin's shared validator.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			slog.Error("gin validator engine is not go-playground/validator")
			return
		}
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			slog.Error("register notblank validator", "err", err)
		}
		if err := v.RegisterValidation("mood", validMood); err != nil {
			slog.Error("register mood validator", "err", err)
		}
	})
}

func validMood(fl validator.FieldLevel) bool {
	_, ok := models.ParseMood(fl.Field().String())
	return ok
}
