package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the request rules and makes it
// report json field names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		mustRegister := func(tag string, fn validator.Func) {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic(fmt.Sprintf("failed to register validation tag %q: %v", tag, err))
			}
		}
		mustRegister("mobile", func(fl validator.FieldLevel) bool {
			normalized := models.NormalizeMobile(fl.Field().String())
			return normalized != nil && models.ValidMobile(*normalized)
		})
		mustRegister("password", func(fl validator.FieldLevel) bool {
			return models.ValidPasswordLength(fl.Field().String())
		})
		mustRegister("gender", func(fl validator.FieldLevel) bool {
			return models.NormalizeGender(fl.Field().String()).Valid()
		})
	})
}

// bindJSON decodes and validates the request body, translating failures into
// a *ValidationError.
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	return toValidationError(err)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &e.ValidationError{}
		for _, fe := range verrs {
			out.Add(fe.Field(), fieldMessage(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return e.NewValidationError(field, "has the wrong type")
	}
	if errors.Is(err, io.EOF) {
		return e.NewValidationError("body", "is required")
	}
	return e.NewValidationError("body", "must be valid JSON")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "eq":
		return fmt.Sprintf("must be %q", fe.Param())
	case "mobile":
		return "must be a valid phone number"
	case "gender":
		return "must be one of M, F, O"
	case "password":
		return fmt.Sprintf("must be %d to %d bytes long", models.MinPasswordLength, models.MaxPasswordLength)
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed on %q", fe.Tag())
	}
}
