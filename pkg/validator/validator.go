// Package validator configures the go-playground validator used by gin
// bindings and renders its failures as user-facing messages.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/pharmacy-api/internal/model"
)

var registerOnce sync.Once

// Register installs the json tag name func and the custom validations on
// gin's binding engine. It is safe to call more than once.
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected binding validator engine")
			return
		}
		err = Configure(v)
	})
	return err
}

// Configure adds the API's tag name func and custom validations to v.
func Configure(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("confirm_token", confirmToken); err != nil {
		return fmt.Errorf("register confirm_token: %w", err)
	}
	if err := v.RegisterValidation("role", validRole); err != nil {
		return fmt.Errorf("register role: %w", err)
	}
	return nil
}

func confirmToken(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) == model.DiscontinueConfirmation
}

func validRole(fl validator.FieldLevel) bool {
	return model.Role(fl.Field().String()).Valid()
}

// Messages turns a binding error into one message per failed field. It
// returns nil when err is not a validation failure.
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return msgs
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Le champ %s est requis", field)
	case "email":
		return fmt.Sprintf("Le champ %s doit être un email valide", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Le champ %s doit contenir au moins %s caractères", field, fe.Param())
		}
		return fmt.Sprintf("Le champ %s doit être supérieur ou égal à %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Le champ %s ne doit pas dépasser %s caractères", field, fe.Param())
		}
		return fmt.Sprintf("Le champ %s doit être inférieur ou égal à %s", field, fe.Param())
	case "confirm_token":
		return fmt.Sprintf("Confirmation invalide: saisissez %s", model.DiscontinueConfirmation)
	case "role":
		return fmt.Sprintf("Rôle invalide: %v", fe.Value())
	default:
		return fmt.Sprintf("Le champ %s est invalide", field)
	}
}
