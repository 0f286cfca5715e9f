package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/model"
)

// newValidator reports fields by their json names so messages read
// "username is required" rather than "Username is required".
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizeCredentials trims the username and validates both fields.
// The password is checked for whitespace-only content but never altered.
func normalizeCredentials(v *validator.Validate, username, password string) (model.Credentials, error) {
	creds := model.Credentials{
		Username: strings.TrimSpace(username),
		Password: password,
	}

	if creds.Username == "" {
		return creds, apperror.ValidationFailed("username", "username is required")
	}
	if strings.TrimSpace(creds.Password) == "" {
		return creds, apperror.ValidationFailed("password", "password is required")
	}

	if err := v.Struct(creds); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return creds, fieldError(verrs[0])
		}
		return creds, fmt.Errorf("service: validating credentials: %w", err)
	}
	return creds, nil
}

func fieldError(fe validator.FieldError) *apperror.AppError {
	switch fe.Tag() {
	case "required":
		return apperror.ValidationFailed(fe.Field(), fe.Field()+" is required")
	case "max":
		return apperror.ValidationFailed(fe.Field(), fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return apperror.ValidationFailed(fe.Field(), fe.Field()+" is invalid")
	}
}
