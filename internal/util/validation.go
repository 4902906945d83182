package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"signvault/internal/model"
)

const PDFMimeType = "application/pdf"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// fieldLabels : человекочитаемые имена полей для сообщений об ошибках
var fieldLabels = map[string]string{
	"name":         "Name",
	"email":        "Email",
	"password":     "Password",
	"signerName":   "Signer name",
	"signerEmail":  "Signer email",
	"reason":       "Reason",
	"refreshToken": "Refresh token",
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct : проверяет validate-теги, первая ошибка возвращается как model.ValidationError
func ValidateStruct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		return model.NewValidationError(fe.Field(), messageFor(fe))
	}
	return model.NewValidationError("", err.Error())
}

func messageFor(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// IsValidEmail : синтаксическая проверка адреса
func IsValidEmail(email string) bool {
	return validatorInstance().Var(email, "required,email") == nil
}

// IsPDF : проверяет и заявленный Content-Type, и сигнатуру содержимого
func IsPDF(declaredType string, content []byte) bool {
	declared := strings.TrimSpace(strings.SplitN(declaredType, ";", 2)[0])
	if !strings.EqualFold(declared, PDFMimeType) {
		return false
	}
	return mimetype.Detect(content).Is(PDFMimeType)
}
