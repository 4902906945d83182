package client

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"signvault/internal/model"
	"signvault/internal/util"
)

// Сообщения форм, показываются пользователю как есть
const (
	msgNameTooShort     = "Name must be at least 2 characters"
	msgInvalidEmail     = "Enter a valid email address"
	msgPasswordTooShort = "Password must be at least 8 characters"
	msgPasswordMismatch = "Passwords don't match"
	msgPasswordRequired = "Password is required"
	msgOnlyPDF          = "Only PDF files allowed!"
	msgSignerRequired   = "Please enter your name and email."
)

type RegisterForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type LoginForm struct {
	Email    string
	Password string
}

// Validate : первая ошибка в порядке полей формы
func (f RegisterForm) Validate() error {
	if len([]rune(f.Name)) < 2 {
		return model.NewValidationError("name", msgNameTooShort)
	}
	if !util.IsValidEmail(f.Email) {
		return model.NewValidationError("email", msgInvalidEmail)
	}
	if len(f.Password) < 8 {
		return model.NewValidationError("password", msgPasswordTooShort)
	}
	if f.Password != f.ConfirmPassword {
		return model.NewValidationError("confirmPassword", msgPasswordMismatch)
	}
	return nil
}

func (f LoginForm) Validate() error {
	if !util.IsValidEmail(f.Email) {
		return model.NewValidationError("email", msgInvalidEmail)
	}
	if f.Password == "" {
		return model.NewValidationError("password", msgPasswordRequired)
	}
	return nil
}

// ValidateUpload : заявленный тип пустой, тогда решает сигнатура содержимого
func ValidateUpload(contentType string, content []byte) error {
	declared := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if declared != "" && !strings.EqualFold(declared, util.PDFMimeType) {
		return model.NewValidationError("file", msgOnlyPDF)
	}
	if !mimetype.Detect(content).Is(util.PDFMimeType) {
		return model.NewValidationError("file", msgOnlyPDF)
	}
	return nil
}

func ValidateSign(signerName, signerEmail string) error {
	if strings.TrimSpace(signerName) == "" || strings.TrimSpace(signerEmail) == "" {
		return model.NewValidationError("signer", msgSignerRequired)
	}
	return nil
}
