package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate, paket genelinde paylaşılan validator. validator.Validate struct
// metadata'sını cache'ler, goroutine-safe'dir; her istekte yeniden oluşturulmaz.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Hata mesajlarında struct field adı yerine JSON adı görünsün.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, ch := range fl.Field().String() {
			if !isValidUsernameChar(ch) {
				return false
			}
		}
		return true
	})
	return v
}

// describeValidation, validator hatasını kullanıcıya gösterilebilir tek satıra çevirir.
// İlk hatalı alan yeterli; frontend zaten alan bazlı kontrol yapıyor.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "required_without":
		return fmt.Errorf("%s or %s is required", field, snakeCase(fe.Param()))
	case "min":
		return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
	case "username":
		return fmt.Errorf("%s can only contain letters, numbers, and underscores", field)
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}

// snakeCase, "AttachmentURL" → "attachment_url". Sadece required_without
// parametresi (struct field adı) için kullanılır.
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// isValidUsernameChar, username'de izin verilen karakterleri kontrol eder.
func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
