// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// `json` tag'leri API'den gelen/giden verilerin şeklini, `validate` tag'leri
// ise go-playground/validator kurallarını belirler.
package models

import (
	"strings"
	"time"
)

// User, kimlik dizinindeki bir kullanıcı.
// Mesajlaşma çekirdeği sadece ID'yi kullanır; diğer alanlar sidebar'da gösterilir.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  *string   `json:"display_name"` // *string = nullable
	AvatarURL    *string   `json:"avatar_url"`
	PasswordHash string    `json:"-"` // API response'a DAHİL ETME
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserRequest, kayıt olurken frontend'den gelen veri.
// PasswordHash yerine Password alırız, hash'leme service katmanında yapılır.
type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=32,username"`
	Password    string `json:"password" validate:"required,min=8,max=72"` // bcrypt 72 byte'tan sonrasını yok sayar
	DisplayName string `json:"display_name" validate:"max=32"`
}

// Validate, boşlukları kırpar ve validator kurallarını uygular.
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if err := validate.Struct(r); err != nil {
		return describeValidation(err)
	}
	return nil
}

// LoginRequest, giriş isteği.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate, LoginRequest'in geçerli olup olmadığını kontrol eder.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if err := validate.Struct(r); err != nil {
		return describeValidation(err)
	}
	return nil
}
