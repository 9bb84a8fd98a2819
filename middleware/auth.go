// Package middleware, handler'lardan önce çalışan ara katmanlar.
//
// Go'da middleware func(next http.Handler) http.Handler şeklindedir:
// kendi işini yapar, sorun yoksa next'i çağırır, varsa request burada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/dmline/handlers"
	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/pkg"
	"github.com/akinalp/dmline/repository"
)

// TokenValidator, middleware'ın AuthService'ten kullandığı tek metod.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	tokens   TokenValidator
	userRepo repository.UserRepository
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(tokens TokenValidator, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// Require, geçerli bir "Authorization: Bearer <token>" ister.
// Token geçerliyse kullanıcı DB'den yüklenir ve context'e eklenir;
// token geçerli ama kullanıcı silinmişse yine 401.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		claims, err := m.tokens.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
