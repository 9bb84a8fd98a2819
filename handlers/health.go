package handlers

import (
	"net/http"

	"github.com/akinalp/dmline/pkg"
)

// OnlineCounter, health yanıtındaki bağlı kullanıcı sayısı için.
type OnlineCounter interface {
	Len() int
}

// HealthHandler godoc
// GET /api/health
func HealthHandler(online OnlineCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkg.JSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"online": online.Len(),
		})
	}
}
