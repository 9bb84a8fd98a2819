package ws

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/akinalp/dmline/models"
)

// TokenValidator, websocket handler'ın JWT doğrulaması için ihtiyaç duyduğu
// tek metod. services.AuthService bunu implicit olarak karşılar; ws paketinin
// services'e bağımlı olmaması için burada tanımlı.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// Handler, GET /ws isteklerini websocket'e yükseltir ve registry'ye bağlar.
type Handler struct {
	registry       *Registry
	tokenValidator TokenValidator
	sendBuffer     int
	upgrader       websocket.Upgrader
}

// NewHandler, constructor. allowedOrigins "*" içeriyorsa her origin kabul edilir.
func NewHandler(registry *Registry, tokenValidator TokenValidator, sendBuffer int, allowedOrigins []string) *Handler {
	allowAll := len(allowedOrigins) == 0 || lo.Contains(allowedOrigins, "*")
	return &Handler{
		registry:       registry,
		tokenValidator: tokenValidator,
		sendBuffer:     sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || lo.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleConnection, bağlantıyı kabul eder ve kapanana kadar bloklar.
//
// Tarayıcıdan websocket açarken header gönderilemediği için token
// query parameter'ında gelir: ws://server/ws?token=JWT
//
// Akış: token doğrula → upgrade → Bind → ready → pump'lar → kopunca Unbind.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := newClient(conn, claims.UserID, h.sendBuffer)
	h.registry.Bind(claims.UserID, client)

	go client.WritePump()

	if err := client.Send(Event{Op: OpReady, Data: ReadyData{UserID: claims.UserID}}); err != nil {
		log.Printf("[ws] failed to send ready to user %s: %v", claims.UserID, err)
	}

	client.ReadPump()

	// Sadece hâlâ güncel bağlantıysak kaydı sil; yerimize yeni bağlantı geldiyse dokunma.
	h.registry.Unbind(claims.UserID, client)
	client.Close()
}
