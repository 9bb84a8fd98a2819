package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/pkg"
	"github.com/akinalp/dmline/pkg/ratelimit"
	"github.com/akinalp/dmline/services"
)

const (
	// multipartMemory, ParseMultipartForm'un bellekte tuttuğu kısım; fazlası temp dosyaya yazılır.
	multipartMemory = 8 << 20
	// maxJSONBody, JSON gönderim gövdesi için üst sınır.
	maxJSONBody = 16 << 10
)

// MessageHandler, konuşma geçmişi ve mesaj gönderme endpoint'leri.
type MessageHandler struct {
	messageService services.MessageService
	uploadService  services.UploadService
	sendLimiter    *ratelimit.Limiter
	maxUploadSize  int64
}

// NewMessageHandler, constructor. sendLimiter nil ise spam koruması kapalı.
func NewMessageHandler(
	messageService services.MessageService,
	uploadService services.UploadService,
	sendLimiter *ratelimit.Limiter,
	maxUploadSize int64,
) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		uploadService:  uploadService,
		sendLimiter:    sendLimiter,
		maxUploadSize:  maxUploadSize,
	}
}

// List godoc
// GET /api/messages/{peerId}
// Peer'den gelen okunmamış mesajları okundu yapar, iki yönlü geçmişi artan sırada döner.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	messages, err := h.messageService.OpenConversation(r.Context(), user.ID, r.PathValue("peerId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Send godoc
// POST /api/messages/{peerId}
//
// İki format:
//   - application/json: {"text": "...", "attachment_url": "..."}
//   - multipart/form-data: "text" alanı + opsiyonel "file" (önce diske kaydedilir)
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if h.sendLimiter != nil && !h.sendLimiter.Allow(user.ID) {
		retryAfter := h.sendLimiter.RetryAfterSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("you are sending messages too fast, please wait %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.SendMessageRequest
	if isMultipart(r.Header.Get("Content-Type")) {
		if err := h.parseMultipart(w, r, &req); err != nil {
			pkg.Error(w, err)
			return
		}
	} else if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageService.Send(r.Context(), user.ID, r.PathValue("peerId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}

// parseMultipart, form'daki metni ve varsa dosyayı request'e aktarır.
func (h *MessageHandler) parseMultipart(w http.ResponseWriter, r *http.Request, req *models.SendMessageRequest) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return fmt.Errorf("%w: failed to parse multipart form", pkg.ErrBadRequest)
	}
	req.Text = r.FormValue("text")

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to read file", pkg.ErrBadRequest)
	}
	defer file.Close()

	url, err := h.storeFile(r, file, header)
	if err != nil {
		return err
	}
	req.AttachmentURL = url
	return nil
}

func (h *MessageHandler) storeFile(r *http.Request, file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > h.maxUploadSize {
		return "", fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrValidation, h.maxUploadSize/(1024*1024))
	}
	return h.uploadService.Store(r.Context(), header.Filename, file)
}

// isMultipart, Content-Type'ın multipart/form-data olup olmadığını kontrol eder.
func isMultipart(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/form-data")
}
