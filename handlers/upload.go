package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/akinalp/dmline/pkg"
	"github.com/akinalp/dmline/services"
)

// UploadHandler, mesajdan bağımsız dosya yükleme.
// Dönen URL daha sonra SendMessageRequest.AttachmentURL olarak kullanılır.
type UploadHandler struct {
	uploadService services.UploadService
	maxUploadSize int64
}

// NewUploadHandler, constructor.
func NewUploadHandler(uploadService services.UploadService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxUploadSize: maxUploadSize}
}

// Upload godoc
// POST /api/upload (multipart, "file" alanı)
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "file field is required")
		return
	}
	if err != nil {
		pkg.Error(w, fmt.Errorf("%w: failed to read file", pkg.ErrBadRequest))
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		pkg.Error(w, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrValidation, h.maxUploadSize/(1024*1024)))
		return
	}

	url, err := h.uploadService.Store(r.Context(), header.Filename, file)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]string{"url": url})
}
