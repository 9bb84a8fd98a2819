package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/akinalp/dmline/pkg"
)

// UploadURLPrefix, kaydedilen dosyaların servis edildiği path.
const UploadURLPrefix = "/api/uploads/"

// sniffLen, MIME tespiti için okunan baş kısım (mimetype'ın varsayılan limiti).
const sniffLen = 3072

// UploadService, mesaj eklerini saklar ve mesajda taşınacak referans URL'yi döner.
type UploadService interface {
	Store(ctx context.Context, filename string, r io.Reader) (string, error)
}

type uploadService struct {
	uploadDir string
	maxSize   int64
}

// NewUploadService, constructor. uploadDir yoksa oluşturulur.
func NewUploadService(uploadDir string, maxSize int64) (UploadService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &uploadService{uploadDir: uploadDir, maxSize: maxSize}, nil
}

// allowedMimeTypes, yüklemeye izin verilen türler. Client'ın gönderdiği
// Content-Type'a değil, içerikten tespit edilen türe bakılır.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/webm":      true,
	"audio/mpeg":      true,
	"audio/ogg":       true,
	"application/pdf": true,
	"text/plain":      true,
}

func (s *uploadService) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", pkg.ErrValidation)
	}

	mime := mimetype.Detect(head)
	base, _, _ := strings.Cut(mime.String(), ";")
	if !allowedMimeTypes[base] {
		return "", fmt.Errorf("%w: file type not allowed: %s", pkg.ErrValidation, base)
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random filename: %w", err)
	}
	diskFilename := hex.EncodeToString(randomBytes) + "_" + sanitizeFilename(filename)
	destPath := filepath.Join(s.uploadDir, diskFilename)

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	// maxSize+1 byte okunabiliyorsa dosya limiti aşıyor demektir.
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxSize+1)
	written, copyErr := io.Copy(dest, body)
	closeErr := dest.Close()

	switch {
	case copyErr != nil:
		os.Remove(destPath)
		return "", fmt.Errorf("failed to save file: %w", copyErr)
	case closeErr != nil:
		os.Remove(destPath)
		return "", fmt.Errorf("failed to save file: %w", closeErr)
	case written > s.maxSize:
		os.Remove(destPath)
		return "", fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrValidation, s.maxSize/(1024*1024))
	}

	return UploadURLPrefix + diskFilename, nil
}

// sanitizeFilename, dizin yolunu ve tehlikeli karakterleri atar (../../etc/passwd gibi).
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' || r == ' ' {
			return '_'
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." || name == "/" {
		name = "unnamed"
	}
	return name
}
