// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Error karşılaştırması string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Domain-level error'lar.
// Handler katmanı bu error'ları HTTP status code'larına map'ler.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")

	// ErrValidation, istek doğrulamadan geçemedi (ör. ne metin ne ek var).
	// Yazma işleminden ÖNCE döner, DB'ye hiçbir şey yazılmaz.
	ErrValidation = errors.New("validation failed")

	// ErrStoreFailure, kalıcı katmandaki (SQLite) hata.
	// İstemciye genel bir 500 olarak döner, detay sadece log'a yazılır.
	ErrStoreFailure = errors.New("store failure")
)
