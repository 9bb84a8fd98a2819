// Package ratelimit: anahtar bazlı (IP ya da userID) in-memory rate limiting.
//
// Aynı Limiter iki yerde kullanılır:
//   - login: key = client IP, başarılı girişte Reset
//   - mesaj gönderme: key = userID
//
// Bir pencere (window) içinde limit aşılırsa key cooldown süresince tamamen
// reddedilir. Tek instance deploy için in-memory yeterli; pkg/ratelimit
// hiçbir proje içi pakete bağımlı değildir.
package ratelimit

import (
	"sync"
	"time"
)

// bucket, bir key için pencere sayacı ve varsa ceza bitiş zamanı.
type bucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// Limiter, fixed window + cooldown rate limiter.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    int
	window   time.Duration
	cooldown time.Duration
	now      func() time.Time

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New, limiter oluşturur ve arka planda süresi dolmuş bucket'ları silen
// goroutine'i başlatır (uzun çalışan sunucuda map büyümesin).
//
// limit: pencere başına izin verilen istek sayısı.
// window: pencere süresi.
// cooldown: limit aşıldığında uygulanan ceza. 0 ise pencerenin kalanı beklenir.
func New(limit int, window, cooldown time.Duration) *Limiter {
	return newLimiter(limit, window, cooldown, time.Now)
}

func newLimiter(limit int, window, cooldown time.Duration, now func() time.Time) *Limiter {
	l := &Limiter{
		buckets:     make(map[string]*bucket),
		limit:       limit,
		window:      window,
		cooldown:    cooldown,
		now:         now,
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop(max(window, time.Second))
	return l
}

// Allow, isteği sayar ve kabul edilip edilmediğini döner.
// false dönerse caller 429 + Retry-After dönmeli.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		// Ceza bitti, temiz bir pencere başlat.
		*b = bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) >= l.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > l.limit {
		if l.cooldown > 0 {
			b.cooldownUntil = now.Add(l.cooldown)
		} else {
			b.cooldownUntil = b.windowStart.Add(l.window)
		}
		return false
	}
	return true
}

// Reset, key'in sayacını siler (ör. başarılı login sonrası).
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// RetryAfter, key şu an cezalıysa kalan süreyi döner, değilse 0.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || b.cooldownUntil.IsZero() {
		return 0
	}
	return max(b.cooldownUntil.Sub(l.now()), 0)
}

// RetryAfterSeconds, Retry-After header değeri: yukarı yuvarlanmış saniye.
func (l *Limiter) RetryAfterSeconds(key string) int {
	d := l.RetryAfter(key)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Close, temizleme goroutine'ini durdurur. Birden fazla çağrı güvenli.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() { close(l.stopCleanup) })
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup, penceresi de cezası da bitmiş bucket'ları siler.
// Cezadaki key'in bucket'ı silinirse ceza erken biterdi.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		windowExpired := now.Sub(b.windowStart) >= l.window
		cooldownExpired := b.cooldownUntil.IsZero() || !now.Before(b.cooldownUntil)
		if windowExpired && cooldownExpired {
			delete(l.buckets, key)
		}
	}
}
