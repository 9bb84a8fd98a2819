// Package cache: generic in-memory TTL cache.
//
// Sadece nadiren değişen, kaybedilmesi sorun olmayan veriler için:
// şu an mesaj gönderirken alıcı kullanıcının varlık kontrolü. Okunmamış
// sayaçları ve son aktivite gibi türetilmiş değerler ASLA buraya konmaz,
// her istekte message log'dan hesaplanır.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, thread-safe generic TTL cache.
//
//	peers := cache.New[string, *models.User](time.Minute, 5*time.Minute)
//	defer peers.Close()
//	u, err := peers.GetOrLoad(id, func() (*models.User, error) { return repo.GetByID(ctx, id) })
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New, cache oluşturur ve cleanupInterval aralığıyla süresi dolanları silen
// goroutine'i başlatır. Get süresi dolmuş entry döndürmez; periyodik silme
// sadece belleği geri kazanmak için.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	return newWithClock[K, V](ttl, cleanupInterval, time.Now)
}

func newWithClock[K comparable, V any](ttl, cleanupInterval time.Duration, now func() time.Time) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		now:         now,
		stopCleanup: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get, (value, true) döner eğer key varsa ve süresi dolmamışsa.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, değeri TTL ile yazar.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// GetOrLoad, cache'te varsa döner, yoksa load'u çağırıp sonucu yazar.
// load hata dönerse hiçbir şey cache'lenmez (negatif sonuçlar dahil):
// yeni kayıt olan bir kullanıcı bir sonraki çağrıda hemen görünür.
//
// Aynı key için eşzamanlı iki miss iki kez load çağırabilir; değerler
// idempotent okumalar olduğu için kabul edilebilir.
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Delete, key'i siler.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len, toplam entry sayısı (süresi dolmuş ama henüz silinmemişler dahil).
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close, temizleme goroutine'ini durdurur. Birden fazla çağrı güvenli.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
