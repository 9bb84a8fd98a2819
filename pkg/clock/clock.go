// Package clock: mesaj zaman damgaları için monoton saat.
//
// Aynı nanosaniyede iki mesaj gelirse ya da sistem saati geri giderse
// (NTP düzeltmesi) created_at sırası bozulmamalı. Monotonic her çağrıda
// bir öncekinden kesinlikle büyük bir zaman döner.
package clock

import (
	"sync"
	"time"
)

// Monotonic, kesin artan zaman damgası üretir. Sıfır değeri kullanıma hazır değil,
// NewMonotonic ile oluşturulmalı.
type Monotonic struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewMonotonic, constructor. now nil ise time.Now kullanılır (testlerde sahte saat verilebilir).
func NewMonotonic(now func() time.Time) *Monotonic {
	if now == nil {
		now = time.Now
	}
	return &Monotonic{now: now}
}

// Seed, saati daha önce verilmiş en yeni damgaya göre ilerletir; Next bundan
// sonra t'den büyük döner. Geri almaz.
func (m *Monotonic) Seed(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.After(m.last) {
		m.last = t.UTC()
	}
}

// Next, bir sonraki zaman damgasını döner (UTC, nanosaniye hassasiyetinde).
func (m *Monotonic) Next() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.now().UTC().Round(0)
	if !t.After(m.last) {
		t = m.last.Add(time.Nanosecond)
	}
	m.last = t
	return t
}
