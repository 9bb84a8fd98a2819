package ws

import (
	"log"
	"sync"
)

// Registry, kimlik → canlı push kanalı eşlemesi. Her kimlik için en fazla bir
// kanal tutulur; aynı kullanıcı yeniden bağlanırsa son bağlanan kazanır.
//
// Tek bir RWMutex ile korunan map: Lookup (her mesajda) okuma, Bind/Unbind
// (bağlan/kop) yazma. Paket global'i değildir, main'de oluşturulup enjekte edilir.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Channel
}

// NewRegistry, boş bir registry oluşturur.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]Channel)}
}

// Bind, identity'yi ch'ye bağlar ve varsa önceki kanalı döner.
// Önceki kanal bilgilendirilmez ve kapatılmaz; sadece artık push almaz.
func (r *Registry) Bind(identity string, ch Channel) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.bindings[identity]
	r.bindings[identity] = ch

	if prev != nil && prev != ch {
		log.Printf("[ws] binding replaced: user=%s", identity)
		return prev
	}
	log.Printf("[ws] client bound: user=%s (online: %d)", identity, len(r.bindings))
	return nil
}

// Unbind, identity'nin bağlı kanalı hâlâ ch ise kaydı siler ve true döner.
// Eski bir bağlantının geç gelen disconnect'i yeni bağlantıyı silmez.
func (r *Registry) Unbind(identity string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.bindings[identity]; !ok || current != ch {
		return false
	}
	delete(r.bindings, identity)
	log.Printf("[ws] client unbound: user=%s (online: %d)", identity, len(r.bindings))
	return true
}

// Lookup, identity'nin güncel kanalını döner.
func (r *Registry) Lookup(identity string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.bindings[identity]
	return ch, ok
}

// OnlineUserIDs, kanalı olan tüm kimlikleri döner (sıra garanti değil).
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	return ids
}

// Len, bağlı kimlik sayısı.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Shutdown, tüm kanalları kapatır ve kaydı boşaltır (graceful shutdown).
func (r *Registry) Shutdown() {
	r.mu.Lock()
	bindings := r.bindings
	r.bindings = make(map[string]Channel)
	r.mu.Unlock()

	for _, ch := range bindings {
		ch.Close()
	}
	log.Printf("[ws] registry shut down, %d connections closed", len(bindings))
}
