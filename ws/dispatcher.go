package ws

import (
	"errors"
	"log"
	"sync/atomic"

	"github.com/akinalp/dmline/models"
)

// Dispatcher, log'a eklenmiş bir mesajı alıcının canlı kanalına iletir.
//
// Deliver sadece kuyruğa koyar, ağ yazımı client'ın WritePump'ında olur:
// HTTP yanıtı push'u beklemez. Aynı alıcıya giden event'ler Deliver çağrı
// sırasıyla kuyruğa girer, sıra korunur.
type Dispatcher struct {
	registry *Registry
	seq      atomic.Int64
}

// NewDispatcher, constructor.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Deliver, msg'yi alıcıya new_message event'i olarak iletmeye çalışır.
// Alıcı çevrimdışıysa ya da kanal bayatsa false döner; hata yutulur,
// mesaj log'da kalır ve alıcı bir sonraki fetch'te görür. Retry yok.
func (d *Dispatcher) Deliver(msg *models.Message) bool {
	ch, ok := d.registry.Lookup(msg.ReceiverID)
	if !ok {
		return false
	}

	err := ch.Send(Event{Op: OpNewMessage, Data: msg, Seq: d.seq.Add(1)})
	if err == nil {
		return true
	}

	if errors.Is(err, ErrChannelStale) {
		log.Printf("[ws] push dropped: message=%s receiver=%s: %v", msg.ID, msg.ReceiverID, err)
	} else {
		log.Printf("[ws] push failed: message=%s receiver=%s: %v", msg.ID, msg.ReceiverID, err)
	}
	return false
}
