//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel.go -package=mocks
package ws

import (
	"errors"

	"github.com/akinalp/dmline/models"
)

// ErrChannelStale, kanala event konulamadığında döner: bağlantı kapanmış ya da
// client kuyruğu dolu (yavaş tüketici). Dispatcher bu hatayı loglar ve yutar;
// alıcı eksik mesajı bir sonraki fetch'te görür.
var ErrChannelStale = errors.New("push channel is stale")

// Channel, tek bir kullanıcıya event iletebilen push kanalı.
// Send bloklamaz: event'i kuyruğa koyar ya da ErrChannelStale döner.
type Channel interface {
	Send(event Event) error
	Close()
}

// MessagePublisher, service katmanının yeni mesajı alıcıya iletmek için
// kullandığı interface. Service'ler Dispatcher'a değil buna bağımlıdır.
type MessagePublisher interface {
	Deliver(msg *models.Message) bool
}
