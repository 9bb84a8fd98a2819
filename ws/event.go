// Package ws, push kanalı: websocket bağlantıları, kimlik → kanal kaydı (Registry)
// ve yeni mesajların alıcıya iletilmesi (Dispatcher).
//
// Event akışı:
//  1. Kullanıcı mesaj gönderir → HTTP POST → MessageService → message log
//  2. MessageService, Dispatcher.Deliver çağırır
//  3. Dispatcher alıcının kanalını Registry'den bulur, event'i kuyruğa koyar
//  4. Client'ın WritePump'ı event'i websocket'e yazar
//  5. Karşı taraftaki client.Store event'i OnIncomingPush ile uygular
package ws

// Event, websocket üzerinden iletilen bir mesaj.
//
// Op: event türü ("new_message", "heartbeat" vb.)
// Data: event'e özgü payload
// Seq: server → client event'lerinde süreç genelinde artan sayaç. Bir kanaldaki
// event'ler artan Seq ile gelir; alıcılar arası paylaşıldığı için boşluklar normaldir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server
const (
	OpHeartbeat = "heartbeat" // client her 30sn'de gönderir
)

// Server → Client
const (
	OpReady        = "ready"         // bağlantı kaydedildikten sonra ilk event
	OpHeartbeatAck = "heartbeat_ack" // heartbeat yanıtı
	OpNewMessage   = "new_message"   // alıcıya yeni mesaj, payload models.Message
)

// ReadyData, ready event'inin payload'ı.
type ReadyData struct {
	UserID string `json:"user_id"`
}
