package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Bağlantı sabitleri
const (
	// writeWait: tek bir mesajı yazmak için maksimum süre, aşılırsa bağlantı kapanır.
	writeWait = 10 * time.Second

	// pongWait: client'tan heartbeat beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: client'ın gönderebileceği maksimum mesaj boyutu (byte).
	// Mesaj içeriği HTTP ile gider, websocket sadece kontrol mesajları taşır.
	maxMessageSize = 4096

	// DefaultSendBuffer: client başına kuyrukta bekleyebilecek event sayısı.
	DefaultSendBuffer = 256
)

// Client, tek bir websocket bağlantısı. Channel interface'ini karşılar.
//
// Her bağlantı için iki goroutine vardır:
//   - ReadPump: client'tan gelen heartbeat'leri okur (handler goroutine'inde)
//   - WritePump: send kuyruğunu websocket'e yazar
//
// gorilla/websocket aynı anda bir okuyucu ve bir yazıcıya izin verir.
type Client struct {
	conn   *websocket.Conn
	userID string

	// send, WritePump'ın tükettiği kuyruk. Sadece Close kapatır.
	send chan []byte

	// mu, closed bayrağını ve send'e yazmayı korur: kapalı channel'a
	// yazma panic'ini önler.
	mu     sync.Mutex
	closed bool

	writeMu sync.Mutex // conn.WriteMessage çağrılarını korur
}

func newClient(conn *websocket.Conn, userID string, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	return &Client{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, bufferSize),
	}
}

// Send, event'i kuyruğa koyar. Bloklamaz.
// Kuyruk doluysa client donmuş sayılır: bağlantı kapatılır ve ErrChannelStale döner.
func (c *Client) Send(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelStale
	}

	select {
	case c.send <- data:
		return nil
	default:
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		c.closeLocked()
		return ErrChannelStale
	}
}

// Close, kuyruğu kapatır; WritePump close frame yazıp çıkar. Birden fazla çağrı güvenli.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump, bağlantı kapanana kadar client'tan gelen event'leri okur.
// Döndüğünde bağlantı ölüdür; çağıran Unbind ve Close yapmalı.
func (c *Client) ReadPump() {
	c.conn.SetReadLimit(maxMessageSize)

	// Bu süre içinde mesaj gelmezse ReadMessage hata verir, her heartbeat yeniler.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		switch event.Op {
		case OpHeartbeat:
			if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
				return
			}
			if err := c.Send(Event{Op: OpHeartbeatAck}); err != nil {
				return
			}
		default:
			log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
		}
	}
}

// WritePump, kuyruktaki event'leri sırayla websocket'e yazar.
// Kuyruk kapanınca close frame gönderir ve bağlantıyı kapatır.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
