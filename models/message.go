package models

import (
	"strings"
	"time"
)

// Message, iki kullanıcı arasındaki tek bir mesaj. Log'a eklendikten sonra
// sadece Read (false → true) ve ReadAt değişir; düzenleme/silme yok.
type Message struct {
	ID            string     `json:"id"`
	SenderID      string     `json:"sender_id"`
	ReceiverID    string     `json:"receiver_id"`
	Text          *string    `json:"text"`           // Nullable, sadece ek içeren mesajlarda nil
	AttachmentURL *string    `json:"attachment_url"` // Nullable
	CreatedAt     time.Time  `json:"created_at"`
	Read          bool       `json:"read"`
	ReadAt        *time.Time `json:"read_at"`
}

// Counterpart, viewer açısından konuşmanın karşı tarafını döner.
func (m *Message) Counterpart(viewer string) string {
	if m.SenderID == viewer {
		return m.ReceiverID
	}
	return m.SenderID
}

// Between, mesajın a ile b arasında (iki yönden biri) olup olmadığını söyler.
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// SendMessageRequest, mesaj gönderme isteği.
// Text ve AttachmentURL'den en az biri dolu olmalı.
type SendMessageRequest struct {
	Text          string `json:"text" validate:"required_without=AttachmentURL,max=2000"`
	AttachmentURL string `json:"attachment_url" validate:"omitempty,max=1024"`
}

// Validate, Text'i kırpar ve kuralları uygular. Sadece boşluktan oluşan text boş sayılır.
func (r *SendMessageRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	r.AttachmentURL = strings.TrimSpace(r.AttachmentURL)
	if err := validate.Struct(r); err != nil {
		return describeValidation(err)
	}
	return nil
}

// ToMessage, doğrulanmış isteği sender → receiver mesajına çevirir.
// ID ve CreatedAt log'a eklenirken atanır.
func (r *SendMessageRequest) ToMessage(senderID, receiverID string) *Message {
	msg := &Message{SenderID: senderID, ReceiverID: receiverID}
	if r.Text != "" {
		text := r.Text
		msg.Text = &text
	}
	if r.AttachmentURL != "" {
		url := r.AttachmentURL
		msg.AttachmentURL = &url
	}
	return msg
}
