package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/ws"
)

// heartbeatInterval, sunucunun read deadline'ından (90sn) kısa tutulur.
const heartbeatInterval = 30 * time.Second

// PushSink, gelen new_message event'lerini alan taraf (ör. *Store).
type PushSink interface {
	OnIncomingPush(msg models.Message)
}

type incomingEvent struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

// Subscribe, /ws'e bağlanır ve bağlantı kopana ya da ctx iptal edilene kadar
// new_message event'lerini sink'e iletir. Yeniden bağlanma caller'ın işi;
// kopuk kalınan sürede kaçan mesajlar bir sonraki RefreshSidebar ile gelir.
func Subscribe(ctx context.Context, wsURL, token string, sink PushSink) error {
	u, err := url.Parse(wsURL)
	if err != nil {
		return fmt.Errorf("invalid websocket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial websocket: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
			conn.Close()
		}
	}()
	go heartbeat(conn, stop)

	for {
		var ev incomingEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket closed: %w", err)
		}

		if ev.Op != ws.OpNewMessage {
			continue
		}
		var msg models.Message
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			log.Printf("[client] malformed new_message payload: %v", err)
			continue
		}
		sink.OnIncomingPush(msg)
	}
}

func heartbeat(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(ws.Event{Op: ws.OpHeartbeat}); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					log.Printf("[client] heartbeat failed: %v", err)
				}
				return
			}
		}
	}
}
