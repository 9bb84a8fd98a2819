package client

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/akinalp/dmline/models"
)

var (
	// ErrSendInFlight, önceki gönderim bitmeden yeni gönderim denendiğinde döner.
	ErrSendInFlight = errors.New("a send is already in progress")
	// ErrSuperseded, fetch sonucu daha yeni bir istek tarafından geçersiz kılındı.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrNoConversation, açık konuşma yokken gönderim denendiğinde döner.
	ErrNoConversation = errors.New("no conversation selected")
	// ErrStopped, Run döndükten sonra yapılan çağrılar için.
	ErrStopped = errors.New("store stopped")
)

// tentativePrefix, sunucu yanıtı gelene kadar listede duran mesajın geçici ID öneki.
const tentativePrefix = "pending-"

// Notifier, kullanıcıya gösterilecek hatalar için.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc, fonksiyonu Notifier'a çevirir.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

// State, Store'un dışarı verdiği anlık görüntü.
type State struct {
	Messages               []models.Message
	Conversations          []models.ConversationSummary
	SelectedPeer           string
	IsMessagesLoading      bool
	IsConversationsLoading bool
	IsSending              bool
}

// state, sadece Run goroutine'inden erişilen iç durum.
type state struct {
	State

	// openSeq, her OpenConversation'da artar; eski fetch sonuçları bununla ayıklanır.
	openSeq uint64
	// refreshSeq / appliedRefresh, üst üste binen sidebar fetch'leri için.
	refreshSeq     uint64
	appliedRefresh uint64
	// refreshPushes, fetch sürerken gelen push'lar; snapshot'ın üstüne yeniden uygulanır.
	refreshPushes map[uint64][]models.Message
	// refreshSends, fetch sürerken onaylanan kendi gönderimlerimiz.
	refreshSends map[uint64][]models.Message
}

// Store, konuşma listesi ve açık konuşma için tek sahipli durum.
//
// Tüm değişiklikler Run'ın goroutine'inde sırayla uygulanır. Ağ çağrıları
// bu döngünün dışında yapılır, sonuçları yine komut olarak döngüye döner.
// Böylece push, fetch sonucu ve kullanıcı eylemleri asla aynı anda state'e dokunmaz.
type Store struct {
	api      API
	notifier Notifier
	viewerID string
	now      func() time.Time

	cmds    chan func(*state)
	stopped chan struct{}
}

// NewStore, constructor. viewerID, tentative mesajların sender'ı olarak kullanılır.
func NewStore(api API, notifier Notifier, viewerID string) *Store {
	if notifier == nil {
		notifier = NotifierFunc(func(error) {})
	}
	return &Store{
		api:      api,
		notifier: notifier,
		viewerID: viewerID,
		now:      time.Now,
		cmds:     make(chan func(*state)),
		stopped:  make(chan struct{}),
	}
}

// Run, komut döngüsünü ctx iptal edilene kadar çalıştırır. Tek sefer çağrılmalı.
func (s *Store) Run(ctx context.Context) {
	defer close(s.stopped)

	st := &state{
		refreshPushes: make(map[uint64][]models.Message),
		refreshSends:  make(map[uint64][]models.Message),
	}
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.cmds:
			cmd(st)
		}
	}
}

// do, f'yi döngüde çalıştırır ve bitmesini bekler.
func (s *Store) do(ctx context.Context, f func(*state)) error {
	done := make(chan struct{})
	cmd := func(st *state) {
		defer close(done)
		f(st)
	}

	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-s.stopped:
		return ErrStopped
	}
}

// Snapshot, state'in kopyasını döner.
func (s *Store) Snapshot(ctx context.Context) (State, error) {
	var out State
	err := s.do(ctx, func(st *state) {
		out = st.State
		out.Messages = slices.Clone(st.Messages)
		out.Conversations = slices.Clone(st.Conversations)
	})
	return out, err
}

// OpenConversation, peer'i seçer ve geçmişini yükler.
//
// Seçim anında mesaj listesi boşaltılır ve peer'in unread'i iyimser olarak 0 olur.
// Fetch dönerken başka bir peer seçilmişse sonuç atılır (ErrSuperseded).
// Fetch sırasında bu peer'den gelen push'lar ID ile birleştirilir.
// Hata durumunda unread geri yüklenir ve Notifier çağrılır; arada yeni bir
// sidebar snapshot'ı uygulandıysa sayım zaten sunucudan gelmiştir, dokunulmaz.
func (s *Store) OpenConversation(ctx context.Context, peerID string) error {
	var (
		seq         uint64
		prevUnread  int
		baseRefresh uint64
	)
	err := s.do(ctx, func(st *state) {
		st.openSeq++
		seq = st.openSeq
		baseRefresh = st.appliedRefresh
		st.SelectedPeer = peerID
		st.Messages = []models.Message{}
		st.IsMessagesLoading = true
		if i := st.conversationIndex(peerID); i >= 0 {
			prevUnread = st.Conversations[i].UnreadCount
			st.Conversations[i].UnreadCount = 0
		}
	})
	if err != nil {
		return err
	}

	history, fetchErr := s.api.Messages(ctx, peerID)

	var result error
	err = s.do(context.WithoutCancel(ctx), func(st *state) {
		if seq != st.openSeq {
			result = ErrSuperseded
			return
		}
		st.IsMessagesLoading = false

		if fetchErr != nil {
			if i := st.conversationIndex(peerID); i >= 0 && st.appliedRefresh == baseRefresh {
				st.Conversations[i].UnreadCount += prevUnread
			}
			result = fetchErr
			return
		}

		st.Messages = mergeMessages(history, st.Messages)
		if i := st.conversationIndex(peerID); i >= 0 {
			st.Conversations[i].UnreadCount = 0
		}
		if n := len(st.Messages); n > 0 {
			st.bumpActivity(peerID, st.Messages[n-1].CreatedAt)
		}
	})
	if err != nil {
		return err
	}
	if result != nil && !errors.Is(result, ErrSuperseded) {
		s.notifier.Notify(result)
	}
	return result
}

// RefreshSidebar, konuşma listesini sunucudan yeniden yükler.
//
// Fetch sürerken gelen push'lar ve onaylanan kendi gönderimlerimiz, snapshot'taki
// last_message_at'ten yeniyse snapshot'ın üstüne tekrar uygulanır. Daha yeni bir refresh zaten
// uygulanmışsa eski sonuç atılır.
func (s *Store) RefreshSidebar(ctx context.Context) error {
	var seq uint64
	err := s.do(ctx, func(st *state) {
		st.refreshSeq++
		seq = st.refreshSeq
		st.refreshPushes[seq] = nil
		st.refreshSends[seq] = nil
		st.IsConversationsLoading = true
	})
	if err != nil {
		return err
	}

	snapshot, fetchErr := s.api.Conversations(ctx)

	var result error
	err = s.do(context.WithoutCancel(ctx), func(st *state) {
		pushes, sends := st.refreshPushes[seq], st.refreshSends[seq]
		delete(st.refreshPushes, seq)
		delete(st.refreshSends, seq)
		st.IsConversationsLoading = len(st.refreshPushes) > 0

		switch {
		case fetchErr != nil:
			result = fetchErr
		case seq < st.appliedRefresh:
			result = ErrSuperseded
		default:
			st.appliedRefresh = seq
			st.Conversations = slices.Clone(snapshot)
			for _, msg := range pushes {
				peerID := msg.Counterpart(s.viewerID)
				i := st.conversationIndex(peerID)
				if i >= 0 && !isNewer(msg.CreatedAt, st.Conversations[i].LastMessageAt) {
					continue
				}
				st.applyPushToSidebar(peerID, msg.CreatedAt)
			}
			for _, msg := range sends {
				st.bumpActivity(msg.ReceiverID, msg.CreatedAt)
			}
			models.SortConversations(st.Conversations)
		}
	})
	if err != nil {
		return err
	}
	if result != nil && !errors.Is(result, ErrSuperseded) {
		s.notifier.Notify(result)
	}
	return result
}

// OnIncomingPush, websocket'ten gelen new_message event'ini uygular.
//
// Açık konuşmanın peer'inden geliyorsa mesaj listeye eklenir. Değilse
// peer'in unread'i artar, last_message_at güncellenir, peer listede
// yoksa eklenir ve liste yeniden sıralanır.
func (s *Store) OnIncomingPush(msg models.Message) {
	_ = s.do(context.Background(), func(st *state) {
		for seq := range st.refreshPushes {
			st.refreshPushes[seq] = append(st.refreshPushes[seq], msg)
		}

		peerID := msg.Counterpart(s.viewerID)
		if st.SelectedPeer != "" && msg.Between(s.viewerID, st.SelectedPeer) {
			if !slices.ContainsFunc(st.Messages, func(m models.Message) bool { return m.ID == msg.ID }) {
				st.Messages = append(st.Messages, msg)
			}
			st.bumpActivity(peerID, msg.CreatedAt)
			models.SortConversations(st.Conversations)
			return
		}

		st.applyPushToSidebar(peerID, msg.CreatedAt)
		models.SortConversations(st.Conversations)
	})
}

// OnLocalSend, açık konuşmaya mesaj gönderir.
//
// Gönderim sürerken ikinci çağrı ErrSendInFlight ile reddedilir. Mesaj
// sunucu yanıtından önce geçici ID ile listeye eklenir ve peer başa alınır.
// Başarıda geçici mesaj sunucudakiyle değişir; hatada geri alınır.
func (s *Store) OnLocalSend(ctx context.Context, req *models.SendMessageRequest) (*models.Message, error) {
	var (
		peerID    string
		tentative models.Message
		prevLast  *time.Time
		rejected  error
	)
	err := s.do(ctx, func(st *state) {
		switch {
		case st.IsSending:
			rejected = ErrSendInFlight
			return
		case st.SelectedPeer == "":
			rejected = ErrNoConversation
			return
		}

		st.IsSending = true
		peerID = st.SelectedPeer
		tentative = newTentative(s.viewerID, peerID, req, s.now())
		st.Messages = append(st.Messages, tentative)
		if i := st.conversationIndex(peerID); i >= 0 {
			prevLast = st.Conversations[i].LastMessageAt
		}
		st.bumpActivity(peerID, tentative.CreatedAt)
		models.SortConversations(st.Conversations)
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		return nil, rejected
	}

	sent, sendErr := s.api.Send(ctx, peerID, req)

	err = s.do(context.WithoutCancel(ctx), func(st *state) {
		st.IsSending = false

		idx := slices.IndexFunc(st.Messages, func(m models.Message) bool { return m.ID == tentative.ID })
		if sendErr != nil {
			if idx >= 0 {
				st.Messages = slices.Delete(st.Messages, idx, idx+1)
			}
			// Arada push gelip last_message_at'i ilerlettiyse dokunma.
			if i := st.conversationIndex(peerID); i >= 0 {
				last := st.Conversations[i].LastMessageAt
				if last != nil && last.Equal(tentative.CreatedAt) {
					st.Conversations[i].LastMessageAt = prevLast
				}
			}
			models.SortConversations(st.Conversations)
			return
		}

		if idx >= 0 {
			st.Messages[idx] = *sent
		}
		activity := models.Message{ID: sent.ID, ReceiverID: peerID, CreatedAt: sent.CreatedAt}
		for seq := range st.refreshSends {
			st.refreshSends[seq] = append(st.refreshSends[seq], activity)
		}
		// Tentative zaman istemci saatinden; sunucununki geride kalsa da onu yaz.
		if i := st.conversationIndex(peerID); i >= 0 {
			last := st.Conversations[i].LastMessageAt
			if last != nil && last.Equal(tentative.CreatedAt) {
				st.Conversations[i].LastMessageAt = lo.ToPtr(sent.CreatedAt)
			} else {
				st.bumpActivity(peerID, sent.CreatedAt)
			}
		}
		models.SortConversations(st.Conversations)
	})
	if err != nil {
		return nil, err
	}
	if sendErr != nil {
		s.notifier.Notify(sendErr)
		return nil, sendErr
	}
	return sent, nil
}

func newTentative(senderID, peerID string, req *models.SendMessageRequest, at time.Time) models.Message {
	msg := models.Message{
		ID:         tentativePrefix + uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: peerID,
		CreatedAt:  at,
	}
	if text := strings.TrimSpace(req.Text); text != "" {
		msg.Text = &text
	}
	if url := strings.TrimSpace(req.AttachmentURL); url != "" {
		msg.AttachmentURL = &url
	}
	return msg
}

// IsTentative, mesajın henüz sunucu tarafından onaylanmadığını söyler.
func IsTentative(msg models.Message) bool {
	return strings.HasPrefix(msg.ID, tentativePrefix)
}

func (st *state) conversationIndex(peerID string) int {
	return slices.IndexFunc(st.Conversations, func(c models.ConversationSummary) bool {
		return c.PeerID == peerID
	})
}

// bumpActivity, peer'in last_message_at'ini at'e ilerletir; geri almaz.
// Sıralamayı caller yapar.
func (st *state) bumpActivity(peerID string, at time.Time) {
	i := st.conversationIndex(peerID)
	if i < 0 {
		return
	}
	if isNewer(at, st.Conversations[i].LastMessageAt) {
		st.Conversations[i].LastMessageAt = lo.ToPtr(at)
	}
}

// applyPushToSidebar, peer'den gelen mesajı listeye işler: peer yoksa eklenir,
// seçili değilse unread artar. Sıralamayı caller yapar.
func (st *state) applyPushToSidebar(peerID string, createdAt time.Time) {
	i := st.conversationIndex(peerID)
	if i < 0 {
		st.Conversations = append(st.Conversations, models.ConversationSummary{PeerID: peerID})
		i = len(st.Conversations) - 1
	}
	if peerID != st.SelectedPeer {
		st.Conversations[i].UnreadCount++
	}
	st.Conversations[i].LastMessageAt = lo.ToPtr(createdAt)
}

func isNewer(at time.Time, last *time.Time) bool {
	return last == nil || at.After(*last)
}

// mergeMessages, fetch sonucuna fetch sırasında gelen ama sonuçta olmayan
// mesajları ekler ve created_at'e göre sıralar.
func mergeMessages(fetched, live []models.Message) []models.Message {
	seen := lo.SliceToMap(fetched, func(m models.Message) (string, struct{}) { return m.ID, struct{}{} })
	out := slices.Clone(fetched)
	if out == nil {
		out = []models.Message{}
	}
	for _, m := range live {
		if _, ok := seen[m.ID]; !ok {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Message) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}
