package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/dmline/models"
)

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

type reply struct {
	messages      []models.Message
	conversations []models.ConversationSummary
	sent          *models.Message
	err           error
}

type call struct {
	kind  string
	peer  string
	req   *models.SendMessageRequest
	reply chan reply
}

// fakeAPI, her çağrıyı test yanıt verene kadar bekletir.
type fakeAPI struct {
	calls chan *call
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(chan *call, 16)}
}

func (f *fakeAPI) wait(ctx context.Context, c *call) reply {
	c.reply = make(chan reply, 1)
	f.calls <- c
	select {
	case r := <-c.reply:
		return r
	case <-ctx.Done():
		return reply{err: ctx.Err()}
	}
}

func (f *fakeAPI) Conversations(ctx context.Context) ([]models.ConversationSummary, error) {
	r := f.wait(ctx, &call{kind: "conversations"})
	return r.conversations, r.err
}

func (f *fakeAPI) Messages(ctx context.Context, peerID string) ([]models.Message, error) {
	r := f.wait(ctx, &call{kind: "messages", peer: peerID})
	return r.messages, r.err
}

func (f *fakeAPI) Send(ctx context.Context, peerID string, req *models.SendMessageRequest) (*models.Message, error) {
	r := f.wait(ctx, &call{kind: "send", peer: peerID, req: req})
	return r.sent, r.err
}

func (f *fakeAPI) next(t *testing.T, kind string) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		require.Equal(t, kind, c.kind)
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s call", kind)
		return nil
	}
}

type recordingNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (n *recordingNotifier) Notify(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}

type storeEnv struct {
	store    *Store
	api      *fakeAPI
	notifier *recordingNotifier
	ctx      context.Context
}

func newStoreEnv(t *testing.T) *storeEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	env := &storeEnv{api: newFakeAPI(), notifier: &recordingNotifier{}, ctx: ctx}
	env.store = NewStore(env.api, env.notifier, "me")
	env.store.now = func() time.Time { return at(100) }

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.store.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return env
}

func (e *storeEnv) snapshot(t *testing.T) State {
	t.Helper()
	st, err := e.store.Snapshot(e.ctx)
	require.NoError(t, err)
	return st
}

// async, blocking bir Store çağrısını arka planda çalıştırır.
func async[T any](f func() T) <-chan T {
	ch := make(chan T, 1)
	go func() { ch <- f() }()
	return ch
}

func awaitResult[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("call did not return")
		var zero T
		return zero
	}
}

// loadSidebar, verilen snapshot'ı RefreshSidebar ile yükler.
func (e *storeEnv) loadSidebar(t *testing.T, entries ...models.ConversationSummary) {
	t.Helper()
	done := async(func() error { return e.store.RefreshSidebar(e.ctx) })
	e.api.next(t, "conversations").reply <- reply{conversations: entries}
	require.NoError(t, awaitResult(t, done))
}

func entry(peer string, unread int, last *time.Time) models.ConversationSummary {
	return models.ConversationSummary{PeerID: peer, Username: peer, UnreadCount: unread, LastMessageAt: last}
}

func push(id, from string, createdAt time.Time) models.Message {
	return models.Message{ID: id, SenderID: from, ReceiverID: "me", Text: lo.ToPtr(id), CreatedAt: createdAt}
}

type row struct {
	Peer   string
	Unread int
	Last   *time.Time
}

func rows(list []models.ConversationSummary) []row {
	return lo.Map(list, func(c models.ConversationSummary, _ int) row {
		return row{Peer: c.PeerID, Unread: c.UnreadCount, Last: c.LastMessageAt}
	})
}

func ids(msgs []models.Message) []string {
	return lo.Map(msgs, func(m models.Message, _ int) string { return m.ID })
}

func TestStore_PushMovesPeerToTop(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1, t2, t3 := at(1), at(2), at(3)

	env.loadSidebar(t, entry("A", 0, &t1), entry("B", 2, &t2))
	req.Equal([]row{{"B", 2, &t2}, {"A", 0, &t1}}, rows(env.snapshot(t).Conversations))

	env.store.OnIncomingPush(push("m1", "A", t3))

	req.Equal([]row{{"A", 1, &t3}, {"B", 2, &t2}}, rows(env.snapshot(t).Conversations))
}

func TestStore_PushFromUnknownPeerInsertsEntry(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1 := at(1)
	env.loadSidebar(t, entry("A", 0, &t1), entry("quiet", 0, nil))

	env.store.OnIncomingPush(push("m1", "new", at(5)))

	st := env.snapshot(t)
	req.Equal([]string{"new", "A", "quiet"}, lo.Map(st.Conversations, func(c models.ConversationSummary, _ int) string { return c.PeerID }))
	req.Equal(1, st.Conversations[0].UnreadCount)
}

func TestStore_OpenConversationClearsUnreadAndLoads(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1 := at(1)
	env.loadSidebar(t, entry("A", 3, &t1))

	done := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	c := env.api.next(t, "messages")
	req.Equal("A", c.peer)

	st := env.snapshot(t)
	req.Equal("A", st.SelectedPeer)
	req.True(st.IsMessagesLoading)
	req.Zero(st.Conversations[0].UnreadCount)

	c.reply <- reply{messages: []models.Message{push("h1", "A", t1)}}
	req.NoError(awaitResult(t, done))

	st = env.snapshot(t)
	req.False(st.IsMessagesLoading)
	req.Equal([]string{"h1"}, ids(st.Messages))
	req.Zero(st.Conversations[0].UnreadCount)
}

func TestStore_OpenConversationFailureRestoresUnread(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1 := at(1)
	env.loadSidebar(t, entry("A", 3, &t1))

	done := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	env.api.next(t, "messages").reply <- reply{err: errors.New("offline")}

	req.EqualError(awaitResult(t, done), "offline")
	st := env.snapshot(t)
	req.Equal(3, st.Conversations[0].UnreadCount)
	req.False(st.IsMessagesLoading)
	req.Equal(1, env.notifier.count())
}

func TestStore_OpenFailureAfterRefreshKeepsServerUnread(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1 := at(1)
	env.loadSidebar(t, entry("A", 3, &t1))

	open := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	openCall := env.api.next(t, "messages")

	// Okundu işaretlenmeden gelen snapshot sunucudaki sayımı taşır.
	env.loadSidebar(t, entry("A", 3, &t1))
	openCall.reply <- reply{err: errors.New("offline")}
	req.EqualError(awaitResult(t, open), "offline")

	req.Equal([]row{{"A", 3, &t1}}, rows(env.snapshot(t).Conversations))
}

func TestStore_OpenSuccessClearsUnreadFromEarlierSnapshot(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1 := at(1)
	env.loadSidebar(t, entry("A", 3, &t1))

	open := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	openCall := env.api.next(t, "messages")
	env.loadSidebar(t, entry("A", 3, &t1))
	openCall.reply <- reply{messages: []models.Message{push("h1", "A", t1)}}
	req.NoError(awaitResult(t, open))

	req.Zero(env.snapshot(t).Conversations[0].UnreadCount)
}

func TestStore_LastSelectedPeerWins(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)

	first := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	callA := env.api.next(t, "messages")
	second := async(func() error { return env.store.OpenConversation(env.ctx, "B") })
	callB := env.api.next(t, "messages")

	// B'nin yanıtı önce, A'nınki sonra gelir.
	callB.reply <- reply{messages: []models.Message{push("b1", "B", at(1))}}
	req.NoError(awaitResult(t, second))
	callA.reply <- reply{messages: []models.Message{push("a1", "A", at(1))}}
	req.ErrorIs(awaitResult(t, first), ErrSuperseded)

	st := env.snapshot(t)
	req.Equal("B", st.SelectedPeer)
	req.Equal([]string{"b1"}, ids(st.Messages))
	req.Zero(env.notifier.count())
}

func TestStore_PushDuringOpenIsMergedOnce(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1 := at(1)
	env.loadSidebar(t, entry("A", 0, &t1))

	done := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	c := env.api.next(t, "messages")

	// Biri fetch sonucunda da olan, biri olmayan iki push.
	env.store.OnIncomingPush(push("m2", "A", at(2)))
	env.store.OnIncomingPush(push("m3", "A", at(3)))
	c.reply <- reply{messages: []models.Message{push("m1", "A", at(1)), push("m2", "A", at(2))}}
	req.NoError(awaitResult(t, done))

	st := env.snapshot(t)
	req.Equal([]string{"m1", "m2", "m3"}, ids(st.Messages))
	req.Zero(st.Conversations[0].UnreadCount)
	req.Equal(at(3), *st.Conversations[0].LastMessageAt)
}

func TestStore_PushDuringRefreshIsReapplied(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)

	done := async(func() error { return env.store.RefreshSidebar(env.ctx) })
	c := env.api.next(t, "conversations")
	req.True(env.snapshot(t).IsConversationsLoading)

	// Snapshot A'nın t5 mesajını zaten içeriyor, B'nin t6 mesajını içermiyor.
	env.store.OnIncomingPush(push("a5", "A", at(5)))
	env.store.OnIncomingPush(push("b6", "B", at(6)))
	t5, t4 := at(5), at(4)
	c.reply <- reply{conversations: []models.ConversationSummary{entry("A", 1, &t5), entry("B", 0, &t4)}}
	req.NoError(awaitResult(t, done))

	t6 := at(6)
	st := env.snapshot(t)
	req.False(st.IsConversationsLoading)
	req.Equal([]row{{"B", 1, &t6}, {"A", 1, &t5}}, rows(st.Conversations))
}

func TestStore_StaleRefreshIsDiscarded(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1, t2 := at(1), at(2)

	older := async(func() error { return env.store.RefreshSidebar(env.ctx) })
	oldCall := env.api.next(t, "conversations")
	newer := async(func() error { return env.store.RefreshSidebar(env.ctx) })
	newCall := env.api.next(t, "conversations")

	newCall.reply <- reply{conversations: []models.ConversationSummary{entry("A", 0, &t2)}}
	req.NoError(awaitResult(t, newer))
	oldCall.reply <- reply{conversations: []models.ConversationSummary{entry("A", 5, &t1)}}
	req.ErrorIs(awaitResult(t, older), ErrSuperseded)

	req.Equal([]row{{"A", 0, &t2}}, rows(env.snapshot(t).Conversations))
}

func TestStore_LocalSend(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1, t2 := at(1), at(2)
	env.loadSidebar(t, entry("A", 0, &t1), entry("B", 0, &t2))

	open := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	env.api.next(t, "messages").reply <- reply{messages: []models.Message{}}
	req.NoError(awaitResult(t, open))

	type sendResult struct {
		msg *models.Message
		err error
	}
	send := async(func() sendResult {
		msg, err := env.store.OnLocalSend(env.ctx, &models.SendMessageRequest{Text: "selam"})
		return sendResult{msg, err}
	})
	c := env.api.next(t, "send")
	req.Equal("A", c.peer)

	// Tentative mesaj listede, A başa geçti, ikinci gönderim reddedilir.
	st := env.snapshot(t)
	req.True(st.IsSending)
	req.Len(st.Messages, 1)
	req.True(IsTentative(st.Messages[0]))
	req.Equal("me", st.Messages[0].SenderID)
	req.Equal("A", st.Conversations[0].PeerID)
	_, err := env.store.OnLocalSend(env.ctx, &models.SendMessageRequest{Text: "tekrar"})
	req.ErrorIs(err, ErrSendInFlight)

	server := &models.Message{ID: "srv1", SenderID: "me", ReceiverID: "A", Text: lo.ToPtr("selam"), CreatedAt: at(101)}
	c.reply <- reply{sent: server}
	res := awaitResult(t, send)
	req.NoError(res.err)
	req.Equal("srv1", res.msg.ID)

	st = env.snapshot(t)
	req.False(st.IsSending)
	req.Equal([]string{"srv1"}, ids(st.Messages))
	req.Equal(at(101), *st.Conversations[0].LastMessageAt)
}

func TestStore_SendDuringRefreshSurvivesStaleSnapshot(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1, t2 := at(1), at(2)
	env.loadSidebar(t, entry("A", 0, &t1), entry("B", 0, &t2))

	open := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	env.api.next(t, "messages").reply <- reply{messages: []models.Message{}}
	req.NoError(awaitResult(t, open))

	refresh := async(func() error { return env.store.RefreshSidebar(env.ctx) })
	refreshCall := env.api.next(t, "conversations")

	send := async(func() error {
		_, err := env.store.OnLocalSend(env.ctx, &models.SendMessageRequest{Text: "selam"})
		return err
	})
	sent := &models.Message{ID: "srv1", SenderID: "me", ReceiverID: "A", CreatedAt: at(101)}
	env.api.next(t, "send").reply <- reply{sent: sent}
	req.NoError(awaitResult(t, send))

	// Snapshot gönderim log'a yazılmadan hesaplanmış.
	refreshCall.reply <- reply{conversations: []models.ConversationSummary{entry("B", 0, &t2), entry("A", 0, &t1)}}
	req.NoError(awaitResult(t, refresh))

	t101 := at(101)
	req.Equal([]row{{"A", 0, &t101}, {"B", 0, &t2}}, rows(env.snapshot(t).Conversations))
}

func TestStore_SendConfirmedAfterStaleSnapshotRestoresOrder(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1, t2 := at(1), at(2)
	env.loadSidebar(t, entry("A", 0, &t1), entry("B", 0, &t2))

	open := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	env.api.next(t, "messages").reply <- reply{messages: []models.Message{}}
	req.NoError(awaitResult(t, open))

	send := async(func() error {
		_, err := env.store.OnLocalSend(env.ctx, &models.SendMessageRequest{Text: "selam"})
		return err
	})
	sendCall := env.api.next(t, "send")

	// Gönderim beklerken eski bir snapshot tentative zamanı ezer.
	env.loadSidebar(t, entry("B", 0, &t2), entry("A", 0, &t1))
	sendCall.reply <- reply{sent: &models.Message{ID: "srv1", SenderID: "me", ReceiverID: "A", CreatedAt: at(101)}}
	req.NoError(awaitResult(t, send))

	t101 := at(101)
	req.Equal([]row{{"A", 0, &t101}, {"B", 0, &t2}}, rows(env.snapshot(t).Conversations))
}

func TestStore_LocalSendFailureRollsBack(t *testing.T) {
	req := require.New(t)
	env := newStoreEnv(t)
	t1, t2 := at(1), at(2)
	env.loadSidebar(t, entry("A", 0, &t1), entry("B", 0, &t2))

	open := async(func() error { return env.store.OpenConversation(env.ctx, "A") })
	env.api.next(t, "messages").reply <- reply{messages: []models.Message{}}
	req.NoError(awaitResult(t, open))

	send := async(func() error {
		_, err := env.store.OnLocalSend(env.ctx, &models.SendMessageRequest{Text: "selam"})
		return err
	})
	env.api.next(t, "send").reply <- reply{err: &APIError{Status: 500, Message: "internal server error"}}

	var apiErr *APIError
	req.ErrorAs(awaitResult(t, send), &apiErr)

	st := env.snapshot(t)
	req.False(st.IsSending)
	req.Empty(st.Messages)
	req.Equal([]row{{"B", 0, &t2}, {"A", 0, &t1}}, rows(st.Conversations))
	req.Equal(1, env.notifier.count())

	// Kilit serbest: bir sonraki gönderim API'ye ulaşır.
	retry := async(func() error {
		_, err := env.store.OnLocalSend(env.ctx, &models.SendMessageRequest{Text: "tekrar"})
		return err
	})
	env.api.next(t, "send").reply <- reply{sent: &models.Message{ID: "srv2", CreatedAt: at(102)}}
	req.NoError(awaitResult(t, retry))
}

func TestStore_SendWithoutConversation(t *testing.T) {
	env := newStoreEnv(t)

	_, err := env.store.OnLocalSend(env.ctx, &models.SendMessageRequest{Text: "x"})

	require.ErrorIs(t, err, ErrNoConversation)
}

func TestStore_StoppedStoreRejectsCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewStore(newFakeAPI(), nil, "me")
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Run(ctx)
	}()
	cancel()
	<-done

	_, err := store.Snapshot(context.Background())
	require.ErrorIs(t, err, ErrStopped)
}
