package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/akinalp/dmline/mocks"
	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/pkg"
	"github.com/akinalp/dmline/pkg/cache"
)

type messageMocks struct {
	messages  *mocks.MockMessageRepository
	users     *mocks.MockUserRepository
	publisher *mocks.MockMessagePublisher
	service   MessageService
}

func newMessageMocks(t *testing.T, peers *cache.TTLCache[string, *models.User]) *messageMocks {
	ctrl := gomock.NewController(t)
	m := &messageMocks{
		messages:  mocks.NewMockMessageRepository(ctrl),
		users:     mocks.NewMockUserRepository(ctrl),
		publisher: mocks.NewMockMessagePublisher(ctrl),
	}
	m.service = NewMessageService(m.messages, m.users, m.publisher, peers)
	return m
}

func TestMessageService_Send_AppendsThenDelivers(t *testing.T) {
	req := require.New(t)
	m := newMessageMocks(t, nil)
	ctx := context.Background()

	// Given
	m.users.EXPECT().GetByID(gomock.Any(), "bob").Return(&models.User{ID: "bob"}, nil)
	gomock.InOrder(
		m.messages.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, msg *models.Message) error {
				msg.ID = "m1"
				msg.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
				return nil
			}),
		m.publisher.EXPECT().Deliver(gomock.Any()).DoAndReturn(func(msg *models.Message) bool {
			req.Equal("m1", msg.ID)
			req.Equal("bob", msg.ReceiverID)
			return true
		}),
	)

	// When
	msg, err := m.service.Send(ctx, "alice", "bob", &models.SendMessageRequest{Text: " hello "})

	// Then
	req.NoError(err)
	req.Equal("alice", msg.SenderID)
	req.Equal("hello", *msg.Text)
}

func TestMessageService_Send_PushFailureDoesNotFailSend(t *testing.T) {
	req := require.New(t)
	m := newMessageMocks(t, nil)

	m.users.EXPECT().GetByID(gomock.Any(), "bob").Return(&models.User{ID: "bob"}, nil)
	m.messages.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	m.publisher.EXPECT().Deliver(gomock.Any()).Return(false)

	msg, err := m.service.Send(context.Background(), "alice", "bob",
		&models.SendMessageRequest{AttachmentURL: "/api/uploads/x.png"})

	req.NoError(err)
	req.Nil(msg.Text)
	req.Equal("/api/uploads/x.png", *msg.AttachmentURL)
}

func TestMessageService_Send_RejectsBeforeTouchingTheLog(t *testing.T) {
	tests := []struct {
		name    string
		sender  string
		peer    string
		req     models.SendMessageRequest
		setup   func(m *messageMocks)
		wantErr error
	}{
		{
			name: "empty message", sender: "alice", peer: "bob",
			req: models.SendMessageRequest{Text: "   "}, wantErr: pkg.ErrValidation,
		},
		{
			name: "self message", sender: "alice", peer: "alice",
			req: models.SendMessageRequest{Text: "hi"}, wantErr: pkg.ErrValidation,
		},
		{
			name: "unknown peer", sender: "alice", peer: "ghost",
			req: models.SendMessageRequest{Text: "hi"},
			setup: func(m *messageMocks) {
				m.users.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, pkg.ErrNotFound)
			},
			wantErr: pkg.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMessageMocks(t, nil)
			if tt.setup != nil {
				tt.setup(m)
			}
			// Append ve Deliver için EXPECT yok: çağrılırsa gomock testi düşürür.
			_, err := m.service.Send(context.Background(), tt.sender, tt.peer, &tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMessageService_Send_StoreFailureSkipsPush(t *testing.T) {
	req := require.New(t)
	m := newMessageMocks(t, nil)
	storeErr := fmt.Errorf("%w: disk full", pkg.ErrStoreFailure)

	m.users.EXPECT().GetByID(gomock.Any(), "bob").Return(&models.User{ID: "bob"}, nil)
	m.messages.EXPECT().Append(gomock.Any(), gomock.Any()).Return(storeErr)

	_, err := m.service.Send(context.Background(), "alice", "bob", &models.SendMessageRequest{Text: "hi"})

	req.ErrorIs(err, pkg.ErrStoreFailure)
}

func TestMessageService_Send_PeerLookupIsCached(t *testing.T) {
	req := require.New(t)
	peers := cache.New[string, *models.User](time.Minute, time.Minute)
	t.Cleanup(peers.Close)
	m := newMessageMocks(t, peers)

	m.users.EXPECT().GetByID(gomock.Any(), "bob").Return(&models.User{ID: "bob"}, nil).Times(1)
	m.messages.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	m.publisher.EXPECT().Deliver(gomock.Any()).Return(true).Times(2)

	for range 2 {
		_, err := m.service.Send(context.Background(), "alice", "bob", &models.SendMessageRequest{Text: "hi"})
		req.NoError(err)
	}
}

func TestMessageService_OpenConversation_MarksReadThenLists(t *testing.T) {
	req := require.New(t)
	m := newMessageMocks(t, nil)
	history := []models.Message{
		{ID: "m1", SenderID: "bob", ReceiverID: "alice", Text: lo.ToPtr("a"), Read: true},
	}

	m.users.EXPECT().GetByID(gomock.Any(), "bob").Return(&models.User{ID: "bob"}, nil)
	gomock.InOrder(
		m.messages.EXPECT().MarkReadFromPeer(gomock.Any(), "alice", "bob", gomock.Any()).Return(1, nil),
		m.messages.EXPECT().ListBetween(gomock.Any(), "alice", "bob").Return(history, nil),
	)

	got, err := m.service.OpenConversation(context.Background(), "alice", "bob")

	req.NoError(err)
	req.Equal(history, got)
}

func TestMessageService_OpenConversation_EmptyHistoryIsNotNil(t *testing.T) {
	req := require.New(t)
	m := newMessageMocks(t, nil)

	m.users.EXPECT().GetByID(gomock.Any(), "bob").Return(&models.User{ID: "bob"}, nil)
	m.messages.EXPECT().MarkReadFromPeer(gomock.Any(), "alice", "bob", gomock.Any()).Return(0, nil)
	m.messages.EXPECT().ListBetween(gomock.Any(), "alice", "bob").Return(nil, nil)

	got, err := m.service.OpenConversation(context.Background(), "alice", "bob")

	req.NoError(err)
	req.NotNil(got)
	req.Empty(got)
}

func TestMessageService_OpenConversation_StoreFailure(t *testing.T) {
	req := require.New(t)
	m := newMessageMocks(t, nil)
	boom := errors.New("locked")

	m.users.EXPECT().GetByID(gomock.Any(), "bob").Return(&models.User{ID: "bob"}, nil)
	m.messages.EXPECT().MarkReadFromPeer(gomock.Any(), "alice", "bob", gomock.Any()).
		Return(0, fmt.Errorf("%w: %w", pkg.ErrStoreFailure, boom))

	_, err := m.service.OpenConversation(context.Background(), "alice", "bob")

	req.ErrorIs(err, pkg.ErrStoreFailure)
	req.ErrorIs(err, boom)
}
