package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/pkg"
	"github.com/akinalp/dmline/pkg/cache"
	"github.com/akinalp/dmline/repository"
	"github.com/akinalp/dmline/ws"
)

var tracer = otel.Tracer("github.com/akinalp/dmline/services")

// MessageService, mesaj gönderme ve konuşma açma.
type MessageService interface {
	// Send, sender'dan peer'e mesajı log'a ekler ve peer çevrimiçiyse push eder.
	Send(ctx context.Context, senderID, peerID string, req *models.SendMessageRequest) (*models.Message, error)
	// OpenConversation, peer → viewer okunmamış mesajları okundu yapar ve
	// iki yönlü geçmişi created_at artan sırada döner.
	OpenConversation(ctx context.Context, viewerID, peerID string) ([]models.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	publisher   ws.MessagePublisher
	peers       *cache.TTLCache[string, *models.User]

	// appendMu, Append + Deliver'ı sıralar: aynı alıcıya giden push'lar
	// created_at sırasıyla kuyruğa girer. SQLite yazmaları zaten tek sıra.
	appendMu sync.Mutex
}

// NewMessageService, constructor. peers nil ise her gönderimde DB'ye gidilir.
func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	publisher ws.MessagePublisher,
	peers *cache.TTLCache[string, *models.User],
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		peers:       peers,
	}
}

func (s *messageService) Send(ctx context.Context, senderID, peerID string, req *models.SendMessageRequest) (*models.Message, error) {
	ctx, span := tracer.Start(ctx, "MessageService.Send")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err.Error())
	}
	if senderID == peerID {
		return nil, fmt.Errorf("%w: cannot send a message to yourself", pkg.ErrValidation)
	}
	if _, err := s.lookupPeer(ctx, peerID); err != nil {
		return nil, err
	}

	msg := req.ToMessage(senderID, peerID)

	s.appendMu.Lock()
	err := s.messageRepo.Append(ctx, msg)
	if err == nil {
		// Push başarısız olsa bile mesaj log'da kalır; alıcı bir sonraki fetch'te görür.
		delivered := s.publisher.Deliver(msg)
		span.SetAttributes(attribute.Bool("dm.pushed", delivered))
	}
	s.appendMu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("dm.message_id", msg.ID))
	return msg, nil
}

func (s *messageService) OpenConversation(ctx context.Context, viewerID, peerID string) ([]models.Message, error) {
	if viewerID == peerID {
		return nil, fmt.Errorf("%w: cannot open a conversation with yourself", pkg.ErrValidation)
	}
	if _, err := s.lookupPeer(ctx, peerID); err != nil {
		return nil, err
	}

	// Önce okundu işaretle, sonra listele: okundu yapılan her mesaj dönen listede olur.
	marked, err := s.messageRepo.MarkReadFromPeer(ctx, viewerID, peerID, time.Now())
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		log.Printf("[messages] %d messages marked read: viewer=%s peer=%s", marked, viewerID, peerID)
	}

	messages, err := s.messageRepo.ListBetween(ctx, viewerID, peerID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// lookupPeer, peer'in kimlik dizininde olup olmadığını kontrol eder.
// Sonuç kısa süreli cache'lenir; bulunamayan ID cache'lenmez.
func (s *messageService) lookupPeer(ctx context.Context, peerID string) (*models.User, error) {
	load := func() (*models.User, error) { return s.userRepo.GetByID(ctx, peerID) }

	var (
		user *models.User
		err  error
	)
	if s.peers != nil {
		user, err = s.peers.GetOrLoad(peerID, load)
	} else {
		user, err = load()
	}
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	return user, err
}
