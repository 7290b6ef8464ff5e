package service

import (
	"context"
	"errors"

	"frontdesk/internal/messages/repository"
	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/model"
	"frontdesk/pkg/sanitizer"
	"frontdesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type MessageService interface {
	Send(ctx context.Context, actor model.Actor, message *model.Message) error
	Conversation(ctx context.Context, actor model.Actor, peerID string) ([]*model.Message, error)
}

type messageService struct {
	repo     repository.MessageRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewMessageService(repo repository.MessageRepository, cfg *config.Config) MessageService {
	return &messageService{
		repo:     repo,
		validate: validation.New(),
		cfg:      cfg,
	}
}

// Send stores a direct message from actor. The store id is assigned on message.
func (s *messageService) Send(ctx context.Context, actor model.Actor, message *model.Message) error {
	message.ID = ""
	message.SenderID = actor.ID
	message.Read = false
	message.Content = sanitizer.NormalizeMultiline(message.Content)

	if err := validation.Struct(s.validate, message); err != nil {
		s.cfg.Log.Warn("Message validation failed", "actor_id", actor.ID, "error", err)
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Invalid message input", verrs.Details())
		}
		return apperrors.Validation("Invalid message input", map[string]any{"error": err.Error()})
	}
	if message.RecipientID == actor.ID {
		return apperrors.InvalidInput("Cannot send a message to yourself")
	}

	if err := s.repo.Create(ctx, message); err != nil {
		s.cfg.Log.Error("Failed to send message", "actor_id", actor.ID, "recipient_id", message.RecipientID, "error", err)
		return apperrors.Internal("Failed to send message", err)
	}

	s.cfg.Log.Debug("Message sent", "message_id", message.ID, "actor_id", actor.ID, "recipient_id", message.RecipientID)
	return nil
}

// Conversation returns the messages between actor and peerID, oldest first.
func (s *messageService) Conversation(ctx context.Context, actor model.Actor, peerID string) ([]*model.Message, error) {
	if peerID == "" {
		return nil, apperrors.InvalidInput("Peer ID cannot be empty")
	}

	messages, err := s.repo.FindConversation(ctx, actor.ID, peerID, repository.ConversationLimit)
	if err != nil {
		s.cfg.Log.Error("Failed to load conversation", "actor_id", actor.ID, "peer_id", peerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve conversation", err)
	}
	return messages, nil
}
