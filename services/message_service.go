package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"team-chat/domain"
	"team-chat/errors"
	"team-chat/moderation"
	"team-chat/repositories"
)

type IMessageService interface {
	Post(channelID, senderID, text string) (domain.Message, error)
	List(channelID, userID string, limit int, cursor *string) ([]domain.Message, *string, bool, error)
	Search(ctx context.Context, channelID, userID, query string, limit int) ([]domain.Message, error)
}

type MessageService struct {
	messageRepository repositories.IMessageRepository
	channelRepository repositories.IChannelRepository
	moderator         *moderation.Moderator
}

func NewMessageService(
	messages repositories.IMessageRepository,
	channels repositories.IChannelRepository,
	moderator *moderation.Moderator,
) IMessageService {
	return &MessageService{
		messageRepository: messages,
		channelRepository: channels,
		moderator:         moderator,
	}
}

// Post persists a message on behalf of a channel member. The text is run
// through moderation before it is stored, so every downstream consumer (the
// history API, search, the realtime relay) only ever sees the censored form.
func (s *MessageService) Post(channelID, senderID, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}

	channel, err := s.channelRepository.GetChannel(channelID)
	if err != nil {
		return domain.Message{}, err
	}
	if !channel.HasMember(senderID) {
		return domain.Message{}, errors.ErrNotChannelMember
	}

	censored, foundWords := s.moderator.Censor(text)
	message := domain.Message{
		ID:            uuid.New(),
		ChannelID:     channelID,
		SenderID:      senderID,
		Text:          censored,
		Language:      moderation.DetectLanguage(text),
		CensoredWords: foundWords,
		CreatedAt:     time.Now().UTC(),
	}

	if err = s.messageRepository.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// List pages through a channel's history, newest first. Private channels are
// readable by members only.
func (s *MessageService) List(channelID, userID string, limit int, cursor *string) ([]domain.Message, *string, bool, error) {
	channel, err := s.channelRepository.GetChannel(channelID)
	if err != nil {
		return nil, nil, false, err
	}
	if !channel.Accessible(userID) {
		return nil, nil, false, errors.ErrNotChannelMember
	}
	return s.messageRepository.GetMessages(channelID, limit, cursor)
}

// Search runs a full-text query over a channel the user may read.
func (s *MessageService) Search(ctx context.Context, channelID, userID, query string, limit int) ([]domain.Message, error) {
	channel, err := s.channelRepository.GetChannel(channelID)
	if err != nil {
		return nil, err
	}
	if !channel.Accessible(userID) {
		return nil, errors.ErrNotChannelMember
	}
	return s.messageRepository.SearchMessages(ctx, channelID, query, limit)
}
