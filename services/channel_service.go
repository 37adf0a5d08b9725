package services

import (
	"strings"

	"team-chat/domain"
	"team-chat/errors"
	"team-chat/repositories"
)

type IChannelService interface {
	Create(name, description string, isPrivate bool, creatorID string) (domain.Channel, error)
	List(userID string) ([]domain.Channel, error)
	Get(channelID, userID string) (domain.Channel, error)
	Join(channelID, userID string) (domain.Channel, error)
	Leave(channelID, userID string) (domain.Channel, error)
	CanAccess(channelID, userID string) bool
}

type ChannelService struct {
	channelRepository repositories.IChannelRepository
}

func NewChannelService(repo repositories.IChannelRepository) IChannelService {
	return &ChannelService{channelRepository: repo}
}

func (s *ChannelService) Create(name, description string, isPrivate bool, creatorID string) (domain.Channel, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Channel{}, errors.ErrChannelNameRequired
	}
	return s.channelRepository.CreateChannel(name, description, isPrivate, creatorID)
}

func (s *ChannelService) List(userID string) ([]domain.Channel, error) {
	return s.channelRepository.ListVisible(userID)
}

// Get returns the channel, refusing private channels to non-members.
func (s *ChannelService) Get(channelID, userID string) (domain.Channel, error) {
	channel, err := s.channelRepository.GetChannel(channelID)
	if err != nil {
		return domain.Channel{}, err
	}
	if !channel.Accessible(userID) {
		return domain.Channel{}, errors.ErrNotChannelMember
	}
	return channel, nil
}

// Join adds the user to a public channel. Private channels are invite only:
// membership there is granted out of band, never through this path.
func (s *ChannelService) Join(channelID, userID string) (domain.Channel, error) {
	channel, err := s.channelRepository.GetChannel(channelID)
	if err != nil {
		return domain.Channel{}, err
	}
	if channel.IsPrivate {
		return domain.Channel{}, errors.ErrPrivateChannel
	}
	if err = s.channelRepository.AddMember(channelID, userID); err != nil {
		return domain.Channel{}, err
	}
	return s.channelRepository.GetChannel(channelID)
}

func (s *ChannelService) Leave(channelID, userID string) (domain.Channel, error) {
	if _, err := s.channelRepository.GetChannel(channelID); err != nil {
		return domain.Channel{}, err
	}
	if err := s.channelRepository.RemoveMember(channelID, userID); err != nil {
		return domain.Channel{}, err
	}
	return s.channelRepository.GetChannel(channelID)
}

// CanAccess is the authorization hook handed to the realtime hub: a user may
// enter a channel's room only if the channel exists and is readable to them.
func (s *ChannelService) CanAccess(channelID, userID string) bool {
	channel, err := s.channelRepository.GetChannel(channelID)
	if err != nil {
		return false
	}
	return channel.Accessible(userID)
}
