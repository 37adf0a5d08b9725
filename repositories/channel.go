package repositories

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"team-chat/domain"
	"team-chat/errors"
)

type IChannelRepository interface {
	CreateChannel(name, description string, isPrivate bool, createdBy string) (domain.Channel, error)
	GetChannel(id string) (domain.Channel, error)
	ListVisible(userID string) ([]domain.Channel, error)
	AddMember(channelID, userID string) error
	RemoveMember(channelID, userID string) error
}

type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) IChannelRepository {
	return &ChannelRepository{db: db}
}

// Key layout:
//
//	channel:<uuid>        -> JSON channel record
//	channelname:<name>    -> channel ID (uniqueness index)
func channelKey(id string) []byte { return []byte("channel:" + id) }
func channelNameKey(name string) []byte {
	return []byte("channelname:" + name)
}

// CreateChannel persists a new channel. Names are lowercased before the
// uniqueness check so "General" and "general" collide. The creator is the
// first member.
func (c ChannelRepository) CreateChannel(name, description string, isPrivate bool, createdBy string) (domain.Channel, error) {
	channel := domain.Channel{
		ID:          uuid.New().String(),
		Name:        strings.ToLower(strings.TrimSpace(name)),
		Description: description,
		IsPrivate:   isPrivate,
		Members:     []string{createdBy},
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(channel)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(channelNameKey(channel.Name)); err == nil {
			return errors.ErrChannelNameTaken
		}
		if err := txn.Set(channelNameKey(channel.Name), []byte(channel.ID)); err != nil {
			return err
		}
		return txn.Set(channelKey(channel.ID), data)
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (c ChannelRepository) GetChannel(id string) (domain.Channel, error) {
	var channel domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(channelKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &channel)
		})
	})
	if err != nil {
		return domain.Channel{}, errors.ErrChannelNotFound
	}
	return channel, nil
}

// ListVisible returns public channels plus private channels the user belongs
// to, sorted by name.
func (c ChannelRepository) ListVisible(userID string) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("channel:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var channel domain.Channel
				if err := json.Unmarshal(val, &channel); err != nil {
					return err
				}
				channels = append(channels, channel)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	visible := lo.Filter(channels, func(ch domain.Channel, _ int) bool {
		return ch.Accessible(userID)
	})
	sort.Slice(visible, func(i, j int) bool {
		return visible[i].Name < visible[j].Name
	})
	return visible, nil
}

// AddMember appends the user to the channel membership if not yet present.
func (c ChannelRepository) AddMember(channelID, userID string) error {
	return c.updateMembers(channelID, func(channel *domain.Channel) {
		if !channel.HasMember(userID) {
			channel.Members = append(channel.Members, userID)
		}
	})
}

// RemoveMember drops the user from the channel membership.
func (c ChannelRepository) RemoveMember(channelID, userID string) error {
	return c.updateMembers(channelID, func(channel *domain.Channel) {
		channel.Members = lo.Without(channel.Members, userID)
	})
}

func (c ChannelRepository) updateMembers(channelID string, mutate func(*domain.Channel)) error {
	return c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(channelKey(channelID))
		if err != nil {
			return errors.ErrChannelNotFound
		}

		var channel domain.Channel
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &channel)
		}); err != nil {
			return err
		}

		mutate(&channel)

		data, err := json.Marshal(channel)
		if err != nil {
			return err
		}
		return txn.Set(channelKey(channelID), data)
	})
}
