package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"team-chat/domain"
	"team-chat/errors"
	"team-chat/moderation"
	"team-chat/repositories"
)

type messageFixture struct {
	messages IMessageService
	channels IChannelService
	channel  domain.Channel
}

func newMessageFixture(t *testing.T) messageFixture {
	t.Helper()
	req := require.New(t)
	db := openTestDB(t)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', slog.Default())
	req.NoError(err)

	channelRepo := repositories.NewChannelRepository(db)
	messageRepo := repositories.NewMessageRepository(db, writer, slog.Default(), 50)

	channels := NewChannelService(channelRepo)
	channel, err := channels.Create("general", "", false, "u1")
	req.NoError(err)

	return messageFixture{
		messages: NewMessageService(messageRepo, channelRepo, &moderator),
		channels: channels,
		channel:  channel,
	}
}

func TestMessageService_Post_Censors_And_Stores(t *testing.T) {
	req := require.New(t)
	fx := newMessageFixture(t)

	message, err := fx.messages.Post(fx.channel.ID, "u1", "  the badger strikes again  ")
	req.NoError(err)
	req.Equal("the ****** strikes again", message.Text)
	req.Equal([]string{"badger"}, message.CensoredWords)

	// History returns the censored form
	history, _, _, err := fx.messages.List(fx.channel.ID, "u1", 10, nil)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("the ****** strikes again", history[0].Text)
}

func TestMessageService_Post_Guards(t *testing.T) {
	req := require.New(t)
	fx := newMessageFixture(t)

	_, err := fx.messages.Post(fx.channel.ID, "u1", "   ")
	req.ErrorIs(err, errors.ErrEmptyMessage)

	// u2 is not a member of the channel
	_, err = fx.messages.Post(fx.channel.ID, "u2", "hello")
	req.ErrorIs(err, errors.ErrNotChannelMember)

	_, err = fx.messages.Post("missing", "u1", "hello")
	req.ErrorIs(err, errors.ErrChannelNotFound)
}

func TestMessageService_List_Private_Channel_Requires_Membership(t *testing.T) {
	req := require.New(t)
	fx := newMessageFixture(t)

	private, err := fx.channels.Create("secret", "", true, "u1")
	req.NoError(err)

	_, _, _, err = fx.messages.List(private.ID, "u2", 10, nil)
	req.ErrorIs(err, errors.ErrNotChannelMember)

	_, _, _, err = fx.messages.List(private.ID, "u1", 10, nil)
	req.NoError(err)
}

func TestMessageService_Search(t *testing.T) {
	req := require.New(t)
	fx := newMessageFixture(t)

	_, err := fx.messages.Post(fx.channel.ID, "u1", "the deploy pipeline is green")
	req.NoError(err)
	_, err = fx.messages.Post(fx.channel.ID, "u1", "lunch at noon")
	req.NoError(err)

	results, err := fx.messages.Search(context.Background(), fx.channel.ID, "u1", "deploy", 10)
	req.NoError(err)
	req.Len(results, 1)
	req.Equal("the deploy pipeline is green", results[0].Text)

	// Public channels are searchable by anyone; private ones require
	// membership, exactly like List.
	_, err = fx.messages.Search(context.Background(), fx.channel.ID, "u2", "deploy", 10)
	req.NoError(err)

	private, err := fx.channels.Create("secret", "", true, "u1")
	req.NoError(err)
	_, err = fx.messages.Search(context.Background(), private.ID, "u2", "deploy", 10)
	req.ErrorIs(err, errors.ErrNotChannelMember)
}
