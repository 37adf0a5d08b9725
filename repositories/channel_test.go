package repositories

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"team-chat/domain"
	"team-chat/errors"
)

func TestChannelRepository_Create_Lowercases_And_Adds_Creator(t *testing.T) {
	req := require.New(t)
	repo := NewChannelRepository(openTestDB(t))

	channel, err := repo.CreateChannel(" General ", "watercooler", false, "u1")
	req.NoError(err)
	req.Equal("general", channel.Name)
	req.Equal([]string{"u1"}, channel.Members)
	req.Equal("u1", channel.CreatedBy)

	fetched, err := repo.GetChannel(channel.ID)
	req.NoError(err)
	req.Equal(channel, fetched)
}

func TestChannelRepository_Duplicate_Name_Rejected(t *testing.T) {
	req := require.New(t)
	repo := NewChannelRepository(openTestDB(t))

	_, err := repo.CreateChannel("general", "", false, "u1")
	req.NoError(err)

	// Same name with different casing collides
	_, err = repo.CreateChannel("GENERAL", "", false, "u2")
	req.ErrorIs(err, errors.ErrChannelNameTaken)
}

func TestChannelRepository_ListVisible_Filters_Private(t *testing.T) {
	req := require.New(t)
	repo := NewChannelRepository(openTestDB(t))

	// Given one public channel, one private channel with u1, one private without
	_, err := repo.CreateChannel("bravo", "", false, "u9")
	req.NoError(err)
	_, err = repo.CreateChannel("alpha", "", true, "u1")
	req.NoError(err)
	_, err = repo.CreateChannel("charlie", "", true, "u9")
	req.NoError(err)

	// When u1 lists channels
	visible, err := repo.ListVisible("u1")
	req.NoError(err)

	// Then u1 sees the public one and their private one, sorted by name
	names := lo.Map(visible, func(ch domain.Channel, _ int) string { return ch.Name })
	req.Equal([]string{"alpha", "bravo"}, names)
}

func TestChannelRepository_AddMember_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repo := NewChannelRepository(openTestDB(t))

	channel, err := repo.CreateChannel("general", "", true, "u1")
	req.NoError(err)

	req.NoError(repo.AddMember(channel.ID, "u2"))
	req.NoError(repo.AddMember(channel.ID, "u2"))

	fetched, err := repo.GetChannel(channel.ID)
	req.NoError(err)
	req.Equal([]string{"u1", "u2"}, fetched.Members)

	// Unknown channel
	req.ErrorIs(repo.AddMember("missing", "u2"), errors.ErrChannelNotFound)
}
