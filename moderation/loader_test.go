package moderation_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"team-chat/errors"
	"team-chat/moderation"
)

func Test_CensoredLoader(t *testing.T) {
	req := require.New(t)

	t.Run("should merge dictionaries and deduplicate words", func(t *testing.T) {
		fsys := fstest.MapFS{
			"words/en.txt": {Data: []byte("idiot\nloser\r\nidiot\n\n")},
			"words/fr.txt": {Data: []byte("cretin\nidiot\n")},
		}

		data, err := moderation.NewCensoredLoader(fsys).LoadAll("words")
		req.NoError(err)
		req.ElementsMatch([]string{"idiot", "loser", "cretin"}, data.Words)
		req.ElementsMatch([]string{"en", "fr"}, data.Languages)
	})

	t.Run("should ignore files that are not txt dictionaries", func(t *testing.T) {
		fsys := fstest.MapFS{
			"words/en.txt":    {Data: []byte("idiot\n")},
			"words/README.md": {Data: []byte("not a dictionary")},
		}

		data, err := moderation.NewCensoredLoader(fsys).LoadAll("words")
		req.NoError(err)
		req.Equal([]string{"idiot"}, data.Words)
		req.Equal([]string{"en"}, data.Languages)
	})

	t.Run("should fail on an empty dictionary set", func(t *testing.T) {
		fsys := fstest.MapFS{
			"words/en.txt": {Data: []byte("\n\n")},
		}

		_, err := moderation.NewCensoredLoader(fsys).LoadAll("words")
		req.ErrorIs(err, errors.ErrEmptyWords)
	})

	t.Run("should load the embedded defaults", func(t *testing.T) {
		data, err := moderation.LoadDefaultWordlists()
		req.NoError(err)
		req.NotEmpty(data.Words)
		req.Contains(data.Languages, "en")
	})
}
