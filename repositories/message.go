package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"

	"team-chat/domain"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(channelID string, limit int, cursor *string) ([]domain.Message, *string, bool, error)
	SearchMessages(ctx context.Context, channelID, query string, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db           *badger.DB
	index        *bluge.Writer
	log          *slog.Logger
	defaultLimit int
}

func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger, defaultLimit int) MessageRepository {
	return MessageRepository{db: db, index: index, log: log, defaultLimit: defaultLimit}
}

// messageKey formats the Badger key as "msg:{channel_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func messageKey(message domain.Message) string {
	return fmt.Sprintf("msg:%s:%019d:%s",
		message.ChannelID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

// StoreMessage persists a message in BadgerDB and mirrors its text into the
// Bluge index under the same key, so search hits resolve straight back to
// the stored record.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := messageKey(message)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return err
	}

	doc := bluge.NewDocument(key).
		AddField(bluge.NewTextField("text", message.Text)).
		AddField(bluge.NewKeywordField("channel", message.ChannelID)).
		AddField(bluge.NewDateTimeField("created_at", message.CreatedAt))
	if err = m.index.Update(doc.ID(), doc); err != nil {
		// The durable copy is already in Badger; a stale index only degrades search.
		m.log.Error("Failed to index message", "key", key, "err", err)
	}
	return nil
}

// GetMessages retrieves messages for a channel using a reverse prefix scan,
// newest first. Thanks to the padded timestamp in the key, messages are
// naturally sorted by time. The returned cursor points at the oldest message
// of the page; passing it back fetches the next (older) page. The boolean
// reports whether older messages remain beyond the page.
func (m MessageRepository) GetMessages(channelID string, limit int, cursor *string) ([]domain.Message, *string, bool, error) {
	// Bounds are enforced at the HTTP layer; here a missing limit just
	// falls back to the configured page size.
	if limit <= 0 {
		limit = m.defaultLimit
	}

	var byteMessages [][]byte
	var lastKey string
	var hasMore bool

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", channelID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		// A cursor points at an already-delivered message; skip it.
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(byteMessages) == limit {
				hasMore = true
				break
			}
			item := it.Item()
			// Memorize the cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, value)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, false, err
	}

	var messages []domain.Message
	for _, b := range byteMessages {
		var message domain.Message
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, nil, false, err
		}
		messages = append(messages, message)
	}

	var nextCursor *string
	if hasMore {
		nextCursor = &lastKey
	}
	return messages, nextCursor, hasMore, nil
}

// SearchMessages runs a full-text query over the channel's messages and
// resolves the hits back through Badger. Results come in relevance order.
func (m MessageRepository) SearchMessages(ctx context.Context, channelID, query string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = m.defaultLimit
	}

	reader, err := m.index.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("text")).
		AddMust(bluge.NewTermQuery(channelID).SetField("channel"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var keys []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				keys = append(keys, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	var messages []domain.Message
	err = m.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err != nil {
				// Indexed but since removed from storage; skip.
				m.log.Debug("Search hit without stored message", "key", key)
				continue
			}
			err = item.Value(func(value []byte) error {
				var message domain.Message
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				messages = append(messages, message)
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
	return messages, nil
}
