// Command badger_inspect dumps the chat database in a readable form: users,
// channels and the most recent messages per channel. It opens the store
// read-only so it can run next to a live server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"team-chat/domain"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "", "Restrict the dump to one key prefix (user:, channel:, msg:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *prefix == "" || strings.HasPrefix("user:", *prefix) {
		dumpUsers(db)
	}
	if *prefix == "" || strings.HasPrefix("channel:", *prefix) {
		dumpChannels(db)
	}
	if *prefix == "" || strings.HasPrefix("msg:", *prefix) {
		dumpMessages(db)
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}

func newTable(title string, headers []string) *tablewriter.Table {
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(title))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func dumpUsers(db *badger.DB) {
	table := newTable(" USERS ", []string{"ID", "Name", "Email", "Status", "Created"})
	err := scanPrefix(db, "user:id:", func(key string, val []byte) {
		var user domain.User
		if err := json.Unmarshal(val, &user); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}
		table.Append([]string{shortID(user.ID), user.Name, user.Email, user.Status, user.CreatedAt.Format("2006-01-02 15:04")})
	})
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
	fmt.Println()
}

func dumpChannels(db *badger.DB) {
	table := newTable(" CHANNELS ", []string{"ID", "Name", "Private", "Members", "Created By"})
	err := scanPrefix(db, "channel:", func(key string, val []byte) {
		// channelname: keys share no records with this prefix; the 8th byte
		// differs so ValidForPrefix never reaches them.
		var channel domain.Channel
		if err := json.Unmarshal(val, &channel); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}
		table.Append([]string{
			shortID(channel.ID),
			channel.Name,
			fmt.Sprintf("%t", channel.IsPrivate),
			fmt.Sprintf("%d", len(channel.Members)),
			shortID(channel.CreatedBy),
		})
	})
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
	fmt.Println()
}

func dumpMessages(db *badger.DB) {
	table := newTable(" MESSAGES ", []string{"Channel", "Sender", "Time", "Lang", "Text"})
	err := scanPrefix(db, "msg:", func(key string, val []byte) {
		var message domain.Message
		if err := json.Unmarshal(val, &message); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}
		text := message.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		table.Append([]string{
			shortID(message.ChannelID),
			shortID(message.SenderID),
			message.CreatedAt.Format("15:04:05"),
			message.Language,
			text,
		})
	})
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
	fmt.Println()
}

func scanPrefix(db *badger.DB, prefix string, visit func(key string, val []byte)) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(v []byte) error {
				visit(key, v)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
