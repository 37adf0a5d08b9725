// Command viewer serves a read-only HTML inspector over a live chat store.
// BypassLockGuard lets it open the database while the server holds the lock.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"team-chat/domain"
	"team-chat/internal"
)

type viewerConfig struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	DebugPort      int    `env:"DEBUG_PORT,default=8090"`
}

func main() {
	_ = godotenv.Load()
	var config viewerConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	stats := func() map[string]any {
		return map[string]any{
			"Status": "Viewer Mode (Read-Only)",
			"Time":   time.Now().Format(time.RFC822),
		}
	}

	fmt.Printf("Viewer started at http://localhost:%d/inspect\n", config.DebugPort)
	internal.StartDebugServer(db, config.DebugPort, "/inspect", chatMapper, stats)
	select {}
}

// chatMapper decodes the JSON records behind the known key prefixes and
// falls back to the raw view for anything else.
func chatMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	switch {
	case strings.HasPrefix(key, "user:id:"):
		var user domain.User
		if err := json.Unmarshal(val, &user); err == nil {
			row.Type = "USER"
			row.ID = shorten(user.ID)
			row.Detail = fmt.Sprintf("%s <%s> [%s]", user.Name, user.Email, user.Status)
		}
	case strings.HasPrefix(key, "channel:"):
		var channel domain.Channel
		if err := json.Unmarshal(val, &channel); err == nil {
			row.Type = "CHANNEL"
			row.ID = shorten(channel.ID)
			row.Detail = fmt.Sprintf("%s private=%t members=%d", channel.Name, channel.IsPrivate, len(channel.Members))
		}
	case strings.HasPrefix(key, "msg:"):
		var message domain.Message
		if err := json.Unmarshal(val, &message); err == nil {
			row.Type = "MESSAGE"
			row.Detail = message.Text
			if message.Language != "" {
				row.Detail += " (" + message.Language + ")"
			}
		}
	}
	return row
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
