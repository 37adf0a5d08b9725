// Command gen_test_data seeds a fresh store with demo accounts, channels
// and conversation history so the server has something to show right away.
package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"team-chat/auth"
	"team-chat/moderation"
	"team-chat/repositories"
	"team-chat/services"
)

type seedConfig struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
}

const seedPassword = "Demo4ccount!pass"

func main() {
	_ = godotenv.Load()
	var config seedConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logs.GetLoggerFromLevel(slog.LevelInfo)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLogger(nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Database opening failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	index, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search index opening failed: %v\n", err)
		os.Exit(1)
	}
	defer index.Close()

	users := repositories.NewUserRepository(db)
	channels := repositories.NewChannelRepository(db)
	messages := repositories.NewMessageRepository(db, index, log, 50)

	censored, err := moderation.LoadDefaultWordlists()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Wordlist loading failed: %v\n", err)
		os.Exit(1)
	}
	moderator, err := moderation.NewModerator(censored.Words, '*', log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Moderator setup failed: %v\n", err)
		os.Exit(1)
	}

	issuer := auth.NewTokenIssuer("seed-only", time.Hour)
	authService := services.NewAuthService(users, issuer)
	channelService := services.NewChannelService(channels)
	messageService := services.NewMessageService(messages, channels, &moderator)

	fmt.Println("Seeding demo data...")

	var userIDs []string
	for _, name := range []string{"alice", "bob", "carol"} {
		user, _, err := authService.Register(name, name+"@demo.chat", seedPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Account %s failed: %v\n", name, err)
			os.Exit(1)
		}
		if err := users.SetAvatar(user.ID, genAvatar(len(userIDs)), "image/png"); err != nil {
			fmt.Fprintf(os.Stderr, "Avatar for %s failed: %v\n", name, err)
			os.Exit(1)
		}
		userIDs = append(userIDs, user.ID)
		fmt.Printf("Account created: %s (%s)\n", name, user.ID[:8])
	}

	general, err := channelService.Create("general", "Everything else", false, userIDs[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Channel failed: %v\n", err)
		os.Exit(1)
	}
	random, err := channelService.Create("random", "Off topic", false, userIDs[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Channel failed: %v\n", err)
		os.Exit(1)
	}
	for _, id := range userIDs[1:] {
		if _, err := channelService.Join(general.ID, id); err != nil {
			fmt.Fprintf(os.Stderr, "Join failed: %v\n", err)
			os.Exit(1)
		}
	}

	script := []struct {
		channelID string
		sender    string
		text      string
	}{
		{general.ID, userIDs[0], "welcome to the demo workspace"},
		{general.ID, userIDs[1], "the search index is already populated"},
		{general.ID, userIDs[2], "try searching for the word index"},
		{random.ID, userIDs[1], "this channel only has one member"},
	}
	for _, line := range script {
		if _, err := messageService.Post(line.channelID, line.sender, line.text); err != nil {
			fmt.Fprintf(os.Stderr, "Message failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Done: %d accounts, 2 channels, %d messages\n", len(userIDs), len(script))
	fmt.Printf("Every account logs in with the password %q\n", seedPassword)
}

// genAvatar renders a small solid-color PNG so each demo account has a
// distinct image behind /api/avatars.
func genAvatar(n int) []byte {
	palette := []color.RGBA{
		{0x4c, 0xaf, 0x50, 0xff},
		{0x21, 0x96, 0xf3, 0xff},
		{0xff, 0x98, 0x00, 0xff},
	}
	c := palette[n%len(palette)]

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
