package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"team-chat/auth"
	"team-chat/domain"
	"team-chat/moderation"
	"team-chat/observability"
	"team-chat/realtime"
	"team-chat/repositories"
	"team-chat/services"
)

const testPassword = "Sup3rSecret!pass"

type fixture struct {
	ts  *httptest.Server
	req *require.Assertions
}

func newTestServer(t *testing.T) *fixture {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })

	users := repositories.NewUserRepository(db)
	channels := repositories.NewChannelRepository(db)
	messages := repositories.NewMessageRepository(db, index, log, 50)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	req.NoError(err)

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	authService := services.NewAuthService(users, issuer)
	channelService := services.NewChannelService(channels)
	messageService := services.NewMessageService(messages, channels, &moderator)

	lookup := func(userID string) (domain.Profile, error) {
		user, err := users.GetUserByID(userID)
		if err != nil {
			return domain.Profile{}, err
		}
		return user.Profile(), nil
	}
	presence := realtime.NewPresence(lookup, log)
	hub := realtime.NewHub(presence, channelService.CanAccess, log)
	ws := realtime.NewHandler(hub, issuer, func(*http.Request) bool { return true }, log)

	monitor, err := observability.NewMonitor(log)
	req.NoError(err)

	handlers := NewHandlers(authService, channelService, messageService, users, issuer, monitor, hub, log)
	ts := httptest.NewServer(NewMux(handlers, ws, "*"))
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, req: req}
}

// do sends a JSON request, optionally authenticated, and returns the
// response with its decoded body.
func (f *fixture) do(method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		f.req.NoError(err)
		reader = bytes.NewReader(raw)
	}
	request, err := http.NewRequest(method, f.ts.URL+path, reader)
	f.req.NoError(err)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := http.DefaultClient.Do(request)
	f.req.NoError(err)
	defer response.Body.Close()

	decoded := map[string]json.RawMessage{}
	raw, err := io.ReadAll(response.Body)
	f.req.NoError(err)
	if len(raw) > 0 {
		f.req.NoError(json.Unmarshal(raw, &decoded))
	}
	return response, decoded
}

func (f *fixture) signup(name, email string) (userView, string) {
	response, body := f.do(http.MethodPost, "/api/auth/signup", "", signupRequest{
		Name:     name,
		Email:    email,
		Password: testPassword,
	})
	f.req.Equal(http.StatusCreated, response.StatusCode)

	var user userView
	f.req.NoError(json.Unmarshal(body["user"], &user))
	var token string
	f.req.NoError(json.Unmarshal(body["token"], &token))
	return user, token
}

func (f *fixture) createChannel(token, name string, private bool) domain.Channel {
	response, body := f.do(http.MethodPost, "/api/channels", token, createChannelRequest{
		Name:      name,
		IsPrivate: private,
	})
	f.req.Equal(http.StatusCreated, response.StatusCode)

	var channel domain.Channel
	f.req.NoError(json.Unmarshal(body["channel"], &channel))
	return channel
}

func Test_AuthRoutes(t *testing.T) {
	f := newTestServer(t)
	req := f.req

	t.Run("should register and expose the account through /me", func(t *testing.T) {
		user, token := f.signup("alice", "alice@chat.dev")
		req.NotEmpty(user.ID)
		req.Equal("alice", user.Name)

		response, body := f.do(http.MethodGet, "/api/auth/me", token, nil)
		req.Equal(http.StatusOK, response.StatusCode)

		var me userView
		req.NoError(json.Unmarshal(body["user"], &me))
		req.Equal(user.ID, me.ID)
	})

	t.Run("should refuse a duplicate email", func(t *testing.T) {
		f.signup("bob", "bob@chat.dev")
		response, _ := f.do(http.MethodPost, "/api/auth/signup", "", signupRequest{
			Name:     "bob again",
			Email:    "bob@chat.dev",
			Password: testPassword,
		})
		req.Equal(http.StatusConflict, response.StatusCode)
	})

	t.Run("should log in with the right password and refuse the wrong one", func(t *testing.T) {
		f.signup("carol", "carol@chat.dev")

		response, _ := f.do(http.MethodPost, "/api/auth/login", "", loginRequest{
			Email:    "carol@chat.dev",
			Password: testPassword,
		})
		req.Equal(http.StatusOK, response.StatusCode)

		response, _ = f.do(http.MethodPost, "/api/auth/login", "", loginRequest{
			Email:    "carol@chat.dev",
			Password: "WrongPassword1!x",
		})
		req.Equal(http.StatusUnauthorized, response.StatusCode)
	})

	t.Run("should answer 400 on invalid signup fields", func(t *testing.T) {
		response, _ := f.do(http.MethodPost, "/api/auth/signup", "", signupRequest{
			Name:     "dave",
			Email:    "not-an-email",
			Password: testPassword,
		})
		req.Equal(http.StatusBadRequest, response.StatusCode)
	})

	t.Run("should refuse protected routes without a token", func(t *testing.T) {
		response, _ := f.do(http.MethodGet, "/api/auth/me", "", nil)
		req.Equal(http.StatusUnauthorized, response.StatusCode)

		response, _ = f.do(http.MethodGet, "/api/channels", "garbage-token", nil)
		req.Equal(http.StatusUnauthorized, response.StatusCode)
	})
}

func Test_ChannelRoutes(t *testing.T) {
	f := newTestServer(t)
	req := f.req

	_, aliceToken := f.signup("alice", "alice@chat.dev")
	_, bobToken := f.signup("bob", "bob@chat.dev")

	t.Run("should create and list channels", func(t *testing.T) {
		created := f.createChannel(aliceToken, "General", false)
		req.Equal("general", created.Name)

		response, body := f.do(http.MethodGet, "/api/channels", bobToken, nil)
		req.Equal(http.StatusOK, response.StatusCode)

		var channels []domain.Channel
		req.NoError(json.Unmarshal(body["channels"], &channels))
		req.Len(channels, 1)
		req.Equal(created.ID, channels[0].ID)
	})

	t.Run("should let a user join a public channel", func(t *testing.T) {
		channel := f.createChannel(aliceToken, "open-space", false)

		response, body := f.do(http.MethodPost, "/api/channels/"+channel.ID+"/join", bobToken, nil)
		req.Equal(http.StatusOK, response.StatusCode)

		var joined domain.Channel
		req.NoError(json.Unmarshal(body["channel"], &joined))
		req.Len(joined.Members, 2)
	})

	t.Run("should hide a private channel from outsiders", func(t *testing.T) {
		channel := f.createChannel(aliceToken, "secret-base", true)

		response, _ := f.do(http.MethodGet, "/api/channels/"+channel.ID, bobToken, nil)
		req.Equal(http.StatusForbidden, response.StatusCode)

		response, _ = f.do(http.MethodPost, "/api/channels/"+channel.ID+"/join", bobToken, nil)
		req.Equal(http.StatusForbidden, response.StatusCode)
	})

	t.Run("should return 404 for an unknown channel", func(t *testing.T) {
		response, _ := f.do(http.MethodGet, "/api/channels/does-not-exist", aliceToken, nil)
		req.Equal(http.StatusNotFound, response.StatusCode)
	})
}

func Test_MessageRoutes(t *testing.T) {
	f := newTestServer(t)
	req := f.req

	_, aliceToken := f.signup("alice", "alice@chat.dev")
	_, bobToken := f.signup("bob", "bob@chat.dev")
	channel := f.createChannel(aliceToken, "general", false)

	t.Run("should post a censored message and read it back", func(t *testing.T) {
		response, body := f.do(http.MethodPost, "/api/channels/"+channel.ID+"/messages", aliceToken, postMessageRequest{
			Text: "the badger escaped",
		})
		req.Equal(http.StatusCreated, response.StatusCode)

		var posted domain.Message
		req.NoError(json.Unmarshal(body["message"], &posted))
		req.Equal("the ****** escaped", posted.Text)

		response, body = f.do(http.MethodGet, "/api/channels/"+channel.ID+"/messages", aliceToken, nil)
		req.Equal(http.StatusOK, response.StatusCode)

		var messages []domain.Message
		req.NoError(json.Unmarshal(body["messages"], &messages))
		req.Len(messages, 1)
		req.Equal(posted.ID, messages[0].ID)
	})

	t.Run("should refuse a post from a non member", func(t *testing.T) {
		response, _ := f.do(http.MethodPost, "/api/channels/"+channel.ID+"/messages", bobToken, postMessageRequest{
			Text: "hello",
		})
		req.Equal(http.StatusForbidden, response.StatusCode)
	})

	t.Run("should page through history with the before cursor", func(t *testing.T) {
		room := f.createChannel(aliceToken, "history", false)
		for i := 0; i < 5; i++ {
			response, _ := f.do(http.MethodPost, "/api/channels/"+room.ID+"/messages", aliceToken, postMessageRequest{
				Text: fmt.Sprintf("note %d", i),
			})
			req.Equal(http.StatusCreated, response.StatusCode)
		}

		response, body := f.do(http.MethodGet, "/api/channels/"+room.ID+"/messages?limit=2", aliceToken, nil)
		req.Equal(http.StatusOK, response.StatusCode)

		var page messagePage
		req.NoError(json.Unmarshal(body["messages"], &page.Messages))
		req.NoError(json.Unmarshal(body["hasMore"], &page.HasMore))
		req.NoError(json.Unmarshal(body["nextCursor"], &page.NextCursor))
		req.Len(page.Messages, 2)
		req.Equal("note 4", page.Messages[0].Text)
		req.True(page.HasMore)
		req.NotNil(page.NextCursor)

		response, body = f.do(http.MethodGet, "/api/channels/"+room.ID+"/messages?limit=2&before="+*page.NextCursor, aliceToken, nil)
		req.Equal(http.StatusOK, response.StatusCode)
		req.NoError(json.Unmarshal(body["messages"], &page.Messages))
		req.Len(page.Messages, 2)
		req.Equal("note 2", page.Messages[0].Text)
	})

	t.Run("should search within the channel", func(t *testing.T) {
		room := f.createChannel(aliceToken, "findable", false)
		for _, text := range []string{"deploy started", "deploy finished", "lunch time"} {
			response, _ := f.do(http.MethodPost, "/api/channels/"+room.ID+"/messages", aliceToken, postMessageRequest{Text: text})
			req.Equal(http.StatusCreated, response.StatusCode)
		}

		response, body := f.do(http.MethodGet, "/api/channels/"+room.ID+"/messages/search?q=deploy", aliceToken, nil)
		req.Equal(http.StatusOK, response.StatusCode)

		var hits []domain.Message
		req.NoError(json.Unmarshal(body["messages"], &hits))
		req.Len(hits, 2)
	})

	t.Run("should refuse an empty message", func(t *testing.T) {
		response, _ := f.do(http.MethodPost, "/api/channels/"+channel.ID+"/messages", aliceToken, postMessageRequest{
			Text: "   ",
		})
		req.Equal(http.StatusBadRequest, response.StatusCode)
	})
}

func Test_AvatarRoutes(t *testing.T) {
	f := newTestServer(t)
	req := f.req

	user, token := f.signup("alice", "alice@chat.dev")

	// Smallest payload mimetype recognizes as PNG.
	pngBytes := []byte("\x89PNG\r\n\x1a\n0000000000")

	upload := func(field string, data []byte) *http.Response {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile(field, "avatar.png")
		req.NoError(err)
		_, err = part.Write(data)
		req.NoError(err)
		req.NoError(writer.Close())

		request, err := http.NewRequest(http.MethodPut, f.ts.URL+"/api/auth/me/avatar", &buf)
		req.NoError(err)
		request.Header.Set("Content-Type", writer.FormDataContentType())
		request.Header.Set("Authorization", "Bearer "+token)

		response, err := http.DefaultClient.Do(request)
		req.NoError(err)
		return response
	}

	t.Run("should store a PNG and serve it back publicly", func(t *testing.T) {
		response := upload("avatar", pngBytes)
		defer response.Body.Close()
		req.Equal(http.StatusOK, response.StatusCode)

		served, err := http.Get(f.ts.URL + "/api/avatars/" + user.ID)
		req.NoError(err)
		defer served.Body.Close()
		req.Equal(http.StatusOK, served.StatusCode)
		req.Equal("image/png", served.Header.Get("Content-Type"))

		data, err := io.ReadAll(served.Body)
		req.NoError(err)
		req.Equal(pngBytes, data)
	})

	t.Run("should refuse a non image payload", func(t *testing.T) {
		response := upload("avatar", []byte("just some text, definitely not an image"))
		defer response.Body.Close()
		req.Equal(http.StatusBadRequest, response.StatusCode)
	})

	t.Run("should return 404 for a user without an avatar", func(t *testing.T) {
		other, _ := f.signup("bob", "bob@chat.dev")
		served, err := http.Get(f.ts.URL + "/api/avatars/" + other.ID)
		req.NoError(err)
		defer served.Body.Close()
		req.Equal(http.StatusNotFound, served.StatusCode)
	})
}

func Test_StatusRoutes(t *testing.T) {
	f := newTestServer(t)
	req := f.req

	t.Run("should answer healthz without auth", func(t *testing.T) {
		response, body := f.do(http.MethodGet, "/healthz", "", nil)
		req.Equal(http.StatusOK, response.StatusCode)
		req.JSONEq(`"ok"`, string(body["status"]))
	})

	t.Run("should expose process stats", func(t *testing.T) {
		response, body := f.do(http.MethodGet, "/status", "", nil)
		req.Equal(http.StatusOK, response.StatusCode)

		var pid int
		req.NoError(json.Unmarshal(body["pid"], &pid))
		req.NotZero(pid)
	})
}
