// Command tester runs an end-to-end smoke scenario against a live server:
// two accounts sign up, open websocket sessions, share a channel and
// exchange a message. Every expected event is printed as it arrives.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "API base URL")
	wsBase := flag.String("ws", "ws://localhost:8080", "Websocket base URL")
	flag.Parse()

	banner("1. Creating two accounts")
	suffix := uuid.NewString()[:8]
	alice := signup(*base, "alice-"+suffix, suffix+"-alice@smoke.test")
	bob := signup(*base, "bob-"+suffix, suffix+"-bob@smoke.test")

	banner("2. Opening websocket sessions")
	aliceConn := dial(*wsBase, alice.token)
	defer aliceConn.Close()
	bobConn := dial(*wsBase, bob.token)
	defer bobConn.Close()

	// Both sessions receive the full presence list on connect, and the first
	// session gets a second broadcast when the second one appears.
	printEvent("alice", readEvent(aliceConn))
	printEvent("bob", readEvent(bobConn))
	printEvent("alice", readEvent(aliceConn))

	banner("3. Creating and joining a channel")
	channelID := createChannel(*base, alice.token, "smoke-"+suffix)
	joinChannel(*base, bob.token, channelID)
	sendEvent(aliceConn, "joinChannel", map[string]string{"channelId": channelID})
	sendEvent(bobConn, "joinChannel", map[string]string{"channelId": channelID})
	time.Sleep(200 * time.Millisecond)

	banner("4. Posting a message and relaying it")
	message := postMessage(*base, alice.token, channelID, "hello from the smoke tester")
	sendEvent(aliceConn, "sendMessage", map[string]any{
		"channelId": channelID,
		"message":   message,
	})

	printEvent("alice", readEvent(aliceConn))
	printEvent("bob", readEvent(bobConn))

	color.New(color.BgBlack, color.FgGreen).Println("\nScenario completed")
}

func banner(title string) {
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render("\n--- " + title + " ---"))
}

type account struct {
	id    string
	token string
}

func signup(base, name, email string) account {
	body := postJSON(base+"/api/auth/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "Sm0keTest!pass42",
	})
	var parsed struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	mustUnmarshal(body, &parsed)
	fmt.Printf("Account %s ready (%s)\n", name, parsed.User.ID[:8])
	return account{id: parsed.User.ID, token: parsed.Token}
}

func createChannel(base, token, name string) string {
	body := postJSON(base+"/api/channels", token, map[string]any{"name": name})
	var parsed struct {
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	mustUnmarshal(body, &parsed)
	fmt.Printf("Channel %s created (%s)\n", name, parsed.Channel.ID[:8])
	return parsed.Channel.ID
}

func joinChannel(base, token, channelID string) {
	postJSON(base+"/api/channels/"+channelID+"/join", token, nil)
	fmt.Println("Second account joined the channel")
}

func postMessage(base, token, channelID, text string) json.RawMessage {
	body := postJSON(base+"/api/channels/"+channelID+"/messages", token, map[string]string{"text": text})
	var parsed struct {
		Message json.RawMessage `json:"message"`
	}
	mustUnmarshal(body, &parsed)
	return parsed.Message
}

func postJSON(url, token string, payload any) []byte {
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			log.Fatalf("Encoding error: %v", err)
		}
	}
	request, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		log.Fatalf("Request error: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		log.Fatalf("HTTP error on %s: %v", url, err)
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		log.Fatalf("Unexpected status %d on %s", response.StatusCode, url)
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(response.Body); err != nil {
		log.Fatalf("Read error: %v", err)
	}
	return out.Bytes()
}

func dial(wsBase, token string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws?token="+token, nil)
	if err != nil {
		log.Fatalf("Websocket dial failed: %v", err)
	}
	return conn
}

func sendEvent(conn *websocket.Conn, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Encoding error: %v", err)
	}
	frame, err := json.Marshal(map[string]json.RawMessage{
		"event": mustMarshal(event),
		"data":  data,
	})
	if err != nil {
		log.Fatalf("Encoding error: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		log.Fatalf("Websocket write failed: %v", err)
	}
}

func readEvent(conn *websocket.Conn) []byte {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("Websocket read failed: %v", err)
	}
	return data
}

func printEvent(who string, frame []byte) {
	var parsed struct {
		Event string `json:"event"`
	}
	mustUnmarshal(frame, &parsed)
	fmt.Printf("[%s] received %q (%d bytes)\n", who, parsed.Event, len(frame))
}

func mustUnmarshal(data []byte, dst any) {
	if err := json.Unmarshal(data, dst); err != nil {
		log.Fatalf("Decoding error: %v (payload: %s)", err, data)
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Fatalf("Encoding error: %v", err)
	}
	return data
}
