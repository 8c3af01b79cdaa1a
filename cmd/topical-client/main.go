// Command topical-client is a small terminal client for the relay: it joins
// a topic, prints everything the server sends, and relays stdin lines as chat
// messages. "/list" works like any other frame.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const defaultServer = "ws://localhost:8000/ws"

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: topical-client <username> <topic>")
		fmt.Fprintln(os.Stderr, "Example: topical-client alice sports")
		fmt.Fprintln(os.Stderr, "Set TOPICAL_SERVER to override "+defaultServer)
		os.Exit(1)
	}
	username, topic := os.Args[1], os.Args[2]

	server := os.Getenv("TOPICAL_SERVER")
	if server == "" {
		server = defaultServer
	}

	conn, _, err := websocket.DefaultDialer.Dial(server, nil)
	if err != nil {
		log.Fatalf("connect to %s: %v", server, err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("JOIN %s %s", topic, username))); err != nil {
		log.Fatalf("join: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				fmt.Println("connection closed:", err)
				return
			}
			printFrame(payload)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			log.Fatalf("send: %v", err)
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

// printFrame renders a server frame for the terminal, falling back to the
// raw payload for anything it does not recognize.
func printFrame(payload []byte) {
	var frame struct {
		Type         string `json:"type"`
		Topic        string `json:"topic"`
		Username     string `json:"username"`
		Message      string `json:"message"`
		Kind         string `json:"kind"`
		Detail       string `json:"detail"`
		ActiveTopics []struct {
			Name  string `json:"name"`
			Users int    `json:"users"`
		} `json:"active_topics"`
	}
	if err := json.Unmarshal(payload, &frame); err != nil {
		fmt.Println(string(payload))
		return
	}

	switch frame.Type {
	case "joined":
		fmt.Printf("* joined %q as %s\n", frame.Topic, frame.Username)
	case "message":
		fmt.Printf("[%s] %s: %s\n", frame.Topic, frame.Username, frame.Message)
	case "system":
		fmt.Printf("* %s\n", frame.Message)
	case "topics":
		fmt.Println("active topics:")
		for _, t := range frame.ActiveTopics {
			fmt.Printf("  %s (%d users)\n", t.Name, t.Users)
		}
	case "ack":
		// Delivery confirmations are noise in a terminal.
	case "error":
		fmt.Printf("! %s: %s\n", frame.Kind, frame.Detail)
	default:
		fmt.Println(string(payload))
	}
}
