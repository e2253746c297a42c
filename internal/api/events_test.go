package api

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestListenStreamsCommittedMessages(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := ts.registerAndLogin(t, "alice", "password1")
	bobToken := ts.registerAndLogin(t, "bobby", "password1")

	resp, body := ts.do(t, http.MethodPost, "/api/v1/channels/", aliceToken, CreateChannelRequest{
		Name:     "general",
		IsPublic: true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create channel status = %d, body = %s", resp.StatusCode, body)
	}
	channelID := decodeBody[CreateChannelResponse](t, body).ChannelID

	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/join", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d", resp.StatusCode)
	}

	// bob opens the stream after joining so the snapshot includes the channel
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/channels/listen", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+bobToken)

	stream, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	defer stream.Body.Close()
	if stream.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d", stream.StatusCode)
	}
	if ct := stream.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(stream.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/messages", channelID), aliceToken, CreateMessageRequest{
		Content: "hello stream",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post message status = %d", resp.StatusCode)
	}

	var event, data string
	for event == "" || data == "" {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before the event arrived")
			}
			if v, found := strings.CutPrefix(line, "event: "); found {
				event = v
			}
			if v, found := strings.CutPrefix(line, "data: "); found {
				data = v
			}
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}

	if event != "message" {
		t.Errorf("event type = %q, want message", event)
	}
	if !strings.Contains(data, "hello stream") || !strings.Contains(data, channelID) {
		t.Errorf("event data = %q, want the posted message", data)
	}
}
