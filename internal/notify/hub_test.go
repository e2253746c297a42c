package notify

import (
	"testing"
	"time"

	"parlor/internal/models"
)

func startTestHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

func waitForEvent(t *testing.T, sub *Subscriber) *Event {
	t.Helper()

	select {
	case event, ok := <-sub.C():
		if !ok {
			t.Fatal("subscriber channel closed while waiting for event")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestHubBroadcastsToSubscribedChannels(t *testing.T) {
	hub := startTestHub(t)

	sub := hub.Subscribe("usr_1", []string{"chn_a", "chn_b"})
	defer hub.Unsubscribe(sub)

	msg := &models.Message{ID: "msg_1", ChannelID: "chn_a", SenderID: "usr_2", Content: "hi"}
	hub.MessageCreated(msg)

	event := waitForEvent(t, sub)
	if event.Type != "message" || event.ChannelID != "chn_a" {
		t.Errorf("event = %+v, want message for chn_a", event)
	}
	if event.Message == nil || event.Message.ID != "msg_1" {
		t.Errorf("event message = %+v, want msg_1", event.Message)
	}
}

func TestHubFiltersByChannelSnapshot(t *testing.T) {
	hub := startTestHub(t)

	inside := hub.Subscribe("usr_1", []string{"chn_a"})
	outside := hub.Subscribe("usr_2", []string{"chn_b"})
	defer hub.Unsubscribe(inside)
	defer hub.Unsubscribe(outside)

	hub.MessageCreated(&models.Message{ID: "msg_1", ChannelID: "chn_a"})
	waitForEvent(t, inside)

	select {
	case event := <-outside.C():
		t.Fatalf("outside subscriber received %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := startTestHub(t)

	sub := hub.Subscribe("usr_1", []string{"chn_a"})
	hub.Unsubscribe(sub)

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("received event after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed after unsubscribe")
	}

	// safe to call again
	hub.Unsubscribe(sub)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := startTestHub(t)

	slow := hub.Subscribe("usr_slow", []string{"chn_a"})
	fast := hub.Subscribe("usr_fast", []string{"chn_a"})
	defer hub.Unsubscribe(fast)

	// overflow the slow subscriber's buffer without draining it
	for i := 0; i <= subscriberBufferSize; i++ {
		hub.MessageCreated(&models.Message{ID: "msg", ChannelID: "chn_a"})
		waitForEvent(t, fast)
	}

	// drain what was buffered; the channel must end up closed
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-slow.C():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("slow subscriber was not dropped")
		}
	}
}

func TestHubShutdownClosesSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sub := hub.Subscribe("usr_1", []string{"chn_a"})
	hub.Shutdown()

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("received event after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed on shutdown")
	}

	// post-shutdown calls must not block
	hub.MessageCreated(&models.Message{ID: "msg_1", ChannelID: "chn_a"})
	late := hub.Subscribe("usr_2", []string{"chn_a"})
	if _, ok := <-late.C(); ok {
		t.Fatal("post-shutdown subscriber received an event")
	}
	hub.Unsubscribe(late)
}
