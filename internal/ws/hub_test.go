package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID uint) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 4)}
}

func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	default:
		t.Fatal("expected a message, got none")
		return Event{}
	}
}

func TestRegisterAutoSubscribesAlertTopic(t *testing.T) {
	hub := NewHub()
	c := newTestClient(7)
	hub.Register(c)

	assert.Equal(t, 1, hub.SubscriberCount(AlertTopic(7)))
	hub.Publish(AlertTopic(7), Event{Event: "alert.created"})
	ev := recv(t, c)
	assert.Equal(t, "alert.created", ev.Event)
}

func TestPublishOnlyReachesMatchingSubscribers(t *testing.T) {
	hub := NewHub()
	a := newTestClient(1)
	b := newTestClient(2)
	hub.Register(a)
	hub.Register(b)

	hub.Publish(AlertTopic(1), Event{Event: "alert.created"})
	assert.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 0)
}

func TestSubscribeUnsubscribeTopic(t *testing.T) {
	hub := NewHub()
	c := newTestClient(3)
	hub.Register(c)

	topic := ReportTopic("THEFT")
	hub.Subscribe(c, topic)
	assert.Equal(t, 1, hub.SubscriberCount(topic))

	hub.Publish(topic, Event{Event: "report.created"})
	assert.Len(t, c.Send, 1)
	<-c.Send

	hub.Unsubscribe(c, topic)
	assert.Equal(t, 0, hub.SubscriberCount(topic))
	hub.Publish(topic, Event{Event: "report.created"})
	assert.Len(t, c.Send, 0)
}

func TestCloseUnregistersFromAllTopics(t *testing.T) {
	hub := NewHub()
	c := newTestClient(4)
	hub.Register(c)
	hub.Subscribe(c, ReportTopic("THEFT"))
	hub.Subscribe(c, ReportTopic("SUSPICIOUS"))
	require.Equal(t, 1, hub.ClientCount())

	c.Close()
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.SubscriberCount(AlertTopic(4)))
	assert.Equal(t, 0, hub.SubscriberCount(ReportTopic("THEFT")))
	assert.Equal(t, 0, hub.SubscriberCount(ReportTopic("SUSPICIOUS")))

	// Closing twice is a no-op.
	c.Close()
}

func TestPublishNeverBlocksOnSlowConsumer(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: 5, Send: make(chan []byte, 1)}
	hub.Register(c)

	// Fill the buffer, then publish past it. The extra messages are
	// dropped rather than stalling the caller.
	hub.Publish(AlertTopic(5), Event{Event: "first"})
	hub.Publish(AlertTopic(5), Event{Event: "second"})
	hub.Publish(AlertTopic(5), Event{Event: "third"})

	ev := recv(t, c)
	assert.Equal(t, "first", ev.Event)
	assert.Len(t, c.Send, 0)
}

func TestPublishDuringCloseDoesNotPanic(t *testing.T) {
	// A recipient disconnecting in the middle of a fan-out must not take
	// down the publishing goroutine.
	for i := 0; i < 100; i++ {
		hub := NewHub()
		c := newTestClient(8)
		hub.Register(c)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 50; j++ {
				hub.Publish(AlertTopic(8), Event{Event: "alert.created"})
			}
		}()
		c.Close()
		<-done
	}
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	hub := NewHub()
	c := newTestClient(9)
	hub.Register(c)
	c.Close()

	hub.Publish(AlertTopic(9), Event{Event: "alert.created"})
	_, open := <-c.Send
	assert.False(t, open)
}

func TestSubscribeIgnoresUnregisteredClient(t *testing.T) {
	hub := NewHub()
	c := newTestClient(6)
	hub.Subscribe(c, ReportTopic("THEFT"))
	assert.Equal(t, 0, hub.SubscriberCount(ReportTopic("THEFT")))
}

func TestValidTopic(t *testing.T) {
	assert.True(t, validTopic("reports:THEFT"))
	assert.True(t, validTopic("reports:STOLEN_VEHICLE"))
	assert.False(t, validTopic("reports:NOPE"))
	assert.False(t, validTopic("alerts:1"))
	assert.False(t, validTopic(""))
}
