package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/folio/internal/model"
)

func TestNoopPublisher_Publish(t *testing.T) {
	pub := &NoopPublisher{}
	err := pub.Publish(context.Background(), TopicConfigUpdated, ConfigUpdated{})
	if err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestPublishers_ImplementPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
	var _ Publisher = (*NATSPublisher)(nil)
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(TopicMessageCreated, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	event := MessageCreated{Message: model.Message{ID: "msg_1", FirstName: "Ada", Email: "ada@example.com"}}
	if err := pub.Publish(context.Background(), TopicMessageCreated, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pub.conn.Flush()

	select {
	case msg := <-ch:
		var got MessageCreated
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Message.ID != "msg_1" || got.Message.FirstName != "Ada" {
			t.Errorf("got message %+v", got.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNATSPublisher_PublishMultipleTopics(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 4)
	sub, err := nc.ChanSubscribe(TopicAll, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	events := []struct {
		topic string
		event any
	}{
		{TopicConfigUpdated, ConfigUpdated{LastUpdated: "2024-01-01T00:00:00Z", Via: "http"}},
		{TopicMessageDeleted, MessageDeleted{MessageID: "msg_2"}},
		{TopicBackupCreated, BackupCreated{Name: "backup_x.json", Size: 10}},
		{TopicImageDeleted, ImageDeleted{Path: "/assets/images/misc/a.png"}},
	}
	for _, tc := range events {
		if err := pub.Publish(context.Background(), tc.topic, tc.event); err != nil {
			t.Fatalf("Publish(%s): %v", tc.topic, err)
		}
	}
	pub.conn.Flush()

	for i := range events {
		select {
		case msg := <-ch:
			if msg.Subject != events[i].topic {
				t.Errorf("message %d subject = %q, want %q", i, msg.Subject, events[i].topic)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestNATSPublisher_Close(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Publishing after close should fail.
	err = pub.Publish(context.Background(), TopicConfigUpdated, ConfigUpdated{})
	if err == nil {
		t.Error("expected error publishing after close")
	}
}

func TestNATSPublisher_CloseFlushesPending(t *testing.T) {
	url := startTestNATS(t)

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()
	const n = 50
	ch := make(chan *nats.Msg, n)
	sub, err := nc.ChanSubscribe(TopicVisitRecorded, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	for i := range n {
		if err := pub.Publish(context.Background(), TopicVisitRecorded, VisitRecorded{TotalVisitors: i + 1}); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if !pub.conn.IsClosed() {
		t.Fatal("connection still open after Close returned")
	}

	for i := range n {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of %d events published before Close", i, n)
		}
	}
}

func TestNATSPublisher_CloseTwice(t *testing.T) {
	pub, err := NewNATSPublisher(startTestNATS(t))
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
