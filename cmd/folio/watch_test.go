package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/alfredjeanlab/folio/internal/events"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestPrintEvent_Text(t *testing.T) {
	jsonOutput = false
	var buf bytes.Buffer
	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.Local)
	env := events.Envelope{Topic: events.TopicVisitRecorded, Data: []byte(`{"total_visitors":3}`)}
	if err := printEvent(&buf, env, at); err != nil {
		t.Fatal(err)
	}
	want := "05:06:07  folio.visit.recorded     {\"total_visitors\":3}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestPrintEvent_JSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	var buf bytes.Buffer
	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := printEvent(&buf, events.Envelope{Topic: "folio.backup.created", Data: []byte(`{"name":"b1"}`)}, at); err != nil {
		t.Fatal(err)
	}
	if err := printEvent(&buf, events.Envelope{Topic: "folio.other", Data: []byte("not json")}, at); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	var first struct {
		Time  string          `json:"time"`
		Topic string          `json:"topic"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Time != "2024-03-04T05:06:07Z" || first.Topic != "folio.backup.created" || string(first.Data) != `{"name":"b1"}` {
		t.Errorf("first line = %+v", first)
	}
	if strings.Contains(lines[1], `"data"`) {
		t.Errorf("invalid payload should be omitted: %s", lines[1])
	}
}

func TestPrintEvents_StopsAtLimit(t *testing.T) {
	jsonOutput = false
	ch := make(chan events.Envelope, 3)
	for i := 0; i < 3; i++ {
		ch <- events.Envelope{Topic: "folio.visit.recorded", Data: []byte(`{}`)}
	}
	var buf bytes.Buffer
	if err := printEvents(context.Background(), &buf, ch, 2); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("printed %d events, want 2", n)
	}
}

func TestPrintEvents_ClosedChannel(t *testing.T) {
	ch := make(chan events.Envelope)
	close(ch)
	if err := printEvents(context.Background(), &bytes.Buffer{}, ch, 0); err != nil {
		t.Fatal(err)
	}
}

func TestPrintEvents_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := printEvents(ctx, &bytes.Buffer{}, make(chan events.Envelope), 0); err != nil {
		t.Fatal(err)
	}
}

func TestSubscribeAll(t *testing.T) {
	url := startTestNATS(t)

	pub, err := events.NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()
	sub, err := events.NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, stop, err := subscribeAll(sub, []string{events.TopicVisitRecorded, "folio.message.*"})
	if err != nil {
		t.Fatalf("subscribeAll: %v", err)
	}

	ctx := context.Background()
	pub.Publish(ctx, events.TopicBackupCreated, events.BackupCreated{Name: "ignored"})
	pub.Publish(ctx, events.TopicVisitRecorded, events.VisitRecorded{TotalVisitors: 1})
	pub.Publish(ctx, events.TopicMessageDeleted, events.MessageDeleted{MessageID: "msg-1"})

	got := map[string]bool{}
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case env := <-ch:
			got[env.Topic] = true
		case <-timeout:
			t.Fatalf("timed out; received %v", got)
		}
	}
	if !got[events.TopicVisitRecorded] || !got[events.TopicMessageDeleted] || got[events.TopicBackupCreated] {
		t.Errorf("received %v", got)
	}

	stop()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("unexpected event after stop")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("merged channel not closed after stop")
	}
}
