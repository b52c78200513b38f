package editor

import (
	"context"

	"github.com/alfredjeanlab/folio/internal/model"
)

// Inbox is the editor's view of the messages collection.
type Inbox struct {
	e *Editor
}

// Inbox returns the message inbox backed by e.
func (e *Editor) Inbox() *Inbox {
	return &Inbox{e: e}
}

// Messages returns a copy of the messages, newest first.
func (in *Inbox) Messages() []model.Message {
	in.e.mu.Lock()
	defer in.e.mu.Unlock()
	if in.e.doc == nil {
		return nil
	}
	out := make([]model.Message, len(in.e.doc.Messages))
	copy(out, in.e.doc.Messages)
	return out
}

// UnreadCount returns the number of unread messages.
func (in *Inbox) UnreadCount() int {
	in.e.mu.Lock()
	defer in.e.mu.Unlock()
	if in.e.doc == nil {
		return 0
	}
	return in.e.doc.UnreadMessages()
}

// MarkRead flags one message as read. found is false for an unknown id.
func (in *Inbox) MarkRead(ctx context.Context, id string) (found bool, err error) {
	return in.setRead(ctx, id, true)
}

// MarkUnread clears the read flag of one message.
func (in *Inbox) MarkUnread(ctx context.Context, id string) (found bool, err error) {
	return in.setRead(ctx, id, false)
}

func (in *Inbox) setRead(ctx context.Context, id string, read bool) (bool, error) {
	e := in.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return false, ErrNotLoaded
	}
	i := messageIndex(e.doc, id)
	if i < 0 {
		return false, nil
	}
	if e.doc.Messages[i].Read == read {
		return true, nil
	}
	return true, e.mutate(ctx, func(doc *model.Document) error {
		doc.Messages[i].Read = read
		return nil
	})
}

// MarkAllRead flags every message as read with a single save and returns
// how many changed. Nothing is saved when all messages are already read.
func (in *Inbox) MarkAllRead(ctx context.Context) (int, error) {
	e := in.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return 0, ErrNotLoaded
	}
	n := e.doc.UnreadMessages()
	if n == 0 {
		return 0, nil
	}
	err := e.mutate(ctx, func(doc *model.Document) error {
		for i := range doc.Messages {
			doc.Messages[i].Read = true
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes a message. found is false for an unknown id.
func (in *Inbox) Delete(ctx context.Context, id string) (found bool, err error) {
	return in.e.Delete(ctx, model.CollectionMessages, id)
}

func messageIndex(doc *model.Document, id string) int {
	for i, m := range doc.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}
