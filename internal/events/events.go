package events

import (
	"context"

	"github.com/alfredjeanlab/folio/internal/model"
)

// Event topic constants
const (
	TopicConfigUpdated  = "folio.config.updated"
	TopicMessageCreated = "folio.message.created"
	TopicMessageUpdated = "folio.message.updated"
	TopicMessageDeleted = "folio.message.deleted"
	TopicBackupCreated  = "folio.backup.created"
	TopicImageUploaded  = "folio.image.uploaded"
	TopicImageDeleted   = "folio.image.deleted"
	TopicVisitRecorded  = "folio.visit.recorded"

	// TopicAll matches every folio topic.
	TopicAll = "folio.>"
)

// Event types

type ConfigUpdated struct {
	LastUpdated string `json:"last_updated"`
	Via         string `json:"via"` // "http" or "grpc"
}

type MessageCreated struct {
	Message model.Message `json:"message"`
}

type MessageUpdated struct {
	Message model.Message `json:"message"`
}

type MessageDeleted struct {
	MessageID string `json:"message_id"`
}

type BackupCreated struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Destination string `json:"destination"`
}

type ImageUploaded struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type ImageDeleted struct {
	Path string `json:"path"`
}

type VisitRecorded struct {
	TotalVisitors int `json:"total_visitors"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher drops every event. The server uses it when FOLIO_NATS_URL
// is not set; local SSE subscribers are fed separately.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (*NoopPublisher) Close() error { return nil }
