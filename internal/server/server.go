// Package server implements the portfolio backend: the configuration
// document API over HTTP and gRPC, uploads, the contact inbox, backups and
// the rendered public site.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/folio/internal/auth"
	"github.com/alfredjeanlab/folio/internal/events"
	"github.com/alfredjeanlab/folio/internal/idgen"
	"github.com/alfredjeanlab/folio/internal/media"
	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/ratelimit"
	"github.com/alfredjeanlab/folio/internal/render"
	"github.com/alfredjeanlab/folio/internal/store"
)

// Version is reported by the health endpoints.
const Version = model.SchemaVersion

// Options configures a Server. Store and Auth are required.
type Options struct {
	Store     store.Store
	Auth      *auth.Service
	Media     *media.Library
	Publisher events.Publisher
	Limiter   ratelimit.Limiter // rate limit for public message submission
	Renderer  *render.Renderer

	// AssetsDir, when set, is served under /assets/.
	AssetsDir string
	// SiteDir, when set, serves /css/ and /js/ from its subdirectories.
	SiteDir string
}

// Server holds the backend's dependencies. HTTP and gRPC handlers share the
// document operations defined here.
type Server struct {
	store     store.Store
	auth      *auth.Service
	media     *media.Library
	publisher events.Publisher
	limiter   ratelimit.Limiter
	renderer  *render.Renderer
	assetsDir string
	siteDir   string
	hub       *sseHub
	now       func() time.Time
}

// New returns a Server. A nil Publisher disables events and a nil Limiter
// disables rate limiting.
func New(opts Options) *Server {
	s := &Server{
		store:     opts.Store,
		auth:      opts.Auth,
		media:     opts.Media,
		publisher: opts.Publisher,
		limiter:   opts.Limiter,
		renderer:  opts.Renderer,
		assetsDir: opts.AssetsDir,
		siteDir:   opts.SiteDir,
		hub:       newSSEHub(),
		now:       time.Now,
	}
	if s.publisher == nil {
		s.publisher = &events.NoopPublisher{}
	}
	if s.limiter == nil {
		s.limiter = ratelimit.Unlimited{}
	}
	return s
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// Events returns a Publisher that sends through the server, so events from
// background jobs reach SSE clients too. Closing it leaves the server's
// publisher open.
func (s *Server) Events() events.Publisher { return serverPublisher{s} }

type serverPublisher struct{ s *Server }

func (p serverPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.s.publish(ctx, topic, event)
	return nil
}

func (serverPublisher) Close() error { return nil }

// publish emits an event to NATS and to connected SSE clients. Both are
// best-effort; failures are logged but do not fail the caller.
func (s *Server) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
		return
	}
	s.hub.broadcast(topic, payload)
}

// publicConfig returns the stored document without admin credentials.
func (s *Server) publicConfig(ctx context.Context) (*model.Document, error) {
	doc, err := s.store.GetDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return doc.Public(), nil
}

// replaceConfig replaces the stored document with doc, keeping the stored
// admin record whatever doc carries.
func (s *Server) replaceConfig(ctx context.Context, doc *model.Document, via string) (*model.Document, error) {
	saved, err := s.store.UpdateDocument(ctx, func(cur *model.Document) error {
		admin := cur.Admin
		*cur = *doc
		cur.Admin = admin
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	s.publish(ctx, events.TopicConfigUpdated, events.ConfigUpdated{
		LastUpdated: saved.Meta.LastUpdated,
		Via:         via,
	})
	return saved, nil
}

// deleteImage removes a stored image. It reports false when there was
// nothing at path.
func (s *Server) deleteImage(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, inputError("path is required")
	}
	if s.media == nil {
		return false, errors.New("media storage is not configured")
	}
	err := s.media.Delete(ctx, path)
	switch {
	case errors.Is(err, media.ErrNotFound):
		return false, nil
	case errors.Is(err, media.ErrInvalidPath):
		return false, inputError("invalid image path")
	case err != nil:
		return false, fmt.Errorf("delete image: %w", err)
	}
	s.publish(ctx, events.TopicImageDeleted, events.ImageDeleted{Path: path})
	return true, nil
}

// createBackup snapshots the current document.
func (s *Server) createBackup(ctx context.Context) (*store.Backup, error) {
	b, err := s.store.CreateBackup(ctx)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	s.publish(ctx, events.TopicBackupCreated, events.BackupCreated{
		Name:        b.Name,
		Size:        b.Size,
		Destination: "store",
	})
	return b, nil
}

// restoreBackup replaces the document with the named snapshot. The stored
// admin record is kept, as with any other replace.
func (s *Server) restoreBackup(ctx context.Context, name string) (*model.Document, error) {
	doc, err := s.store.GetBackup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get backup %s: %w", name, err)
	}
	doc.Normalize()
	return s.replaceConfig(ctx, doc, "restore")
}

// submitMessage records a contact form message as the newest message.
func (s *Server) submitMessage(ctx context.Context, msg model.Message) (*model.Message, error) {
	msg.Read = false
	msg.Timestamp = s.now().UTC().Format(time.RFC3339)
	if err := model.ValidateMessage(&msg); err != nil {
		return nil, err
	}
	id, err := idgen.New(model.CollectionMessages.IDPrefix())
	if err != nil {
		return nil, err
	}
	msg.ID = id

	if _, err := s.store.UpdateDocument(ctx, func(doc *model.Document) error {
		if err := doc.Append(model.CollectionMessages, msg, true); err != nil {
			return err
		}
		doc.Stats.TotalMessages = len(doc.Messages)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	s.publish(ctx, events.TopicMessageCreated, events.MessageCreated{Message: msg})
	return &msg, nil
}

// updateMessage merges fields over a stored message.
func (s *Server) updateMessage(ctx context.Context, id string, fields json.RawMessage) (*model.Message, error) {
	var updated model.Message
	_, err := s.store.UpdateDocument(ctx, func(doc *model.Document) error {
		item, found, err := doc.Patch(model.CollectionMessages, id, fields)
		if err != nil {
			var ve *model.ValidationError
			if errors.As(err, &ve) {
				return err
			}
			return inputError(err.Error())
		}
		if !found {
			return store.ErrNotFound
		}
		updated = item.(model.Message)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicMessageUpdated, events.MessageUpdated{Message: updated})
	return &updated, nil
}

// deleteMessage removes a stored message. Deleting an unknown id succeeds.
func (s *Server) deleteMessage(ctx context.Context, id string) error {
	removed := false
	_, err := s.store.UpdateDocument(ctx, func(doc *model.Document) error {
		_, found, err := doc.Remove(model.CollectionMessages, id)
		if err != nil {
			return err
		}
		removed = found
		doc.Stats.TotalMessages = len(doc.Messages)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if removed {
		s.publish(ctx, events.TopicMessageDeleted, events.MessageDeleted{MessageID: id})
	}
	return nil
}

// recordVisit increments the visitor counter.
func (s *Server) recordVisit(ctx context.Context) (int, error) {
	doc, err := s.store.UpdateDocument(ctx, func(doc *model.Document) error {
		doc.Stats.TotalVisitors++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("record visit: %w", err)
	}
	s.publish(ctx, events.TopicVisitRecorded, events.VisitRecorded{TotalVisitors: doc.Stats.TotalVisitors})
	return doc.Stats.TotalVisitors, nil
}
