// Package backup exports the portfolio document to off-site destinations
// on a schedule.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/folio/internal/events"
	"github.com/alfredjeanlab/folio/internal/store"
)

// Destination is the interface for a backup target (S3, a local directory).
type Destination interface {
	// Write stores one named snapshot.
	Write(ctx context.Context, name string, data []byte) error
	String() string
}

// Export returns the full document, admin record included, as indented JSON.
func Export(ctx context.Context, s store.Store) ([]byte, error) {
	doc, err := s.GetDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// Scheduler runs periodic backups to one or more destinations.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	publisher    events.Publisher
	logger       *slog.Logger
	now          func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, pub events.Publisher, logger *slog.Logger) *Scheduler {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		publisher:    pub,
		logger:       logger,
		now:          time.Now,
	}
}

// Start begins periodic backups. It runs one immediately, then on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current backup (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce exports the document and writes it to every destination. It
// returns the number of destinations written successfully.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	data, err := Export(ctx, s.store)
	if err != nil {
		s.logger.Error("backup export failed", "err", err)
		return 0
	}
	name := store.BackupName(s.now())

	ok := 0
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, name, data); err != nil {
			s.logger.Error("backup destination write failed", "destination", dest.String(), "err", err)
			continue
		}
		ok++
		if err := s.publisher.Publish(ctx, events.TopicBackupCreated, events.BackupCreated{
			Name:        name,
			Size:        int64(len(data)),
			Destination: dest.String(),
		}); err != nil {
			s.logger.Warn("publish backup event", "err", err)
		}
	}

	s.logger.Info("backup completed", "name", name, "destinations", ok, "bytes", len(data))
	return ok
}
