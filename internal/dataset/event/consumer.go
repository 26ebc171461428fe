package event

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
)

type Handler interface {
	Handle(ctx context.Context, event entity.FileCleanupEvent) error
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
}

// CleanupConsumer drains the bus with a pool of workers. Each event is
// handled at most once per EventID and retried with doubling backoff.
type CleanupConsumer struct {
	bus         *Bus
	handler     Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        sync.Map
	wg          sync.WaitGroup
}

func NewCleanupConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *CleanupConsumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 2
	}

	maxRetries := max(cfg.MaxRetries, 0)

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	return &CleanupConsumer{
		bus:         bus,
		handler:     handler,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

func (c *CleanupConsumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
}

// Stop closes the bus and waits for queued events to drain.
func (c *CleanupConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CleanupConsumer) worker() {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(event)
	}
}

func (c *CleanupConsumer) processEvent(event entity.FileCleanupEvent) {
	if c.handler == nil {
		return
	}

	if event.EventID != "" {
		if _, loaded := c.seen.LoadOrStore(event.EventID, struct{}{}); loaded {
			slog.Info("skip duplicate cleanup event", "event_id", event.EventID, "path", event.Path)
			return
		}
	}

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.handler.Handle(context.Background(), event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.Error("failed to clean up file after retries", "event_id", event.EventID, "path", event.Path, "reason", event.Reason, "error", err)
			return
		}

		sleepBackoff(backoff)
		backoff *= 2
	}
}

func sleepBackoff(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
}

// FileRemover deletes the file named by the event. A file that is already
// gone counts as removed.
type FileRemover struct {
	Remove func(name string) error
}

func (r FileRemover) Handle(ctx context.Context, event entity.FileCleanupEvent) error {
	if event.Path == "" {
		return errors.New("missing path")
	}

	remove := r.Remove
	if remove == nil {
		remove = os.Remove
	}

	if err := remove(event.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	slog.InfoContext(ctx, "removed orphaned file", "event_id", event.EventID, "path", event.Path, "reason", event.Reason)
	return nil
}
