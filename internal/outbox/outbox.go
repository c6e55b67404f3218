package outbox

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/induspec/plant-maintenance/internal/db"
)

// Status is the aggregate store-health indicator shown to users.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusSyncing Status = "syncing"
)

// Store is the subset of the external store the flusher needs.
type Store interface {
	UpsertMany(ctx context.Context, collection string, records []db.Record) error
	DeleteByID(ctx context.Context, collection, id string) error
}

// Source resolves dirty ids to their current records at flush time, so
// only the latest state of each row is ever pushed.
type Source interface {
	Records(collection string, ids []string) []db.Record
}

// Options tunes the flush behaviour.
type Options struct {
	// Delay is the coalescing window: edits arriving within it are
	// folded into one push.
	Delay time.Duration
	// MaxBackoff caps the retry interval while the store is offline.
	MaxBackoff time.Duration
	// OnStatus, when set, is invoked on every health transition.
	OnStatus func(Status)
	// OnLocalChange, when set, is invoked synchronously after each
	// mutation so a local cache can persist the latest state.
	OnLocalChange func()
}

// Syncer is a dirty-id outbox with a single background flusher. Edits
// coalesce over a short window; a failed push marks the store offline
// and retries with exponential backoff. Intermediate states are never
// pushed, which is the accepted trade-off favouring fewer writes.
type Syncer struct {
	store  Store
	source Source
	opts   Options

	mu      sync.Mutex
	dirty   map[string]map[string]struct{}
	deleted map[string]map[string]struct{}
	timer   *time.Timer
	status  Status
	backoff time.Duration

	flushCh chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup
	log     *log.Entry
}

// New creates a syncer. Run must be called to start the flusher.
func New(store Store, source Source, opts Options) *Syncer {
	if opts.Delay <= 0 {
		opts.Delay = 2 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 2 * time.Minute
	}
	return &Syncer{
		store:   store,
		source:  source,
		opts:    opts,
		dirty:   make(map[string]map[string]struct{}),
		deleted: make(map[string]map[string]struct{}),
		status:  StatusOnline,
		backoff: opts.Delay,
		flushCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		log:     log.WithField("component", "outbox"),
	}
}

// Run starts the background flusher until ctx is cancelled or Close is
// called.
func (s *Syncer) Run(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-s.flushCh:
				s.flush(ctx)
			}
		}
	}()
}

// Close stops the flusher. Pending writes are lost from the outbox, but
// the local cache already holds the latest state; the next mutation
// after restart re-queues it.
func (s *Syncer) Close() {
	close(s.stopCh)
	s.wg.Wait()
}

// MarkDirty queues one record for upsert and (re)starts the coalescing
// window.
func (s *Syncer) MarkDirty(collection, id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	if s.dirty[collection] == nil {
		s.dirty[collection] = make(map[string]struct{})
	}
	s.dirty[collection][id] = struct{}{}
	// An edit supersedes a pending delete of the same row.
	if ids, ok := s.deleted[collection]; ok {
		delete(ids, id)
	}
	s.scheduleLocked(s.opts.Delay)
	s.mu.Unlock()

	if s.opts.OnLocalChange != nil {
		s.opts.OnLocalChange()
	}
}

// MarkDeleted queues one record for removal from the external store.
func (s *Syncer) MarkDeleted(collection, id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	if s.deleted[collection] == nil {
		s.deleted[collection] = make(map[string]struct{})
	}
	s.deleted[collection][id] = struct{}{}
	if ids, ok := s.dirty[collection]; ok {
		delete(ids, id)
	}
	s.scheduleLocked(s.opts.Delay)
	s.mu.Unlock()

	if s.opts.OnLocalChange != nil {
		s.opts.OnLocalChange()
	}
}

// Status returns the current aggregate health.
func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Pending reports the number of queued upserts and deletes.
func (s *Syncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ids := range s.dirty {
		n += len(ids)
	}
	for _, ids := range s.deleted {
		n += len(ids)
	}
	return n
}

// Flush pushes everything queued right now, bypassing the coalescing
// window. Used at shutdown and by tests.
func (s *Syncer) Flush(ctx context.Context) error {
	return s.flush(ctx)
}

// scheduleLocked (re)arms the debounce timer; the previous pending
// window is cancelled so only the final state of a burst is pushed.
func (s *Syncer) scheduleLocked(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, func() {
		select {
		case s.flushCh <- struct{}{}:
		default:
		}
	})
}

func (s *Syncer) flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.dirty) == 0 && len(s.deleted) == 0 {
		s.mu.Unlock()
		return nil
	}
	dirty := s.dirty
	deleted := s.deleted
	s.dirty = make(map[string]map[string]struct{})
	s.deleted = make(map[string]map[string]struct{})
	s.setStatusLocked(StatusSyncing)
	s.mu.Unlock()

	err := s.push(ctx, dirty, deleted)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Re-queue everything that was not confirmed and retry later.
		for coll, ids := range dirty {
			for id := range ids {
				if s.dirty[coll] == nil {
					s.dirty[coll] = make(map[string]struct{})
				}
				s.dirty[coll][id] = struct{}{}
			}
		}
		for coll, ids := range deleted {
			for id := range ids {
				if s.deleted[coll] == nil {
					s.deleted[coll] = make(map[string]struct{})
				}
				s.deleted[coll][id] = struct{}{}
			}
		}
		s.setStatusLocked(StatusOffline)
		s.log.WithError(err).Warn("store push failed; retrying with backoff")
		s.scheduleLocked(s.backoff)
		s.backoff *= 2
		if s.backoff > s.opts.MaxBackoff {
			s.backoff = s.opts.MaxBackoff
		}
		return err
	}
	s.backoff = s.opts.Delay
	s.setStatusLocked(StatusOnline)
	return nil
}

func (s *Syncer) push(ctx context.Context, dirty, deleted map[string]map[string]struct{}) error {
	for coll, ids := range dirty {
		list := make([]string, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		records := s.source.Records(coll, list)
		if len(records) == 0 {
			continue
		}
		if err := s.store.UpsertMany(ctx, coll, records); err != nil {
			return err
		}
	}
	for coll, ids := range deleted {
		for id := range ids {
			if err := s.store.DeleteByID(ctx, coll, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Syncer) setStatusLocked(status Status) {
	if s.status == status {
		return
	}
	s.status = status
	if s.opts.OnStatus != nil {
		go s.opts.OnStatus(status)
	}
}
