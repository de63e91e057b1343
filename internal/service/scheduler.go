package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumenlabs/brandflow/internal/config"
	"github.com/lumenlabs/brandflow/internal/models"
	"github.com/lumenlabs/brandflow/internal/store"
)

// Scheduler periodically promotes scheduled items whose time has arrived to
// posted. It is a best-effort cron-like sweep: precision is bounded by the
// sweep interval, and a failed tick is simply retried at the next one. Each
// tick reads fresh state from the store; the scheduler holds no item data of
// its own between ticks.
type Scheduler struct {
	config *config.SchedulerConfig
	logger *zap.Logger
	store  store.Store
	now    func() time.Time

	// OnUpdate, if set, receives the promoted items after a tick that
	// changed anything. Ticks that promote nothing publish nothing.
	OnUpdate func(promoted []models.ContentItem)

	mu      sync.Mutex
	ticker  *time.Ticker
	stopCh  chan struct{}
	started bool
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, st store.Store) *Scheduler {
	return &Scheduler{
		config: cfg,
		logger: logger,
		store:  st,
		now:    time.Now,
	}
}

// Sweep promotes every due item in the snapshot to posted, clearing its
// schedule. It returns the promoted items and whether anything changed. Pure
// function of (snapshot, now); it touches no storage.
func Sweep(items []models.ContentItem, now time.Time) ([]models.ContentItem, bool) {
	var promoted []models.ContentItem
	for _, item := range items {
		if item.Status != models.StatusScheduled || item.Schedule == nil {
			continue
		}
		if item.Schedule.After(now) {
			continue
		}
		item.Status = models.StatusPosted
		item.Schedule = nil
		promoted = append(promoted, item)
	}
	return promoted, len(promoted) > 0
}

// Start begins the recurring sweep. Calling Start while a sweep loop is
// already running stops the previous one first, so at most one loop runs per
// scheduler and no item can be double-posted by duplicate timers.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.IsEnabled() {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.SweepInterval)
	if err != nil {
		s.logger.Error("Invalid sweep interval", zap.String("interval", s.config.SweepInterval), zap.Error(err))
		return err
	}

	s.Stop()

	s.mu.Lock()
	s.logger.Info("Starting scheduler", zap.Duration("sweep_interval", interval))
	s.ticker = time.NewTicker(interval)
	s.stopCh = make(chan struct{})
	s.started = true
	ticker, stopCh := s.ticker, s.stopCh
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				s.runSweep(ctx)
			case <-stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

// Stop cancels the recurring sweep. Idempotent; a tick already in progress is
// allowed to finish, but no further tick fires.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.ticker.Stop()
	close(s.stopCh)
	s.started = false
	s.logger.Info("Scheduler shutdown completed")
}

// runSweep is one tick. Store failures abandon the tick; the next interval
// retries.
func (s *Scheduler) runSweep(ctx context.Context) {
	start := s.now()

	items, err := s.store.ListScheduled(ctx)
	if err != nil {
		s.logger.Error("Sweep failed to read scheduled items", zap.Error(err))
		return
	}

	now := s.now()
	promoted, changed := Sweep(items, now)
	if !changed {
		return
	}

	var posted []models.ContentItem
	for _, item := range promoted {
		// The guards make the promotion conditional on the item still being
		// scheduled and due. A reschedule or other mutation landing after the
		// snapshot fails the patch and the item is left for a later tick.
		updated, err := s.store.UpdateItem(ctx, item.UserID, item.ID, store.ItemPatch{
			Status:        store.StatusPtr(models.StatusPosted),
			ClearSchedule: true,
			IfStatus:      store.StatusPtr(models.StatusScheduled),
			IfScheduleBy:  &now,
		})
		if errors.Is(err, store.ErrStale) || errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("Item changed since the sweep snapshot, skipping",
				zap.String("item_id", item.ID))
			continue
		}
		if err != nil {
			s.logger.Error("Sweep failed to post item",
				zap.String("item_id", item.ID),
				zap.Error(err))
			continue
		}
		posted = append(posted, updated)
		s.logger.Info("Posted scheduled item",
			zap.String("item_id", item.ID),
			zap.String("type", string(item.Type)))
	}

	if len(posted) > 0 && s.OnUpdate != nil {
		s.OnUpdate(posted)
	}

	s.logger.Debug("Sweep completed",
		zap.Int("posted", len(posted)),
		zap.Duration("duration", s.now().Sub(start)))
}
