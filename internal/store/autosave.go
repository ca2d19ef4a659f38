package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultAutosaveInterval is how often the Autosaver writes the caches.
const DefaultAutosaveInterval = 5 * time.Minute

// Runner executes fn on the thread that owns the caches.
type Runner func(fn func())

// Autosaver periodically saves a Store and saves once more on Stop.
type Autosaver struct {
	store  *Store
	run    Runner
	cron   *cron.Cron
	logger *slog.Logger
}

// NewAutosaver schedules SaveAll every interval. When run is nil the save
// runs on the scheduler goroutine under the store lock.
func NewAutosaver(s *Store, interval time.Duration, run Runner, logger *slog.Logger) (*Autosaver, error) {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	if run == nil {
		run = func(fn func()) { fn() }
	}

	a := &Autosaver{
		store:  s,
		run:    run,
		cron:   cron.New(),
		logger: logger.With("component", "autosave"),
	}
	schedule := fmt.Sprintf("@every %s", interval)
	if _, err := a.cron.AddFunc(schedule, func() { a.run(a.save) }); err != nil {
		return nil, fmt.Errorf("scheduling autosave %q: %w", schedule, err)
	}
	return a, nil
}

// Start begins the schedule.
func (a *Autosaver) Start() {
	a.cron.Start()
	a.logger.Debug("autosave started", "entries", len(a.cron.Entries()))
}

// Stop waits for a running save to finish, then saves a final time.
func (a *Autosaver) Stop() error {
	<-a.cron.Stop().Done()
	return a.store.SaveAll()
}

func (a *Autosaver) save() {
	if err := a.store.SaveAll(); err != nil {
		a.logger.Warn("autosave failed", "error", err)
	}
}
