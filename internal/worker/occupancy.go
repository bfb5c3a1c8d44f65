package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payandpark/internal/metrics"
	"payandpark/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type SlotCounter interface {
	CountSlotsByStatus(ctx context.Context) (map[models.SlotStatus]int, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// OccupancyJob periodically snapshots slot counts per status into metrics
// and reports store health to an optional hook.
type OccupancyJob struct {
	counter  SlotCounter
	pinger   Pinger
	schedule string
	timeout  time.Duration
	logger   *zerolog.Logger

	mu       sync.Mutex
	onHealth func(healthy bool)
	cron     *cron.Cron
}

func NewOccupancyJob(counter SlotCounter, pinger Pinger, schedule string, logger *zerolog.Logger) *OccupancyJob {
	if schedule == "" {
		schedule = models.DefaultOccupancySchedule
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &OccupancyJob{
		counter:  counter,
		pinger:   pinger,
		schedule: schedule,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// OnHealth registers a hook called after every run with the store ping result.
func (j *OccupancyJob) OnHealth(hook func(healthy bool)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.onHealth = hook
}

// RunOnce pings the store and refreshes the occupancy gauges.
func (j *OccupancyJob) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	healthy := true
	if j.pinger != nil {
		if err := j.pinger.PingContext(ctx); err != nil {
			healthy = false
			j.logger.Error().Err(err).Msg("store ping failed")
		}
	}
	j.reportHealth(healthy)

	counts, err := j.counter.CountSlotsByStatus(ctx)
	if err != nil {
		return fmt.Errorf("occupancy job: failed to count parking slots: %w", err)
	}
	metrics.SetSlotCounts(counts)

	j.logger.Debug().
		Int("available", counts[models.SlotAvailable]).
		Int("booked", counts[models.SlotBooked]).
		Int("unavailable", counts[models.SlotUnavailable]).
		Msg("occupancy snapshot")
	return nil
}

// Start schedules RunOnce and runs it immediately. The job stops when ctx is done or Stop is called.
func (j *OccupancyJob) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(j.schedule, func() {
		if err := j.RunOnce(ctx); err != nil {
			j.logger.Error().Err(err).Msg("occupancy job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid occupancy schedule %q: %w", j.schedule, err)
	}

	j.mu.Lock()
	j.cron = c
	j.mu.Unlock()

	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error().Err(err).Msg("initial occupancy snapshot failed")
	}

	c.Start()
	j.logger.Info().Str("schedule", j.schedule).Msg("occupancy job started")

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running snapshot to finish.
func (j *OccupancyJob) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

func (j *OccupancyJob) reportHealth(healthy bool) {
	j.mu.Lock()
	hook := j.onHealth
	j.mu.Unlock()
	if hook != nil {
		hook(healthy)
	}
}
