package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/meteo-forecast-service/internal/weather"
)

// Scheduler periodically re-runs ingestion, replacing the stored dataset.
// It is only started when a refresh interval is configured; the default
// deployment ingests once at startup and never again.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ingestor  *weather.Ingestor
	interval  time.Duration
}

// New creates a Scheduler around the given ingestor.
func New(ingestor *weather.Ingestor, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		ingestor:  ingestor,
		interval:  interval,
	}
}

// Start schedules the periodic re-ingestion job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		log.Println("scheduler: no refresh interval configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running ingestion job")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := s.ingestor.Run(ctx); err != nil {
			// Only a store failure reaches here; fetch failures are
			// per-location and already logged by the ingestor.
			log.Printf("ERROR: scheduler: ingestion failed: %v", err)
			return
		}
		log.Println("scheduler: completed ingestion job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
