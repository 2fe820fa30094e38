// Package scheduler runs the periodic maintenance jobs of the service on
// top of gocron.
package scheduler

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyJobName  = errors.New("job name is required")
	ErrEmptyCronExpr = errors.New("cron expression is required")
	ErrBadInterval   = errors.New("job interval must be positive")
)

// Service wraps a gocron scheduler.  Jobs never overlap with themselves;
// a run that is still busy when the next one is due is rescheduled.
type Service struct {
	scheduler gocron.Scheduler
	stopOnce  sync.Once
	stopErr   error
}

// New returns a stopped scheduler evaluating cron expressions in loc.
func New(loc *time.Location) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithError(func(jobID uuid.UUID, jobName string, err error) {
					log.Error().Err(err).Str("job_id", jobID.String()).Str("job_name", jobName).Msg("scheduler job failed")
				}),
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("scheduler job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Service{scheduler: sched}, nil
}

// Start begins running scheduled jobs.
func (s *Service) Start() {
	log.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("scheduler starting")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.  It is safe
// to call more than once.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() {
		log.Info().Msg("scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// AddCron registers task under a five-field cron expression.
func (s *Service) AddCron(name, cronExpr string, task func() error) (gocron.Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyJobName
	}
	cronExpr = strings.TrimSpace(cronExpr)
	if cronExpr == "" {
		return nil, ErrEmptyCronExpr
	}
	return s.scheduler.NewJob(gocron.CronJob(cronExpr, false), gocron.NewTask(task), gocron.WithName(name))
}

// AddEvery registers task to run at a fixed interval.
func (s *Service) AddEvery(name string, every time.Duration, task func() error) (gocron.Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyJobName
	}
	if every <= 0 {
		return nil, ErrBadInterval
	}
	return s.scheduler.NewJob(gocron.DurationJob(every), gocron.NewTask(task), gocron.WithName(name))
}
