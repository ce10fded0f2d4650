package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/mrwolf/journal-server/internal/db"
	"github.com/mrwolf/journal-server/internal/insights"
	"github.com/mrwolf/journal-server/internal/llm"
	"github.com/mrwolf/journal-server/internal/models"
)

// Job types recorded in job_runs
const (
	JobWeeklyReflection = "weekly_reflection"
)

// weeklyJobTimeout bounds one scheduled pass over all actors. A run still
// marked running after this long is treated as abandoned.
const weeklyJobTimeout = 5 * time.Minute

// Scheduler manages scheduled jobs
type Scheduler struct {
	scheduler gocron.Scheduler
	db        *db.DB
	llm       *llm.Client
	logger    *zap.Logger
	timezone  *time.Location
	actors    []string
	now       func() time.Time
}

// Config holds scheduler configuration
type Config struct {
	Timezone string
	Actors   []string
}

// New creates a new scheduler. llmClient may be nil.
func New(database *db.DB, llmClient *llm.Client, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		tz = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(tz))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		db:        database,
		llm:       llmClient,
		logger:    logger.Named("scheduler"),
		timezone:  tz,
		actors:    cfg.Actors,
		now:       time.Now,
	}, nil
}

// Start starts the scheduler and registers all jobs
func (s *Scheduler) Start() error {
	// Weekly reflection on Sunday at 08:00
	_, err := s.scheduler.NewJob(
		gocron.WeeklyJob(1, gocron.NewWeekdays(time.Sunday), gocron.NewAtTimes(gocron.NewAtTime(8, 0, 0))),
		gocron.NewTask(s.generateWeeklyReflections),
		gocron.WithName("weekly-reflections"),
	)
	if err != nil {
		return fmt.Errorf("registering weekly reflections: %w", err)
	}

	// Health check the LLM every 5 minutes
	_, err = s.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(s.healthCheck),
		gocron.WithName("llm-health-check"),
	)
	if err != nil {
		return fmt.Errorf("registering health check: %w", err)
	}

	s.scheduler.Start()
	s.logger.Info("scheduler started", zap.Strings("actors", s.actors), zap.String("timezone", s.timezone.String()))
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) generateWeeklyReflections() {
	s.logger.Info("running weekly reflection generation")
	ctx, cancel := context.WithTimeout(context.Background(), weeklyJobTimeout)
	defer cancel()

	for _, actor := range s.actors {
		if s.runInProgress(actor) {
			s.logger.Info("weekly reflection already running, skipping", zap.String("actor", actor))
			continue
		}
		if _, err := s.generateWeeklyReflection(ctx, actor); err != nil {
			s.logger.Error("weekly reflection failed", zap.String("actor", actor), zap.Error(err))
		}
	}
}

// runInProgress reports whether the actor's last weekly run is still
// running and recent enough not to be abandoned.
func (s *Scheduler) runInProgress(actor string) bool {
	last, err := s.db.GetLastJobRun(actor, JobWeeklyReflection)
	if err != nil {
		s.logger.Warn("reading last job run", zap.String("actor", actor), zap.Error(err))
		return false
	}
	if last == nil {
		return false
	}
	if last.Status == "failed" {
		s.logger.Info("previous weekly reflection failed",
			zap.String("actor", actor),
			zap.String("error", last.ErrorMessage),
		)
	}
	return last.Status == "running" && s.now().Sub(last.StartedAt) < weeklyJobTimeout
}

// generateWeeklyReflection builds the week report ending now, stores its
// reflection and records the run in job_runs.
func (s *Scheduler) generateWeeklyReflection(ctx context.Context, actor string) (*models.Reflection, error) {
	runID, err := s.db.StartJobRun(actor, JobWeeklyReflection)
	if err != nil {
		return nil, fmt.Errorf("starting job run: %w", err)
	}

	reflection, err := s.buildReflection(ctx, actor)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if cerr := s.db.CompleteJobRun(runID, errMsg); cerr != nil {
		s.logger.Warn("completing job run", zap.Int64("run", runID), zap.Error(cerr))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("generated weekly reflection",
		zap.String("actor", actor),
		zap.String("for_date", reflection.ForDate),
		zap.String("id", reflection.ID),
	)
	return reflection, nil
}

func (s *Scheduler) buildReflection(ctx context.Context, actor string) (*models.Reflection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.db.ListEntries(actor, db.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}

	ref := s.now().In(s.timezone)
	report := insights.BuildReport(entries, ref, insights.RangeWeek)

	reflection := &models.Reflection{
		Actor:   actor,
		Range:   string(insights.RangeWeek),
		ForDate: ref.Format("2006-01-02"),
		Text:    FormatWeeklyReflection(report),
	}
	if err := s.db.SaveReflection(reflection); err != nil {
		return nil, err
	}
	return reflection, nil
}

func (s *Scheduler) healthCheck() {
	if !s.llm.Configured() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.llm.HealthCheck(ctx); err != nil {
		s.logger.Warn("llm health check failed, analysis will use the local fallback", zap.Error(err))
	}
}

// GenerateWeeklyNow triggers weekly reflection generation for one actor immediately
func (s *Scheduler) GenerateWeeklyNow(ctx context.Context, actor string) (*models.Reflection, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	return s.generateWeeklyReflection(ctx, actor)
}
