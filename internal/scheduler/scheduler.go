// Package scheduler triggers periodic ingestion runs on a cron
// expression from configuration.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/chargeview/internal/config"
	"github.com/smallbiznis/chargeview/internal/ingest"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Scheduler struct {
	cron       *cron.Cron
	log        *zap.Logger
	runner     *ingest.Runner
	spec       string
	monthsBack int
}

func New(cfg config.Config, log *zap.Logger, runner *ingest.Runner) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		log:        log.Named("scheduler"),
		runner:     runner,
		spec:       cfg.IngestCron,
		monthsBack: cfg.IngestMonthsBack,
	}
}

// Start registers the ingestion job and begins the cron loop. An empty
// cron spec disables scheduling; ingestion then only runs on demand.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.log.Info("no cron spec configured, scheduled ingestion disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.runIngestion); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduled ingestion started",
		zap.String("spec", s.spec),
		zap.Int("months_back", s.monthsBack),
	)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runIngestion() {
	result, err := s.runner.Run(context.Background(), s.monthsBack)
	if err != nil {
		s.log.Error("scheduled ingestion failed", zap.Error(err))
		return
	}
	if !result.Success {
		s.log.Warn("scheduled ingestion unsuccessful", zap.String("message", result.Message))
		return
	}
	s.log.Info("scheduled ingestion complete",
		zap.Strings("months", result.MonthsProcessed),
		zap.Int64("elapsed_ms", result.ElapsedMS),
	)
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return s.Start() },
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
}
