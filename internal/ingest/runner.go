package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeview/internal/calendar"
	"github.com/smallbiznis/chargeview/internal/clock"
	contractdomain "github.com/smallbiznis/chargeview/internal/contract/domain"
	"github.com/smallbiznis/chargeview/internal/feed"
	"github.com/smallbiznis/chargeview/internal/observability"
	usagedomain "github.com/smallbiznis/chargeview/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RunnerParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Contracts contractdomain.Service
	Usage     usagedomain.Service
	Metrics   *observability.Metrics `optional:"true"`
}

// Runner drives one full contract-then-usage refresh. A single run at a
// time is assumed; concurrent runs race on delete-then-insert.
type Runner struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	contracts contractdomain.Service
	usage     usagedomain.Service
	metrics   *observability.Metrics
}

func NewRunner(p RunnerParam) *Runner {
	return &Runner{
		db:        p.DB,
		log:       p.Log.Named("ingest.runner"),
		genID:     p.GenID,
		clock:     p.Clock,
		contracts: p.Contracts,
		usage:     p.Usage,
		metrics:   p.Metrics,
	}
}

// Run refreshes all contract feeds and then every usage feed for the
// current month and the monthsBack-1 preceding ones. A processing
// failure on an aborting feed ends the run with Success false; database
// errors propagate as errors.
func (r *Runner) Run(ctx context.Context, monthsBack int) (RunResult, error) {
	started := r.clock.Now()
	r.log.Info("processing", zap.Int("months_back", monthsBack))

	months := calendar.MonthsToProcess(monthsBack, started)
	result, err := r.run(ctx, months)
	result.ElapsedMS = r.clock.Now().Sub(started).Milliseconds()

	r.metrics.ObserveRun(result.Success && err == nil)
	if logErr := r.logRun(ctx, started, result, err); logErr != nil {
		r.log.Error("recording ingestion run failed", zap.Error(logErr))
	}
	return result, err
}

func (r *Runner) run(ctx context.Context, months []calendar.YearMonth) (RunResult, error) {
	steps := []func(context.Context) error{
		r.contracts.RefreshErsaAccounts,
		r.contracts.RefreshAttachedStorage,
		r.contracts.RefreshAttachedStorageBackup,
		r.contracts.RefreshNovaFlavors,
		r.contracts.RefreshNectarContracts,
		r.contracts.RefreshTangoContracts,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return r.failed(err)
		}
	}

	for _, ym := range months {
		monthSteps := []func(context.Context, int, int) error{
			r.usage.ProcessHpcSummary,
			r.usage.ProcessAllocationSummary,
			r.usage.ProcessHpcStorage,
			r.usage.ProcessNectar,
			r.usage.ProcessTango,
		}
		for _, step := range monthSteps {
			if err := step(ctx, ym.Year, ym.Month); err != nil {
				return r.failed(err)
			}
		}
	}

	processed := make([]string, len(months))
	for i, ym := range months {
		processed[i] = ym.String()
	}
	return RunResult{Success: true, MonthsProcessed: processed}, nil
}

// failed maps a step error into a result. Upstream processing failures
// are a reportable outcome, not a Go error; anything else propagates.
func (r *Runner) failed(err error) (RunResult, error) {
	if feed.IsProcessingFailure(err) {
		r.log.Warn("run aborted by upstream failure", zap.Error(err))
		return RunResult{Success: false, Message: err.Error()}, nil
	}
	return RunResult{Success: false, Message: err.Error()}, err
}

func (r *Runner) logRun(ctx context.Context, started time.Time, result RunResult, runErr error) error {
	monthsJSON, err := json.Marshal(result.MonthsProcessed)
	if err != nil {
		return err
	}
	row := IngestionRun{
		ID:         r.genID.Generate(),
		StartedAt:  started,
		FinishedAt: r.clock.Now(),
		Success:    result.Success && runErr == nil,
		Months:     monthsJSON,
		ElapsedMS:  result.ElapsedMS,
	}
	if result.Message != "" {
		message := result.Message
		row.Message = &message
	}
	return r.db.WithContext(ctx).Create(&row).Error
}
