package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeview/internal/calendar"
	"github.com/smallbiznis/chargeview/internal/config"
	"github.com/smallbiznis/chargeview/internal/feed"
	"github.com/smallbiznis/chargeview/internal/observability"
	usagedomain "github.com/smallbiznis/chargeview/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feed names used in logs and metrics.
const (
	feedHpcSummary = "hpcsummary"
	feedHnasVV     = "hnasvv"
	feedHnasFS     = "hnasfs"
	feedHcp        = "hcp"
	feedXfs        = "xfs"
	feedHpcHome    = "hpcstorage"
	feedNectar     = "nectar"
	feedTango      = "tango"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Client  *feed.Client
	Pricing *config.PricingHolder
	Metrics *observability.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	client  *feed.Client
	pricing *config.PricingHolder
	metrics *observability.Metrics
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("usage.service"),
		genID:   p.GenID,
		client:  p.Client,
		pricing: p.Pricing,
		metrics: p.Metrics,
	}
}

func (s *Service) ProcessHpcSummary(ctx context.Context, year, month int) error {
	s.logWindow(feedHpcSummary, year, month)
	startMS, endMS := calendar.WindowMillis(year, month)
	url := s.client.UsageURL("/hpc/job/summary?start=%d&end=%d", startMS, endMS)
	return replaceWindow[usagedomain.HpcSummaryUsage](ctx, s, feedHpcSummary, url, year, month, abortOnFailure)
}

func (s *Service) ProcessAllocationSummary(ctx context.Context, year, month int) error {
	s.logWindow("allocationsummary", year, month)
	startMS, endMS := calendar.WindowMillis(year, month)

	if err := replaceWindow[usagedomain.HnasVVUsage](ctx, s, feedHnasVV,
		s.client.UsageURL("/hnas/virtual-volume%%2Fusage/summary?start=%d&end=%d", startMS, endMS),
		year, month, abortOnFailure); err != nil {
		return err
	}
	if err := replaceWindow[usagedomain.HcpUsage](ctx, s, feedHcp,
		s.client.UsageURL("/hcp/usage/summary?start=%d&end=%d", startMS, endMS),
		year, month, abortOnFailure); err != nil {
		return err
	}
	if err := replaceWindow[usagedomain.HnasFSUsage](ctx, s, feedHnasFS,
		s.client.UsageURL("/hnas/filesystem%%2Fusage/summary?start=%d&end=%d", startMS, endMS),
		year, month, abortOnFailure); err != nil {
		return err
	}
	return replaceWindow[usagedomain.XfsUsage](ctx, s, feedXfs,
		s.client.UsageURL("/xfs/usage/summary?start=%d&end=%d", startMS, endMS),
		year, month, abortOnFailure)
}

func (s *Service) ProcessHpcStorage(ctx context.Context, year, month int) error {
	s.logWindow(feedHpcHome, year, month)
	startMS, endMS := calendar.WindowMillis(year, month)

	fsName := s.pricing.Get().HPCStorageFSName
	fsID, err := s.client.LookupFilesystemID(ctx, fsName)
	if err != nil {
		return err
	}

	url := s.client.UsageURL("/xfs/filesystem/%s/summary?start=%d&end=%d", fsID, startMS, endMS)
	return replaceWindow[usagedomain.HpcHomeUsage](ctx, s, feedHpcHome, url, year, month, abortOnFailure)
}

// nectarRecord carries the upstream manager array whose first two
// entries are biller and org unit.
type nectarRecord struct {
	usagedomain.NectarUsage
	Manager []string `json:"manager"`
}

func (s *Service) ProcessNectar(ctx context.Context, year, month int) error {
	s.logWindow(feedNectar, year, month)
	startMS, endMS := calendar.WindowMillis(year, month)
	url := s.client.ReportingURL("/usage/nova/NovaUsage_%d_%d.json", startMS, endMS)

	var records []nectarRecord
	proceed, err := s.fetch(ctx, feedNectar, url, tolerateFailure, &records)
	if !proceed {
		return err
	}

	rows := make([]usagedomain.NectarUsage, len(records))
	for i, record := range records {
		row := record.NectarUsage
		row.Biller = managerProp(record.Manager, 0)
		row.ManagerUnit = managerProp(record.Manager, 1)
		row.SetWindow(s.genID.Generate(), year, month)
		rows[i] = row
	}
	return storeWindow(ctx, s, year, month, rows)
}

func (s *Service) ProcessTango(ctx context.Context, year, month int) error {
	s.logWindow(feedTango, year, month)
	startMS, endMS := calendar.WindowMillis(year, month)
	url := s.client.UsageURL("/vms/instance?start=%d&end=%d", startMS, endMS)
	return replaceWindow[usagedomain.TangoUsage](ctx, s, feedTango, url, year, month, tolerateFailure)
}

func managerProp(manager []string, index int) *string {
	if index >= len(manager) {
		return nil
	}
	value := manager[index]
	return &value
}

func (s *Service) logWindow(feedName string, year, month int) {
	s.log.Debug("processing window",
		zap.String("feed", feedName),
		zap.Int("year", year),
		zap.Int("month", month),
	)
}
