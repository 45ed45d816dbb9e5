package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/chargeview/internal/config"
	"github.com/smallbiznis/chargeview/internal/feed"
	usagedomain "github.com/smallbiznis/chargeview/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&usagedomain.HpcSummaryUsage{},
		&usagedomain.HnasVVUsage{},
		&usagedomain.HnasFSUsage{},
		&usagedomain.HcpUsage{},
		&usagedomain.XfsUsage{},
		&usagedomain.HpcHomeUsage{},
		&usagedomain.NectarUsage{},
		&usagedomain.TangoUsage{},
	)
	assert.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Config{
		UsageServer:        srv.URL,
		CRMServer:          srv.URL,
		ReportingServer:    srv.URL,
		AuthHeaderKey:      "x-ersa-auth-token",
		AuthToken:          "secret",
		ConnectTimeoutSecs: 5,
	}

	node, _ := snowflake.NewNode(1)
	logger := zap.NewNop()

	svc := NewService(ServiceParam{
		DB:      db,
		Log:     logger,
		GenID:   node,
		Client:  feed.NewClient(cfg, logger),
		Pricing: config.NewStaticPricingHolder(config.DefaultPricing()),
	})
	return svc.(*Service), db
}

func TestProcessHpcSummary_StoresRows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hpc/job/summary", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"owner": "jbloggs", "queue": "tizard", "cores": 4, "cpu_seconds": 5400, "job_count": 3},
			{"owner": "asmith", "queue": "tizard", "cores": 2, "cpu_seconds": 360}
		]`)
	})

	svc, db := newTestService(t, mux)
	err := svc.ProcessHpcSummary(context.Background(), 2018, 3)
	assert.NoError(t, err)

	var rows []usagedomain.HpcSummaryUsage
	err = db.Order("owner").Find(&rows).Error
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, 2018, rows[0].Year)
	assert.Equal(t, 3, rows[0].Month)
	assert.Equal(t, "asmith", *rows[0].Owner)
	assert.Equal(t, int64(360), *rows[0].CPUSeconds)
	// job_count absent upstream stays NULL, not zero
	assert.Nil(t, rows[0].JobCount)

	assert.Equal(t, "jbloggs", *rows[1].Owner)
	assert.Equal(t, int64(3), *rows[1].JobCount)
	assert.NotZero(t, rows[1].ID)
}

func TestProcessHpcSummary_EmptyFeedClearsWindow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hpc/job/summary", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	svc, db := newTestService(t, mux)

	owner := "jbloggs"
	stale := usagedomain.HpcSummaryUsage{ID: 99, Year: 2018, Month: 3, Owner: &owner}
	assert.NoError(t, db.Create(&stale).Error)

	err := svc.ProcessHpcSummary(context.Background(), 2018, 3)
	assert.NoError(t, err)

	var count int64
	db.Model(&usagedomain.HpcSummaryUsage{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestProcessHpcSummary_Idempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hpc/job/summary", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"owner": "jbloggs", "cores": 6, "cpu_seconds": 5400}]`)
	})

	svc, db := newTestService(t, mux)
	ctx := context.Background()

	assert.NoError(t, svc.ProcessHpcSummary(ctx, 2018, 3))
	assert.NoError(t, svc.ProcessHpcSummary(ctx, 2018, 3))

	var count int64
	db.Model(&usagedomain.HpcSummaryUsage{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProcessHpcSummary_LeavesOtherWindowsAlone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hpc/job/summary", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"owner": "jbloggs", "cores": 6}]`)
	})

	svc, db := newTestService(t, mux)

	owner := "asmith"
	previous := usagedomain.HpcSummaryUsage{ID: 42, Year: 2018, Month: 2, Owner: &owner}
	assert.NoError(t, db.Create(&previous).Error)

	assert.NoError(t, svc.ProcessHpcSummary(context.Background(), 2018, 3))

	var kept usagedomain.HpcSummaryUsage
	err := db.Where("year = ? AND month = ?", 2018, 2).First(&kept).Error
	assert.NoError(t, err)
	assert.Equal(t, "asmith", *kept.Owner)
}

func TestProcessHpcSummary_AbortsOnServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hpc/job/summary", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	svc, db := newTestService(t, mux)

	owner := "jbloggs"
	stale := usagedomain.HpcSummaryUsage{ID: 99, Year: 2018, Month: 3, Owner: &owner}
	assert.NoError(t, db.Create(&stale).Error)

	err := svc.ProcessHpcSummary(context.Background(), 2018, 3)
	assert.Error(t, err)
	assert.True(t, feed.IsProcessingFailure(err))

	// A failed fetch never touches the stored window.
	var count int64
	db.Model(&usagedomain.HpcSummaryUsage{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProcessAllocationSummary_LoadsAllFourFeeds(t *testing.T) {
	// The HNAS paths carry an escaped slash, so route on the raw path.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.EscapedPath(), "/hnas/virtual-volume%2Fusage/summary"):
			fmt.Fprint(w, `[{"filesystem": "fs01", "owner": "jbloggs", "usage": 500000}]`)
		case strings.HasPrefix(r.URL.EscapedPath(), "/hnas/filesystem%2Fusage/summary"):
			fmt.Fprint(w, `[{"filesystem": "fs01", "live_usage": 750000}]`)
		case strings.HasPrefix(r.URL.EscapedPath(), "/hcp/usage/summary"):
			fmt.Fprint(w, `[{"namespace": "ns01.tenant", "ingested_bytes": 2147483648}]`)
		case strings.HasPrefix(r.URL.EscapedPath(), "/xfs/usage/summary"):
			fmt.Fprint(w, `[{"filesystem": "scratch", "host": "xfs01", "usage": 1048576}]`)
		default:
			http.NotFound(w, r)
		}
	})

	svc, db := newTestService(t, handler)
	err := svc.ProcessAllocationSummary(context.Background(), 2018, 3)
	assert.NoError(t, err)

	var vv, fs, hcp, xfs int64
	db.Model(&usagedomain.HnasVVUsage{}).Count(&vv)
	db.Model(&usagedomain.HnasFSUsage{}).Count(&fs)
	db.Model(&usagedomain.HcpUsage{}).Count(&hcp)
	db.Model(&usagedomain.XfsUsage{}).Count(&xfs)
	assert.Equal(t, int64(1), vv)
	assert.Equal(t, int64(1), fs)
	assert.Equal(t, int64(1), hcp)
	assert.Equal(t, int64(1), xfs)
}

func TestProcessHpcStorage_ResolvesFilesystemID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/xfs/filesystem", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 7, "name": "scratch"}, {"id": 12, "name": "hpchome-live"}]`)
	})
	mux.HandleFunc("/xfs/filesystem/12/summary", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"owner": "jbloggs", "usage": 2097152, "hard": 5242880}]`)
	})

	svc, db := newTestService(t, mux)
	err := svc.ProcessHpcStorage(context.Background(), 2018, 3)
	assert.NoError(t, err)

	var row usagedomain.HpcHomeUsage
	assert.NoError(t, db.First(&row).Error)
	assert.Equal(t, "jbloggs", *row.Owner)
	assert.Equal(t, int64(2097152), *row.Usage)
}

func TestProcessHpcStorage_UnknownFilesystemFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/xfs/filesystem", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 7, "name": "scratch"}]`)
	})

	svc, _ := newTestService(t, mux)
	err := svc.ProcessHpcStorage(context.Background(), 2018, 3)
	assert.Error(t, err)
	assert.True(t, feed.IsProcessingFailure(err))
}

func TestProcessNectar_SplitsManagerArray(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/usage/nova/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"server": "vm-a", "flavor": "m1.small", "tenant": "proj-a", "span": 3600, "manager": ["University of Adelaide", "School of Physics"]},
			{"server": "vm-b", "flavor": "m1.large", "tenant": "proj-b", "span": 7200, "manager": []}
		]`)
	})

	svc, db := newTestService(t, mux)
	err := svc.ProcessNectar(context.Background(), 2018, 3)
	assert.NoError(t, err)

	var rows []usagedomain.NectarUsage
	assert.NoError(t, db.Order("server").Find(&rows).Error)
	assert.Len(t, rows, 2)

	assert.Equal(t, "University of Adelaide", *rows[0].Biller)
	assert.Equal(t, "School of Physics", *rows[0].ManagerUnit)
	assert.Nil(t, rows[1].Biller)
	assert.Nil(t, rows[1].ManagerUnit)
}

func TestProcessNectar_ToleratesFeedFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/usage/nova/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	})

	svc, db := newTestService(t, mux)

	server := "vm-old"
	stale := usagedomain.NectarUsage{ID: 5, Year: 2018, Month: 3, Server: &server}
	assert.NoError(t, db.Create(&stale).Error)

	// NECTAR failures skip the window instead of failing the run.
	err := svc.ProcessNectar(context.Background(), 2018, 3)
	assert.NoError(t, err)

	var count int64
	db.Model(&usagedomain.NectarUsage{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProcessTango_ToleratesFeedFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/vms/instance", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
	})

	svc, _ := newTestService(t, mux)
	err := svc.ProcessTango(context.Background(), 2018, 3)
	assert.NoError(t, err)
}

func TestProcessTango_StoresRows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/vms/instance", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": "vm-77", "businessUnit": "Engineering", "core": 8, "ram": 16, "storage": 120.5, "span": 86400}]`)
	})

	svc, db := newTestService(t, mux)
	err := svc.ProcessTango(context.Background(), 2018, 3)
	assert.NoError(t, err)

	var row usagedomain.TangoUsage
	assert.NoError(t, db.First(&row).Error)
	assert.Equal(t, "vm-77", *row.VMID)
	assert.Equal(t, "Engineering", *row.BusinessUnit)
	assert.Equal(t, int64(8), *row.Core)
	assert.Equal(t, "120.5", row.Storage.String())
}
