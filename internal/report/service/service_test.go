package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/chargeview/internal/billing"
	"github.com/smallbiznis/chargeview/internal/clock"
	"github.com/smallbiznis/chargeview/internal/config"
	contractdomain "github.com/smallbiznis/chargeview/internal/contract/domain"
	reportdomain "github.com/smallbiznis/chargeview/internal/report/domain"
	usagedomain "github.com/smallbiznis/chargeview/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, now time.Time) (reportdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&contractdomain.Account{},
		&contractdomain.AccountContact{},
		&contractdomain.Contract{},
		&contractdomain.NovaFlavor{},
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

	node, _ := snowflake.NewNode(1)

	svc := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(now),
		Pricing: config.NewStaticPricingHolder(config.DefaultPricing()),
	})
	return svc, db, node
}

type tripleSpec struct {
	biller          string
	managerUnit     string
	managerUsername string
	contractType    string
	unitPrice       string
	fileSystemName  string
	projectID       string
}

func seedTriple(t *testing.T, db *gorm.DB, node *snowflake.Node, spec tripleSpec) {
	t.Helper()

	account := contractdomain.Account{
		ID:     node.Generate(),
		Biller: &spec.biller,
	}
	assert.NoError(t, db.Create(&account).Error)

	contact := contractdomain.AccountContact{
		ID:          node.Generate(),
		AccountID:   account.ID,
		ManagerUnit: &spec.managerUnit,
	}
	if spec.managerUsername != "" {
		contact.ManagerUsername = &spec.managerUsername
	}
	assert.NoError(t, db.Create(&contact).Error)

	contract := contractdomain.Contract{
		ID:           node.Generate(),
		AccountID:    account.ID,
		ContractType: spec.contractType,
	}
	if spec.unitPrice != "" {
		price := billing.MustDecimal(spec.unitPrice)
		contract.UnitPrice = &price
	}
	if spec.fileSystemName != "" {
		contract.FileSystemName = &spec.fileSystemName
	}
	if spec.projectID != "" {
		contract.OpenstackProjectID = &spec.projectID
	}
	assert.NoError(t, db.Create(&contract).Error)
}

func seedHpcUsage(t *testing.T, db *gorm.DB, node *snowflake.Node, year, month int, owner, queue string, cores, cpuSeconds, jobs int64) {
	t.Helper()
	row := usagedomain.HpcSummaryUsage{
		ID:         node.Generate(),
		Year:       year,
		Month:      month,
		Owner:      &owner,
		Queue:      &queue,
		Cores:      &cores,
		CPUSeconds: &cpuSeconds,
		JobCount:   &jobs,
	}
	assert.NoError(t, db.Create(&row).Error)
}

var testNow = time.Date(2018, 4, 10, 12, 0, 0, 0, time.UTC)

func TestHpcSummarySimple_SumsAndPrices(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics", managerUsername: "jbloggs",
		contractType: contractdomain.ContractTypeErsaAccount, unitPrice: "2",
	})
	seedHpcUsage(t, db, node, 2018, 3, "jbloggs", "tizard", 2, 1800, 1)
	seedHpcUsage(t, db, node, 2018, 3, "jbloggs", "small", 4, 3600, 2)
	// Different month, must not leak in.
	seedHpcUsage(t, db, node, 2018, 2, "jbloggs", "tizard", 8, 7200, 4)
	// Owner with no contract triple drops out of the join.
	seedHpcUsage(t, db, node, 2018, 3, "nobody", "tizard", 16, 9000, 9)

	rows, err := svc.HpcSummarySimple(context.Background(), 2018, 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Uni A", *row.Biller)
	assert.Equal(t, "Physics", *row.ManagerUnit)
	assert.Equal(t, int64(6), row.Cores)
	assert.Equal(t, int64(5400), row.CPUSeconds)
	assert.Equal(t, int64(3), row.JobCount)
	assert.InDelta(t, 1.5, row.CPUHours, 1e-9)
	assert.InDelta(t, 3.0, row.FeeDollars, 1e-9)
	assert.InDelta(t, 2.0, *row.UnitPrice, 1e-9)
}

func TestHpcSummaryDetailed_SplitsByQueue(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics", managerUsername: "jbloggs",
		contractType: contractdomain.ContractTypeErsaAccount, unitPrice: "0.15",
	})
	seedHpcUsage(t, db, node, 2018, 3, "jbloggs", "tizard", 2, 1800, 1)
	seedHpcUsage(t, db, node, 2018, 3, "jbloggs", "small", 4, 3600, 2)

	rows, err := svc.HpcSummaryDetailed(context.Background(), 2018, 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	byQueue := map[string]reportdomain.HpcDetailedRow{}
	for _, row := range rows {
		byQueue[*row.Queue] = row
	}
	assert.Equal(t, int64(1800), byQueue["tizard"].CPUSeconds)
	assert.InDelta(t, 0.5, byQueue["tizard"].CPUHours, 1e-9)
	assert.InDelta(t, 0.075, byQueue["tizard"].Cost, 1e-9)
	assert.Equal(t, int64(3600), byQueue["small"].CPUSeconds)
}

func TestHpcSummaryChart_WindowAndOrgFilter(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics", managerUsername: "jbloggs",
		contractType: contractdomain.ContractTypeErsaAccount, unitPrice: "1",
	})
	seedTriple(t, db, node, tripleSpec{
		biller: "Uni B", managerUnit: "Chemistry", managerUsername: "asmith",
		contractType: contractdomain.ContractTypeErsaAccount, unitPrice: "1",
	})
	// Inside a 2-month window ending now (2018-04): months after 2018-02.
	seedHpcUsage(t, db, node, 2018, 3, "jbloggs", "tizard", 2, 3600, 1)
	seedHpcUsage(t, db, node, 2018, 4, "jbloggs", "tizard", 4, 7200, 2)
	seedHpcUsage(t, db, node, 2018, 3, "asmith", "tizard", 8, 3600, 1)
	// On or before the cutoff, excluded.
	seedHpcUsage(t, db, node, 2018, 2, "jbloggs", "tizard", 16, 9000, 4)
	seedHpcUsage(t, db, node, 2017, 12, "jbloggs", "tizard", 32, 9000, 4)

	rows, err := svc.HpcSummaryChart(context.Background(), "", 2)
	assert.NoError(t, err)
	assert.Len(t, rows, 3)

	filtered, err := svc.HpcSummaryChart(context.Background(), "Uni A", 2)
	assert.NoError(t, err)
	assert.Len(t, filtered, 2)
	for _, row := range filtered {
		assert.Equal(t, "Uni A", *row.Biller)
	}
}

func TestAllocationSummarySimple_MergesFeedsPerUnit(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics",
		contractType: contractdomain.ContractTypeStorage, unitPrice: "10", fileSystemName: "vv01",
	})
	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics",
		contractType: contractdomain.ContractTypeStorageBackup, unitPrice: "10", fileSystemName: "ns01",
	})

	vvName := "vv01"
	vvUsage := int64(100_000) // 100 GB at 1000 MB/GB
	vv := usagedomain.HnasVVUsage{ID: node.Generate(), Year: 2018, Month: 3, VirtualVolume: &vvName, Usage: &vvUsage}
	assert.NoError(t, db.Create(&vv).Error)

	nsName := "ns01"
	hcpUsage := int64(150 * 1073741824) // 150 GB
	hcp := usagedomain.HcpUsage{ID: node.Generate(), Year: 2018, Month: 3, Namespace: &nsName, IngestedBytes: &hcpUsage}
	assert.NoError(t, db.Create(&hcp).Error)

	rows, err := svc.AllocationSummarySimple(context.Background(), 2018, 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Uni A", *row.Biller)
	assert.InDelta(t, 250.0, row.Usage, 1e-6)
	// Blocks quantize per feed before merging: one each.
	assert.Equal(t, int64(2), row.Blocks)
	assert.InDelta(t, 20.0, row.Cost, 1e-9)
}

func TestAllocationSummarySimple_SubGigabyteBillsNothing(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics",
		contractType: contractdomain.ContractTypeStorage, unitPrice: "10", fileSystemName: "vv01",
	})

	vvName := "vv01"
	vvUsage := int64(999) // just under 1 GB
	vv := usagedomain.HnasVVUsage{ID: node.Generate(), Year: 2018, Month: 3, VirtualVolume: &vvName, Usage: &vvUsage}
	assert.NoError(t, db.Create(&vv).Error)

	rows, err := svc.AllocationSummarySimple(context.Background(), 2018, 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].Blocks)
	assert.InDelta(t, 0.0, rows[0].Cost, 1e-9)
	assert.InDelta(t, 0.999, rows[0].Usage, 1e-9)
}

func TestAllocationSummaryChart_KeepsMonthsSeparate(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics",
		contractType: contractdomain.ContractTypeStorage, unitPrice: "10", fileSystemName: "vv01",
	})

	vvName := "vv01"
	for month := 3; month <= 4; month++ {
		usage := int64(100_000)
		vv := usagedomain.HnasVVUsage{ID: node.Generate(), Year: 2018, Month: month, VirtualVolume: &vvName, Usage: &usage}
		assert.NoError(t, db.Create(&vv).Error)
	}

	rows, err := svc.AllocationSummaryChart(context.Background(), "", 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	months := map[int]bool{}
	for _, row := range rows {
		months[row.Month] = true
		assert.Equal(t, int64(1), row.Blocks)
	}
	assert.True(t, months[3])
	assert.True(t, months[4])
}

func TestHpcStorageSimple_BlocksAtHomePrice(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics", managerUsername: "jbloggs",
		contractType: contractdomain.ContractTypeErsaAccount,
	})

	owner := "jbloggs"
	usage := int64(2097152) // 2 GB in KB
	home := usagedomain.HpcHomeUsage{ID: node.Generate(), Year: 2018, Month: 3, Owner: &owner, Usage: &usage}
	assert.NoError(t, db.Create(&home).Error)

	rows, err := svc.HpcStorageSimple(context.Background(), 2018, 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)

	row := rows[0]
	assert.InDelta(t, 2.0, row.Usage, 1e-9)
	assert.Equal(t, int64(1), row.Blocks)
	assert.InDelta(t, 5.0, row.Cost, 1e-9)
}

func TestNectarSimple_PricesFlavorCores(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics",
		contractType: contractdomain.ContractTypeNectar, projectID: "proj-1",
	})

	flavorRef := "openstack-flv-1"
	vcpus := int64(4)
	flavor := contractdomain.NovaFlavor{ID: node.Generate(), OpenstackID: &flavorRef, VCPUs: &vcpus}
	assert.NoError(t, db.Create(&flavor).Error)

	tenant := "proj-1"
	for i := 0; i < 2; i++ {
		f := flavorRef
		instance := usagedomain.NectarUsage{ID: node.Generate(), Year: 2018, Month: 3, Flavor: &f, Tenant: &tenant}
		assert.NoError(t, db.Create(&instance).Error)
	}

	rows, err := svc.NectarSimple(context.Background(), 2018, 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(8), rows[0].Core)
	assert.InDelta(t, 40.0, rows[0].Cost, 1e-9) // 8 cores at the flat $5 vCPU price
}

func TestTangoSimple_PricesContractCores(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics",
		contractType: contractdomain.ContractTypeTango, unitPrice: "1.25", projectID: "vm-77",
	})

	vmID := "vm-77"
	core := int64(8)
	vm := usagedomain.TangoUsage{ID: node.Generate(), Year: 2018, Month: 3, VMID: &vmID, Core: &core}
	assert.NoError(t, db.Create(&vm).Error)

	rows, err := svc.TangoSimple(context.Background(), 2018, 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(8), rows[0].Core)
	assert.InDelta(t, 10.0, rows[0].Cost, 1e-9)
	assert.InDelta(t, 1.25, *rows[0].UnitPrice, 1e-9)
}

func TestTangoChart_CutoffExcludesOldMonths(t *testing.T) {
	svc, db, node := newTestService(t, testNow)

	seedTriple(t, db, node, tripleSpec{
		biller: "Uni A", managerUnit: "Physics",
		contractType: contractdomain.ContractTypeTango, unitPrice: "1", projectID: "vm-77",
	})

	vmID := "vm-77"
	for _, window := range []struct{ year, month int }{{2018, 4}, {2018, 3}, {2018, 1}} {
		core := int64(4)
		vm := usagedomain.TangoUsage{ID: node.Generate(), Year: window.year, Month: window.month, VMID: &vmID, Core: &core}
		assert.NoError(t, db.Create(&vm).Error)
	}

	// Cutoff is 2018-02 at now=2018-04: January drops out.
	rows, err := svc.TangoChart(context.Background(), "", 2)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}
