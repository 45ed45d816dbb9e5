package domain

import "context"

// Service ingests the monthly usage feeds. Every operation replaces the
// persisted rows for its (feed, year, month) window with the freshly
// fetched set inside one transaction, so reprocessing is idempotent.
type Service interface {
	ProcessHpcSummary(ctx context.Context, year, month int) error
	// ProcessAllocationSummary ingests the four national-storage
	// sub-feeds: HNAS virtual volume, HCP, HNAS filesystem, XFS.
	ProcessAllocationSummary(ctx context.Context, year, month int) error
	ProcessHpcStorage(ctx context.Context, year, month int) error
	ProcessNectar(ctx context.Context, year, month int) error
	ProcessTango(ctx context.Context, year, month int) error
}
