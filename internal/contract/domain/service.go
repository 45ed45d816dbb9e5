package domain

import "context"

// Service refreshes contract and reference data from the CRM and usage
// servers. Each refresh replaces matching rows wholesale; there is no
// field-level merge.
type Service interface {
	RefreshErsaAccounts(ctx context.Context) error
	RefreshAttachedStorage(ctx context.Context) error
	RefreshAttachedStorageBackup(ctx context.Context) error
	RefreshNectarContracts(ctx context.Context) error
	RefreshTangoContracts(ctx context.Context) error
	RefreshNovaFlavors(ctx context.Context) error
}
