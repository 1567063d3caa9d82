// Package storage defines the persistence interfaces of the service.
// Backends live in subpackages; callers depend only on these interfaces.
package storage

import (
	"context"

	"vault-risk-lab/internal/domain"
)

// VaultRegistryStore holds the vaults the service tracks. A vault is keyed
// by (address, chain id).
type VaultRegistryStore interface {
	// Insert registers a vault. Returns ErrDuplicateKey if the vault is
	// already registered.
	Insert(ctx context.Context, v *domain.TrackedVault) error

	// GetByKey retrieves a vault by address and chain id. Returns
	// ErrNotFound if the vault is not registered.
	GetByKey(ctx context.Context, address string, chainID int) (*domain.TrackedVault, error)

	// List returns all registered vaults ordered by creation time.
	List(ctx context.Context) ([]*domain.TrackedVault, error)
}

// ScorecardHistoryStore archives one scorecard row per successful build,
// append-only.
type ScorecardHistoryStore interface {
	// Insert appends a scorecard record.
	Insert(ctx context.Context, record *domain.ScorecardRecord) error

	// GetByVault returns up to limit records for a vault, newest first.
	// limit <= 0 means no limit.
	GetByVault(ctx context.Context, address string, chainID int, limit int) ([]*domain.ScorecardRecord, error)
}
