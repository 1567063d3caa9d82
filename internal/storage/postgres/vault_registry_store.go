package postgres

import (
	"context"
	"fmt"
	"strings"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/storage"
)

// VaultRegistryStore implements storage.VaultRegistryStore using PostgreSQL.
type VaultRegistryStore struct {
	pool *Pool
}

// NewVaultRegistryStore creates a new VaultRegistryStore.
func NewVaultRegistryStore(pool *Pool) *VaultRegistryStore {
	return &VaultRegistryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultRegistryStore = (*VaultRegistryStore)(nil)

// Insert registers a vault. Returns ErrDuplicateKey if (address, chain_id)
// is already registered. Addresses are stored lowercased.
func (s *VaultRegistryStore) Insert(ctx context.Context, v *domain.TrackedVault) error {
	if v == nil || v.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO vault_registry (address, chain_id, label, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		strings.ToLower(v.Address),
		v.ChainID,
		v.Label,
		v.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert tracked vault: %w", err)
	}
	return nil
}

// GetByKey retrieves a vault by address and chain id. Returns ErrNotFound
// if the vault is not registered.
func (s *VaultRegistryStore) GetByKey(ctx context.Context, address string, chainID int) (*domain.TrackedVault, error) {
	query := `
		SELECT address, chain_id, label, created_at
		FROM vault_registry
		WHERE address = $1 AND chain_id = $2
	`

	row := s.pool.QueryRow(ctx, query, strings.ToLower(address), chainID)

	var v domain.TrackedVault
	err := row.Scan(&v.Address, &v.ChainID, &v.Label, &v.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get tracked vault: %w", err)
	}
	return &v, nil
}

// List returns all registered vaults ordered by creation time.
func (s *VaultRegistryStore) List(ctx context.Context) ([]*domain.TrackedVault, error) {
	query := `
		SELECT address, chain_id, label, created_at
		FROM vault_registry
		ORDER BY created_at ASC, address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tracked vaults: %w", err)
	}
	defer rows.Close()

	var vaults []*domain.TrackedVault
	for rows.Next() {
		var v domain.TrackedVault
		if err := rows.Scan(&v.Address, &v.ChainID, &v.Label, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tracked vault row: %w", err)
		}
		vaults = append(vaults, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked vault rows: %w", err)
	}

	return vaults, nil
}
