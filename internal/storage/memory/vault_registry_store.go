// Package memory provides in-memory storage implementations, used in tests
// and for running the service without external databases.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/storage"
)

type vaultKey struct {
	address string
	chainID int
}

// VaultRegistryStore is an in-memory implementation of storage.VaultRegistryStore.
type VaultRegistryStore struct {
	mu     sync.RWMutex
	vaults map[vaultKey]*domain.TrackedVault
}

// NewVaultRegistryStore creates a new in-memory vault registry.
func NewVaultRegistryStore() *VaultRegistryStore {
	return &VaultRegistryStore{
		vaults: make(map[vaultKey]*domain.TrackedVault),
	}
}

func registryKey(address string, chainID int) vaultKey {
	return vaultKey{address: strings.ToLower(address), chainID: chainID}
}

// Insert registers a vault.
func (s *VaultRegistryStore) Insert(_ context.Context, v *domain.TrackedVault) error {
	if v == nil || v.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := registryKey(v.Address, v.ChainID)
	if _, exists := s.vaults[key]; exists {
		return storage.ErrDuplicateKey
	}

	// Addresses are canonicalized to lowercase, as in the Postgres store.
	clone := *v
	clone.Address = key.address
	s.vaults[key] = &clone
	return nil
}

// GetByKey retrieves a vault by address and chain id.
func (s *VaultRegistryStore) GetByKey(_ context.Context, address string, chainID int) (*domain.TrackedVault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.vaults[registryKey(address, chainID)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	clone := *v
	return &clone, nil
}

// List returns all registered vaults ordered by creation time.
func (s *VaultRegistryStore) List(_ context.Context) ([]*domain.TrackedVault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TrackedVault, 0, len(s.vaults))
	for _, v := range s.vaults {
		clone := *v
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Address < out[j].Address
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ storage.VaultRegistryStore = (*VaultRegistryStore)(nil)
