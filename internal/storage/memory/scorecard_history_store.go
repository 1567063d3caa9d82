package memory

import (
	"context"
	"sort"
	"sync"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/storage"
)

// ScorecardHistoryStore is an in-memory implementation of storage.ScorecardHistoryStore.
type ScorecardHistoryStore struct {
	mu      sync.RWMutex
	records map[vaultKey][]*domain.ScorecardRecord
}

// NewScorecardHistoryStore creates a new in-memory scorecard archive.
func NewScorecardHistoryStore() *ScorecardHistoryStore {
	return &ScorecardHistoryStore{
		records: make(map[vaultKey][]*domain.ScorecardRecord),
	}
}

// Insert appends a scorecard record.
func (s *ScorecardHistoryStore) Insert(_ context.Context, record *domain.ScorecardRecord) error {
	if record == nil || record.VaultAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := registryKey(record.VaultAddress, record.ChainID)
	clone := *record
	clone.VaultAddress = key.address
	s.records[key] = append(s.records[key], &clone)
	return nil
}

// GetByVault returns up to limit records for a vault, newest first.
func (s *ScorecardHistoryStore) GetByVault(_ context.Context, address string, chainID int, limit int) ([]*domain.ScorecardRecord, error) {
	if address == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.records[registryKey(address, chainID)]
	out := make([]*domain.ScorecardRecord, 0, len(stored))
	for _, record := range stored {
		clone := *record
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BuiltAt > out[j].BuiltAt
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ storage.ScorecardHistoryStore = (*ScorecardHistoryStore)(nil)
