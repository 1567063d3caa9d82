package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/storage"
)

func testVault(address string, chainID int, createdAt time.Time) *domain.TrackedVault {
	return &domain.TrackedVault{
		Address:   address,
		ChainID:   chainID,
		Label:     "Test Vault",
		CreatedAt: createdAt,
	}
}

func TestVaultRegistryStore_InsertAndGet(t *testing.T) {
	store := NewVaultRegistryStore()
	ctx := context.Background()

	v := testVault("0xABCDEF", 1, time.Now().UTC())
	require.NoError(t, store.Insert(ctx, v))

	// Lookup is case-insensitive; the stored address is lowercased.
	got, err := store.GetByKey(ctx, "0xABCdef", 1)
	require.NoError(t, err)
	require.Equal(t, "0xabcdef", got.Address)
	require.Equal(t, "Test Vault", got.Label)

	_, err = store.GetByKey(ctx, "0xabcdef", 8453)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestVaultRegistryStore_DuplicateKey(t *testing.T) {
	store := NewVaultRegistryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testVault("0xaaa", 1, time.Now())))
	err := store.Insert(ctx, testVault("0xAAA", 1, time.Now()))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same address on another chain is a distinct vault.
	require.NoError(t, store.Insert(ctx, testVault("0xaaa", 8453, time.Now())))
}

func TestVaultRegistryStore_InvalidInput(t *testing.T) {
	store := NewVaultRegistryStore()
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Insert(ctx, &domain.TrackedVault{ChainID: 1}), storage.ErrInvalidInput)
}

func TestVaultRegistryStore_ListOrdersByCreatedAt(t *testing.T) {
	store := NewVaultRegistryStore()
	ctx := context.Background()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, testVault("0xccc", 1, base.Add(2*time.Hour))))
	require.NoError(t, store.Insert(ctx, testVault("0xaaa", 1, base)))
	require.NoError(t, store.Insert(ctx, testVault("0xbbb", 1, base.Add(time.Hour))))

	vaults, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, vaults, 3)
	require.Equal(t, "0xaaa", vaults[0].Address)
	require.Equal(t, "0xbbb", vaults[1].Address)
	require.Equal(t, "0xccc", vaults[2].Address)
}

func TestVaultRegistryStore_ReturnsCopies(t *testing.T) {
	store := NewVaultRegistryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testVault("0xaaa", 1, time.Now())))

	got, err := store.GetByKey(ctx, "0xaaa", 1)
	require.NoError(t, err)
	got.Label = "mutated"

	again, err := store.GetByKey(ctx, "0xaaa", 1)
	require.NoError(t, err)
	require.Equal(t, "Test Vault", again.Label)
}
