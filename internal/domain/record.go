package domain

import "time"

// TrackedVault is a registry entry for a vault the service watches.
type TrackedVault struct {
	Address   string
	ChainID   int
	Label     string
	CreatedAt time.Time
}

// ScorecardRecord is one archived scorecard row, written after each
// successful read-model build so trends survive process restarts.
type ScorecardRecord struct {
	VaultAddress string
	ChainID      int
	AsOf         int64 // snapshot as-of timestamp, Unix seconds
	BuiltAt      int64 // wall clock of the build, Unix seconds
	Scorecard    Scorecard
}
