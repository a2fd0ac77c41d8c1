// Package store contains the GORM-backed SQLite models persisted by the pool
// client (database file: pool_data.db).
//
// Selection history survives restarts so participation queries do not depend
// on the chain keeping full history online; sync state remembers how far the
// hydrator has observed so era boundaries are detected exactly once.
package store

import (
	"gorm.io/gorm"
)

// SelectionRecord is one era in which a validator was selected into the
// active set. Append-only; the unique index makes duplicate recording of the
// same era a no-op at the database layer too.
type SelectionRecord struct {
	gorm.Model
	Address  string `gorm:"uniqueIndex:idx_address_era;index;not null"`
	EraIndex uint32 `gorm:"uniqueIndex:idx_address_era;not null"`
}

// PoolSyncState tracks hydration progress. One record per database.
type PoolSyncState struct {
	gorm.Model
	LastEraIndex  uint32 // era index of the most recent published snapshot
	LastBlock     uint64 // chain height of the most recent published snapshot
	HistorySeeded bool   // whether selection history was bulk-seeded from the chain
}
