package taskloop

import (
	"gorm.io/gorm"

	"github.com/taskloop/taskloop/pkg/storage"
)

// Storage implementation aliases
type (
	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// MemoryStorage is an in-memory Storage for tests and embedded use.
	MemoryStorage = storage.MemoryStorage
)

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return storage.NewMemoryStorage()
}
