package db

import "gorm.io/gorm"

// Handle is the injected record-store dependency. A Handle without a DB is
// the explicit "no store configured" variant: callers must branch on
// Configured() instead of assuming a connection exists.
type Handle struct {
	DB *gorm.DB
}

func NewHandle(db *gorm.DB) *Handle {
	return &Handle{DB: db}
}

// Unconfigured returns the no-persistence variant.
func Unconfigured() *Handle {
	return &Handle{}
}

func (h *Handle) Configured() bool {
	return h != nil && h.DB != nil
}
