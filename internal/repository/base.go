// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"net"

	"ripple/internal/models"
)

// idCount is the scan target for grouped COUNT queries.
type idCount struct {
	ID  uint  `gorm:"column:id"`
	Cnt int64 `gorm:"column:cnt"`
}

func countMap(rows []idCount) map[uint]int {
	m := make(map[uint]int, len(rows))
	for _, r := range rows {
		m[r.ID] = int(r.Cnt)
	}
	return m
}

// wrapErr classifies a storage error. Transient failures reaching the
// store surface as STORE_UNAVAILABLE so the caller can retry the whole
// request; everything else is internal. Not-found is handled by callers
// before this point.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return models.NewStoreUnavailableError(err)
	}
	return models.NewInternalError(err)
}
