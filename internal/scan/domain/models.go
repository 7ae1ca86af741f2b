package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	batchdomain "github.com/linecontrol/boxline/internal/batch/domain"
	boxdomain "github.com/linecontrol/boxline/internal/box/domain"
)

// Mode selects which state transition a scan performs.
type Mode string

const (
	ModeProduction Mode = "production"
	ModeInventory  Mode = "inventory"
	ModeRevision   Mode = "revision"
)

var (
	// ErrUnknownMode is returned when a device sends a mode the line does
	// not recognize. It is a configuration fault, not a scan outcome.
	ErrUnknownMode = errors.New("unknown scan mode")

	// ErrStoreUnavailable is returned for scan attempts while the service
	// runs without a configured store.
	ErrStoreUnavailable = errors.New("box store is not configured")
)

// ParseMode normalizes and validates a device-supplied mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeProduction:
		return ModeProduction, nil
	case ModeInventory:
		return ModeInventory, nil
	case ModeRevision:
		return ModeRevision, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

// OutcomeKind is the per-scan verdict reported back to the device.
type OutcomeKind string

const (
	OutcomeOK           OutcomeKind = "OK"
	OutcomeDuplicate    OutcomeKind = "DUPLICATE"
	OutcomePlanComplete OutcomeKind = "PLAN_COMPLETE"
	OutcomeUnknownCode  OutcomeKind = "UNKNOWN_CODE"
)

// Outcome describes the result of processing one scanned code.
type Outcome struct {
	Kind    OutcomeKind
	Message string

	// Product carries the batch product description on inventory and
	// revision scans so the operator can see what is in hand.
	Product string

	Box   *boxdomain.Box
	Batch *batchdomain.Batch
}

// ScanRequest is one code read from a device.
type ScanRequest struct {
	Code      string
	Mode      string
	UserName  string
	MachineID string
	Coworkers []string

	// ScannedAt is the device-reported time. Zero means the server clock
	// is authoritative.
	ScannedAt time.Time
}

type Service interface {
	Scan(ctx context.Context, req ScanRequest) (Outcome, error)
}
