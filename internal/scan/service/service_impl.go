package service

import (
	"context"
	"fmt"
	"time"

	batchdomain "github.com/linecontrol/boxline/internal/batch/domain"
	boxdomain "github.com/linecontrol/boxline/internal/box/domain"
	"github.com/linecontrol/boxline/internal/clock"
	"github.com/linecontrol/boxline/internal/config"
	obsmetrics "github.com/linecontrol/boxline/internal/observability/metrics"
	"github.com/linecontrol/boxline/internal/scan/domain"
	"github.com/linecontrol/boxline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	DB      *db.Handle
	Log     *zap.Logger
	Clock   clock.Clock
	Line    *config.LineHolder
	Boxes   boxdomain.Repository
	Batches batchdomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *db.Handle
	log     *zap.Logger
	clock   clock.Clock
	line    *config.LineHolder
	boxes   boxdomain.Repository
	batches batchdomain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("scan"),
		clock:   p.Clock,
		line:    p.Line,
		boxes:   p.Boxes,
		batches: p.Batches,
		metrics: p.Metrics,
	}
}

// Scan applies one code read to the box state machine. The verdict for a
// recognized code is always an Outcome; errors are reserved for bad modes
// and infrastructure faults.
func (s *Service) Scan(ctx context.Context, req domain.ScanRequest) (domain.Outcome, error) {
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		return domain.Outcome{}, err
	}
	if !s.db.Configured() {
		return domain.Outcome{}, domain.ErrStoreUnavailable
	}

	box, err := s.boxes.FindByID(ctx, s.db.DB, req.Code)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("find box %q: %w", req.Code, err)
	}
	if box == nil {
		return s.record(ctx, mode, domain.Outcome{
			Kind:    domain.OutcomeUnknownCode,
			Message: "code is not registered on this line",
		}), nil
	}

	batch, err := s.batches.FindByID(ctx, s.db.DB, box.BatchID)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("find batch %d: %w", box.BatchID, err)
	}

	var outcome domain.Outcome
	switch mode {
	case domain.ModeProduction:
		outcome, err = s.produce(ctx, req, box, batch)
	case domain.ModeInventory:
		outcome, err = s.inventory(ctx, req, box, batch)
	case domain.ModeRevision:
		outcome = s.revise(box, batch)
	}
	if err != nil {
		return domain.Outcome{}, err
	}
	return s.record(ctx, mode, outcome), nil
}

func (s *Service) produce(ctx context.Context, req domain.ScanRequest, box *boxdomain.Box, batch *batchdomain.Batch) (domain.Outcome, error) {
	if box.Status == boxdomain.StatusProduced {
		msg := "box already scanned"
		if box.ScannedAt != nil {
			msg = fmt.Sprintf("box already scanned at %s by %s",
				box.ScannedAt.In(s.line.Location()).Format("02.01.2006 15:04"),
				box.ScannedByUserName)
		}
		return domain.Outcome{
			Kind:    domain.OutcomeDuplicate,
			Message: msg,
			Product: productInfo(batch),
			Box:     box,
			Batch:   batch,
		}, nil
	}

	// The plan ceiling is a read-then-write check. Concurrent scans can
	// overshoot by the number of in-flight requests, which the line
	// tolerates; the count is re-read on every scan.
	// A planned quantity of zero means the plan is already met, so the
	// ceiling applies to it like to any other value.
	if s.line.Current().EnforcePlanQuantity && batch != nil {
		produced, err := s.boxes.CountProduced(ctx, s.db.DB, batch.ID)
		if err != nil {
			return domain.Outcome{}, fmt.Errorf("count produced for batch %d: %w", batch.ID, err)
		}
		if produced >= int64(batch.PlannedQuantity) {
			return domain.Outcome{
				Kind:    domain.OutcomePlanComplete,
				Message: fmt.Sprintf("plan of %d boxes is already complete", batch.PlannedQuantity),
				Product: productInfo(batch),
				Box:     box,
				Batch:   batch,
			}, nil
		}
	}

	stamp := boxdomain.ProduceStamp{
		ScannedAt: s.scanTime(req),
		UserName:  req.UserName,
		MachineID: req.MachineID,
		Coworkers: req.Coworkers,
	}
	if err := s.boxes.MarkProduced(ctx, s.db.DB, box.ID, stamp); err != nil {
		return domain.Outcome{}, fmt.Errorf("mark produced %q: %w", box.ID, err)
	}
	box.Status = boxdomain.StatusProduced
	box.ScannedAt = &stamp.ScannedAt
	box.ScannedByUserName = stamp.UserName
	box.ProducedOnMachineID = stamp.MachineID

	return domain.Outcome{
		Kind:    domain.OutcomeOK,
		Message: "box registered",
		Product: productInfo(batch),
		Box:     box,
		Batch:   batch,
	}, nil
}

// inventory flips the stock-taking flag. Re-scanning an already flagged box
// is a no-op success so two counters can walk the same shelf.
func (s *Service) inventory(ctx context.Context, req domain.ScanRequest, box *boxdomain.Box, batch *batchdomain.Batch) (domain.Outcome, error) {
	if !box.InventoryOK {
		at := s.scanTime(req)
		if err := s.boxes.MarkInventory(ctx, s.db.DB, box.ID, at); err != nil {
			return domain.Outcome{}, fmt.Errorf("mark inventory %q: %w", box.ID, err)
		}
		box.InventoryOK = true
		box.InventoryAt = &at
	}
	return domain.Outcome{
		Kind:    domain.OutcomeOK,
		Message: "inventory recorded",
		Product: productInfo(batch),
		Box:     box,
		Batch:   batch,
	}, nil
}

// revise reads the box back without touching it.
func (s *Service) revise(box *boxdomain.Box, batch *batchdomain.Batch) domain.Outcome {
	return domain.Outcome{
		Kind:    domain.OutcomeOK,
		Message: "box found",
		Product: productInfo(batch),
		Box:     box,
		Batch:   batch,
	}
}

func (s *Service) scanTime(req domain.ScanRequest) time.Time {
	if !req.ScannedAt.IsZero() {
		return req.ScannedAt.UTC()
	}
	return s.clock.Now().UTC()
}

func (s *Service) record(ctx context.Context, mode domain.Mode, outcome domain.Outcome) domain.Outcome {
	s.metrics.RecordScan(ctx, string(mode), string(outcome.Kind))
	s.log.Info("scan processed",
		zap.String("mode", string(mode)),
		zap.String("outcome", string(outcome.Kind)),
	)
	return outcome
}

func productInfo(batch *batchdomain.Batch) string {
	if batch == nil || batch.ProductInfo == "" {
		return "Unknown product"
	}
	return batch.ProductInfo
}

var _ domain.Service = (*Service)(nil)
