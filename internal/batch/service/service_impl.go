package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/linecontrol/boxline/internal/batch/domain"
	boxdomain "github.com/linecontrol/boxline/internal/box/domain"
	"github.com/linecontrol/boxline/internal/clock"
	"github.com/linecontrol/boxline/internal/config"
	"github.com/linecontrol/boxline/internal/label"
	obsmetrics "github.com/linecontrol/boxline/internal/observability/metrics"
	"github.com/linecontrol/boxline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	labelDateLayout = "02.01.06"
	labelTimeLayout = "15:04"
)

type Params struct {
	fx.In

	DB       *db.Handle
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Line     *config.LineHolder
	Batches  domain.Repository
	Boxes    boxdomain.Repository
	Renderer *label.Renderer
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

// Service is the batch factory: it allocates the batch and box records and
// renders the label document for them.
type Service struct {
	db       *db.Handle
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	line     *config.LineHolder
	batches  domain.Repository
	boxes    boxdomain.Repository
	renderer *label.Renderer
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("batch.factory"),
		genID:    p.GenID,
		clock:    p.Clock,
		line:     p.Line,
		batches:  p.Batches,
		boxes:    p.Boxes,
		renderer: p.Renderer,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBatchRequest) (domain.CreateBatchResponse, error) {
	if req.Count < 0 {
		return domain.CreateBatchResponse{}, domain.ErrInvalidCount
	}
	if req.ItemsPerBox <= 0 {
		return domain.CreateBatchResponse{}, domain.ErrInvalidItemsPerBox
	}

	now := s.clock.Now().In(s.line.Location())
	productInfo := ComposeProductInfo(req)
	brandSlug := slug.Make(strings.TrimSpace(req.BrandName))
	if brandSlug == "" {
		brandSlug = "batch"
	}

	resp := domain.CreateBatchResponse{
		BoxIDs:   make([]string, 0, req.Count),
		Filename: fmt.Sprintf("batch_preview_%s.pdf", brandSlug),
	}

	if s.db.Configured() {
		batch := &domain.Batch{
			ID:              s.genID.Generate(),
			ProductInfo:     productInfo,
			PlannedQuantity: req.Count,
			BatchNumber:     strings.TrimSpace(req.BatchNumber),
			CreatedAt:       now.UTC(),
			UpdatedAt:       now.UTC(),
		}
		if err := s.batches.Insert(ctx, s.db.DB, batch); err != nil {
			return domain.CreateBatchResponse{}, fmt.Errorf("insert batch: %w", err)
		}

		boxes := make([]*boxdomain.Box, 0, req.Count)
		for i := 0; i < req.Count; i++ {
			id := uuid.NewString()
			resp.BoxIDs = append(resp.BoxIDs, id)
			boxes = append(boxes, &boxdomain.Box{
				ID:        id,
				BatchID:   batch.ID,
				Status:    boxdomain.StatusCreated,
				CreatedAt: now.UTC(),
				UpdatedAt: now.UTC(),
			})
		}
		if err := s.boxes.Insert(ctx, s.db.DB, boxes); err != nil {
			// The batch row already exists; it stays behind as a benign
			// orphan, cleanup is an operational concern.
			return domain.CreateBatchResponse{}, fmt.Errorf("insert boxes: %w", err)
		}

		resp.BatchID = batch.ID
		resp.Filename = fmt.Sprintf("batch_%s_%s.pdf", batch.ID.String(), brandSlug)
	} else {
		// Degraded mode: render from an in-memory box list so the label
		// path stays usable without a store.
		for i := 0; i < req.Count; i++ {
			resp.BoxIDs = append(resp.BoxIDs, uuid.NewString())
		}
	}

	document, err := s.renderer.Render(resp.BoxIDs, label.Content{
		Type:        req.Type,
		Category:    req.Category,
		Recipe:      req.Recipe,
		Brand:       req.BrandName,
		UnitsPerBox: req.ItemsPerBox,
		Date:        now.Format(labelDateLayout),
		Time:        now.Format(labelTimeLayout),
	})
	if err != nil {
		return domain.CreateBatchResponse{}, err
	}
	resp.Document = document

	s.metrics.RecordBatchCreated(ctx, len(resp.BoxIDs))
	s.log.Info("batch created",
		zap.String("batch_id", resp.BatchID.String()),
		zap.Int("boxes", len(resp.BoxIDs)),
		zap.Bool("persisted", s.db.Configured()),
	)

	return resp, nil
}

// ComposeProductInfo builds the display string shown on inventory scans
// and reports: type, category, recipe, brand, units per box.
func ComposeProductInfo(req domain.CreateBatchRequest) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{req.Type, req.Category, req.Recipe, req.BrandName} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return fmt.Sprintf("%s (%d pcs/box)", strings.Join(parts, " "), req.ItemsPerBox)
}

var _ domain.Service = (*Service)(nil)
