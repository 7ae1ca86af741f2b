package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/linecontrol/boxline/internal/clock"
	"github.com/linecontrol/boxline/internal/config"
	obsmetrics "github.com/linecontrol/boxline/internal/observability/metrics"
	"github.com/linecontrol/boxline/internal/providers/telegram"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Line     *config.LineHolder
	Notifier telegram.Provider
	Workbook *Workbook
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

// Service fans a finished batch out to the notification chat and the shift
// workbook. Both sinks are best-effort; only the summary document is load
// bearing for the caller.
type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	line     *config.LineHolder
	notifier telegram.Provider
	workbook *Workbook
	metrics  *obsmetrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		log:      p.Log.Named("report"),
		clock:    p.Clock,
		line:     p.Line,
		notifier: p.Notifier,
		workbook: p.Workbook,
		metrics:  p.Metrics,
	}
}

// FinishBatch records a completed batch and returns the summary PDF.
func (s *Service) FinishBatch(ctx context.Context, entry Entry) ([]byte, error) {
	now := s.clock.Now().In(s.line.Location())

	text := fmt.Sprintf("✅ <b>Finished goods</b>\n\n📦 %s\n🔢 %d boxes\n👤 %s",
		entry.Brand, entry.Count, entry.UserName)
	s.notify(ctx, "finish_batch", text)

	if err := s.workbook.Append(now, entry); err != nil {
		s.log.Error("report workbook append failed", zap.Error(err))
	}

	doc, err := RenderSummary(now, entry)
	if err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	return doc, nil
}

// FinishInventory posts the stock-taking totals. Nothing is persisted.
func (s *Service) FinishInventory(ctx context.Context, stats map[string]int) {
	if len(stats) == 0 {
		return
	}

	products := make([]string, 0, len(stats))
	total := 0
	for name, qty := range stats {
		products = append(products, name)
		total += qty
	}
	sort.Strings(products)

	lines := make([]string, 0, len(products))
	for _, name := range products {
		lines = append(lines, fmt.Sprintf("%s — %d boxes", name, stats[name]))
	}
	text := fmt.Sprintf("📋 <b>Inventory complete</b>\nTotal: %d\n\n%s",
		total, strings.Join(lines, "\n"))
	s.notify(ctx, "finish_inventory", text)
}

func (s *Service) notify(ctx context.Context, event, text string) {
	err := s.notifier.SendMessage(ctx, text)
	s.metrics.RecordNotification(ctx, event, err == nil)
	if err != nil {
		s.log.Error("notification failed", zap.String("event", event), zap.Error(err))
	}
}

var Module = fx.Module("report",
	fx.Provide(func(log *zap.Logger, cfg config.Config) *Workbook {
		return NewWorkbook(log, cfg.ReportWorkbook)
	}),
	fx.Provide(New),
)
