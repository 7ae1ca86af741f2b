package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	batchdomain "github.com/linecontrol/boxline/internal/batch/domain"
	batchrepo "github.com/linecontrol/boxline/internal/batch/repository"
	boxdomain "github.com/linecontrol/boxline/internal/box/domain"
	boxrepo "github.com/linecontrol/boxline/internal/box/repository"
	"github.com/linecontrol/boxline/internal/clock"
	"github.com/linecontrol/boxline/internal/config"
	"github.com/linecontrol/boxline/internal/scan/domain"
	"github.com/linecontrol/boxline/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&batchdomain.Batch{}, &boxdomain.Box{}))
	return conn
}

type fixture struct {
	svc     domain.Service
	conn    *gorm.DB
	clock   *clock.FakeClock
	batches batchdomain.Repository
	boxes   boxdomain.Repository
}

func newFixture(t *testing.T, line config.LineConfig) *fixture {
	t.Helper()
	conn := openTestDB(t)
	holder, err := config.NewStaticLineHolder(line)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC))
	f := &fixture{
		conn:    conn,
		clock:   fake,
		batches: batchrepo.Provide(),
		boxes:   boxrepo.Provide(),
	}
	f.svc = New(Params{
		DB:      db.NewHandle(conn),
		Log:     zaptest.NewLogger(t),
		Clock:   fake,
		Line:    holder,
		Boxes:   f.boxes,
		Batches: f.batches,
	})
	return f
}

func (f *fixture) seedBatch(t *testing.T, planned int, boxIDs ...string) *batchdomain.Batch {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	batch := &batchdomain.Batch{
		ID:              node.Generate(),
		ProductInfo:     "Sauce Classic Tomato Olivia (12 pcs/box)",
		PlannedQuantity: planned,
		BatchNumber:     "41",
	}
	require.NoError(t, f.batches.Insert(context.Background(), f.conn, batch))

	boxes := make([]*boxdomain.Box, 0, len(boxIDs))
	for _, id := range boxIDs {
		boxes = append(boxes, &boxdomain.Box{ID: id, BatchID: batch.ID, Status: boxdomain.StatusCreated})
	}
	require.NoError(t, f.boxes.Insert(context.Background(), f.conn, boxes))
	return batch
}

func TestScanUnknownCode(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())
	f.seedBatch(t, 10, "box-1")

	out, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: "nope", Mode: "production"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeUnknownCode, out.Kind)
	require.Nil(t, out.Box)
}

func TestScanProductionThenDuplicate(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())
	f.seedBatch(t, 10, "box-1")

	out, err := f.svc.Scan(context.Background(), domain.ScanRequest{
		Code:      "box-1",
		Mode:      "production",
		UserName:  "maria",
		MachineID: "line-2",
		Coworkers: []string{"pavel"},
	})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, out.Kind)
	require.Equal(t, boxdomain.StatusProduced, out.Box.Status)
	require.Equal(t, "maria", out.Box.ScannedByUserName)

	firstScan := *out.Box.ScannedAt

	f.clock.Advance(time.Hour)
	out, err = f.svc.Scan(context.Background(), domain.ScanRequest{
		Code:     "box-1",
		Mode:     "production",
		UserName: "oleg",
	})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeDuplicate, out.Kind)
	require.Contains(t, out.Message, "maria")

	stored, err := f.boxes.FindByID(context.Background(), f.conn, "box-1")
	require.NoError(t, err)
	require.Equal(t, "maria", stored.ScannedByUserName)
	require.WithinDuration(t, firstScan, *stored.ScannedAt, time.Second)
}

func TestScanPlanComplete(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())
	f.seedBatch(t, 2, "box-1", "box-2", "box-3")

	for _, code := range []string{"box-1", "box-2"} {
		out, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: code, Mode: "production"})
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeOK, out.Kind)
	}

	out, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: "box-3", Mode: "production"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePlanComplete, out.Kind)

	stored, err := f.boxes.FindByID(context.Background(), f.conn, "box-3")
	require.NoError(t, err)
	require.Equal(t, boxdomain.StatusCreated, stored.Status)
}

func TestScanZeroPlanIsAlreadyComplete(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())
	f.seedBatch(t, 0, "box-1")

	out, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: "box-1", Mode: "production"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePlanComplete, out.Kind)

	stored, err := f.boxes.FindByID(context.Background(), f.conn, "box-1")
	require.NoError(t, err)
	require.Equal(t, boxdomain.StatusCreated, stored.Status)
	require.Nil(t, stored.ScannedAt)
}

func TestScanPlanCeilingDisabled(t *testing.T) {
	line := config.DefaultLineConfig()
	line.EnforcePlanQuantity = false
	f := newFixture(t, line)
	f.seedBatch(t, 1, "box-1", "box-2")

	for _, code := range []string{"box-1", "box-2"} {
		out, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: code, Mode: "production"})
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeOK, out.Kind)
	}
}

func TestScanInventoryIdempotent(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())
	f.seedBatch(t, 10, "box-1")

	out, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: "box-1", Mode: "inventory"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, out.Kind)
	require.True(t, out.Box.InventoryOK)
	require.Contains(t, out.Product, "Olivia")

	firstAt := *out.Box.InventoryAt
	f.clock.Advance(time.Hour)

	out, err = f.svc.Scan(context.Background(), domain.ScanRequest{Code: "box-1", Mode: "inventory"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, out.Kind)
	require.WithinDuration(t, firstAt, *out.Box.InventoryAt, time.Second)
}

func TestScanInventoryKeepsProductionState(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())
	f.seedBatch(t, 10, "box-1")

	_, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: "box-1", Mode: "production", UserName: "maria"})
	require.NoError(t, err)

	_, err = f.svc.Scan(context.Background(), domain.ScanRequest{Code: "box-1", Mode: "inventory"})
	require.NoError(t, err)

	stored, err := f.boxes.FindByID(context.Background(), f.conn, "box-1")
	require.NoError(t, err)
	require.Equal(t, boxdomain.StatusProduced, stored.Status)
	require.Equal(t, "maria", stored.ScannedByUserName)
	require.True(t, stored.InventoryOK)
}

func TestScanRevisionDoesNotMutate(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())
	f.seedBatch(t, 10, "box-1")

	out, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: "box-1", Mode: "revision"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, out.Kind)
	require.Contains(t, out.Product, "Olivia")

	stored, err := f.boxes.FindByID(context.Background(), f.conn, "box-1")
	require.NoError(t, err)
	require.Equal(t, boxdomain.StatusCreated, stored.Status)
	require.False(t, stored.InventoryOK)
	require.Nil(t, stored.ScannedAt)
}

func TestScanUnknownMode(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())

	_, err := f.svc.Scan(context.Background(), domain.ScanRequest{Code: "box-1", Mode: "repair"})
	require.ErrorIs(t, err, domain.ErrUnknownMode)
}

func TestScanStoreUnavailable(t *testing.T) {
	holder, err := config.NewStaticLineHolder(config.DefaultLineConfig())
	require.NoError(t, err)
	svc := New(Params{
		DB:      db.Unconfigured(),
		Log:     zaptest.NewLogger(t),
		Clock:   clock.NewFakeClock(time.Now()),
		Line:    holder,
		Boxes:   boxrepo.Provide(),
		Batches: batchrepo.Provide(),
	})

	_, err = svc.Scan(context.Background(), domain.ScanRequest{Code: "box-1", Mode: "production"})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestScanDeviceTimestampWins(t *testing.T) {
	f := newFixture(t, config.DefaultLineConfig())
	f.seedBatch(t, 10, "box-1")

	at := time.Date(2026, time.March, 4, 23, 30, 0, 0, time.UTC)
	out, err := f.svc.Scan(context.Background(), domain.ScanRequest{
		Code:      "box-1",
		Mode:      "production",
		ScannedAt: at,
	})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, out.Kind)
	require.WithinDuration(t, at, *out.Box.ScannedAt, time.Second)
}
