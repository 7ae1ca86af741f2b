package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	batchdomain "github.com/linecontrol/boxline/internal/batch/domain"
	batchrepo "github.com/linecontrol/boxline/internal/batch/repository"
	batchservice "github.com/linecontrol/boxline/internal/batch/service"
	boxdomain "github.com/linecontrol/boxline/internal/box/domain"
	boxrepo "github.com/linecontrol/boxline/internal/box/repository"
	"github.com/linecontrol/boxline/internal/clock"
	"github.com/linecontrol/boxline/internal/config"
	"github.com/linecontrol/boxline/internal/label"
	"github.com/linecontrol/boxline/internal/observability"
	"github.com/linecontrol/boxline/internal/providers/telegram"
	"github.com/linecontrol/boxline/internal/reference"
	"github.com/linecontrol/boxline/internal/report"
	scanservice "github.com/linecontrol/boxline/internal/scan/service"
	"github.com/linecontrol/boxline/pkg/db"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&batchdomain.Batch{}, &boxdomain.Box{}))

	log := zaptest.NewLogger(t)
	holder, err := config.NewStaticLineHolder(config.DefaultLineConfig())
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC))
	handle := db.NewHandle(conn)
	boxes := boxrepo.Provide()
	batches := batchrepo.Provide()

	refPath := writeReferenceWorkbook(t)
	cfg := config.Config{
		AppVersion:        "test",
		ReferenceWorkbook: refPath,
	}
	refStore := reference.NewStore(log, cfg)
	require.NoError(t, refStore.Reload())

	batchSvc := batchservice.New(batchservice.Params{
		DB:       handle,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Line:     holder,
		Batches:  batches,
		Boxes:    boxes,
		Renderer: label.NewRenderer(log, holder),
	})
	scanSvc := scanservice.New(scanservice.Params{
		DB:      handle,
		Log:     log,
		Clock:   fake,
		Line:    holder,
		Boxes:   boxes,
		Batches: batches,
	})
	reportSvc := report.New(report.Params{
		Log:      log,
		Clock:    fake,
		Line:     holder,
		Notifier: telegram.NoOpProvider{},
		Workbook: report.NewWorkbook(log, filepath.Join(t.TempDir(), "reports.xlsx")),
	})

	engine := NewEngine(observability.Config{}, nil)
	return NewServer(ServerParams{
		Gin:       engine,
		Cfg:       cfg,
		BatchSvc:  batchSvc,
		ScanSvc:   scanSvc,
		ReportSvc: reportSvc,
		RefStore:  refStore,
	})
}

func writeReferenceWorkbook(t *testing.T) string {
	t.Helper()
	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "users"))
	users := [][]any{
		{"Name", "PIN"},
		{"maria", "1234"},
	}
	for i, row := range users {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("users", cellRef, &row))
	}
	path := filepath.Join(t.TempDir(), "reference.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func pdfPageCount(t *testing.T, b64 string) int {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	return bytes.Count(data, []byte("/Type /Page")) - bytes.Count(data, []byte("/Type /Pages"))
}

func TestPrintScanFinishFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/print", map[string]any{
		"type":          "Sauce",
		"category":      "Classic",
		"recipe":        "Tomato",
		"brand_name":    "Olivia",
		"items_per_box": 12,
		"count":         3,
		"batch_number":  "41",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	printed := decode[printResponse](t, rec)
	require.NotEmpty(t, printed.BatchID)
	require.Len(t, printed.BoxIDs, 3)
	require.Equal(t, 3, pdfPageCount(t, printed.PDFBase64))

	seen := map[string]bool{}
	for _, id := range printed.BoxIDs {
		require.False(t, seen[id])
		seen[id] = true
	}

	code := printed.BoxIDs[0]
	rec = doJSON(t, s, http.MethodPost, "/api/scan", map[string]any{
		"code":      code,
		"mode":      "production",
		"user_name": "maria",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	scanned := decode[scanResponse](t, rec)
	require.Equal(t, "OK", scanned.Status)

	rec = doJSON(t, s, http.MethodPost, "/api/scan", map[string]any{
		"code": code,
		"mode": "production",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	scanned = decode[scanResponse](t, rec)
	require.Equal(t, "DUPLICATE", scanned.Status)

	rec = doJSON(t, s, http.MethodPost, "/api/scan", map[string]any{
		"code": printed.BoxIDs[1],
		"mode": "inventory",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	scanned = decode[scanResponse](t, rec)
	require.Equal(t, "OK", scanned.Status)
	require.Contains(t, scanned.ProductInfo, "Olivia")

	rec = doJSON(t, s, http.MethodPost, "/api/finish", map[string]any{
		"brand_name":   "Olivia",
		"count_done":   3,
		"batch_number": "41",
		"batch_id":     printed.BatchID,
		"user_name":    "maria",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	finished := decode[map[string]any](t, rec)
	require.Equal(t, true, finished["success"])
	require.NotEmpty(t, finished["pdf_base64"])
}

func TestScanValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/scan", map[string]any{
		"code": "whatever",
		"mode": "repair",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/scan", map[string]any{
		"mode": "production",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/scan", map[string]any{
		"code":       "whatever",
		"mode":       "production",
		"scanned_at": "yesterday",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanUnknownCodeResponse(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/scan", map[string]any{
		"code": "not-registered",
		"mode": "revision",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	scanned := decode[scanResponse](t, rec)
	require.Equal(t, "UNKNOWN_CODE", scanned.Status)
}

func TestPrintValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/print", map[string]any{
		"brand_name":    "Olivia",
		"items_per_box": 0,
		"count":         2,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/print", map[string]any{
		"brand_name":    "Olivia",
		"items_per_box": 12,
		"count":         -1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/auth/login", map[string]any{"pin": "1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	require.Equal(t, "maria", body["user_name"])

	rec = doJSON(t, s, http.MethodPost, "/api/auth/login", map[string]any{"pin": "9999"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReferenceEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string][]reference.User](t, rec)
	require.Len(t, body["data"], 1)
	require.Equal(t, "maria", body["data"][0].Name)

	rec = doJSON(t, s, http.MethodPost, "/api/reference/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFinishInventoryEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/finish_inventory", map[string]any{
		"stats": map[string]int{"Olivia": 3},
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndPing(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/api/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Engine().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, fmt.Sprintf("path %s", path))
	}
}
