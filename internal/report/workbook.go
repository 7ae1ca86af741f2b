package report

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const daySheetLayout = "02.01.2006"

var workbookHeader = []any{
	"Time", "Brand", "Type", "Category", "Recipe", "Count", "Batch No", "Batch ID",
}

// Entry is one finished batch in the shift report.
type Entry struct {
	Brand       string
	Type        string
	Category    string
	Recipe      string
	Count       int
	BatchNumber string
	BatchID     string
	UserName    string
}

// Workbook appends finished batches to a local xlsx file, one sheet per
// calendar day. The file is created on first use.
type Workbook struct {
	log  *zap.Logger
	path string

	mu sync.Mutex
}

func NewWorkbook(log *zap.Logger, path string) *Workbook {
	return &Workbook{
		log:  log.Named("report.workbook"),
		path: path,
	}
}

func (w *Workbook) Append(at time.Time, entry Entry) error {
	if w.path == "" {
		return errors.New("report workbook path is not configured")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	sheet := at.Format(daySheetLayout)

	wb, created, err := w.open()
	if err != nil {
		return err
	}
	defer wb.Close()

	if created {
		if err := wb.SetSheetName(wb.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("name sheet %s: %w", sheet, err)
		}
		if err := wb.SetSheetRow(sheet, "A1", &workbookHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	} else if idx, err := wb.GetSheetIndex(sheet); err != nil {
		return fmt.Errorf("find sheet %s: %w", sheet, err)
	} else if idx < 0 {
		if _, err := wb.NewSheet(sheet); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet, err)
		}
		if err := wb.SetSheetRow(sheet, "A1", &workbookHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	cellRef, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	row := []any{
		at.Format("15:04:05"),
		entry.Brand,
		entry.Type,
		entry.Category,
		entry.Recipe,
		entry.Count,
		entry.BatchNumber,
		entry.BatchID,
	}
	if err := wb.SetSheetRow(sheet, cellRef, &row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	if err := wb.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

func (w *Workbook) open() (*excelize.File, bool, error) {
	if _, err := os.Stat(w.path); err != nil {
		if os.IsNotExist(err) {
			return excelize.NewFile(), true, nil
		}
		return nil, false, fmt.Errorf("stat workbook %s: %w", w.path, err)
	}
	wb, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, false, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	return wb, false, nil
}
