package reference

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/linecontrol/boxline/internal/config"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// User is an operator allowed to log in on a line terminal.
type User struct {
	Name string `json:"name"`
	PIN  string `json:"-"`
}

// Machine is a packaging machine a box can be produced on.
type Machine struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TypeAllowed     string `json:"type_allowed,omitempty"`
	CategoryAllowed string `json:"category_allowed,omitempty"`
}

// Product is one printable product definition.
type Product struct {
	Brand       string `json:"brand_name"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Recipe      string `json:"recipe"`
	ItemsPerBox int    `json:"items_per_box"`
	Aliases     string `json:"aliases,omitempty"`
}

// Snapshot is one consistent view of the workbook.
type Snapshot struct {
	Users    []User
	Machines []Machine
	Products []Product
}

// Sheet and header names vary between workbook revisions maintained by
// different people, so each is matched against a candidate list.
var (
	userSheets    = []string{"users", "brands - users"}
	machineSheets = []string{"machines", "brands - machines", "machine_settings"}
	productSheets = []string{"products", "brands", "brands - brands"}
)

// Store serves reference rows from an xlsx workbook. The workbook is read
// fully on Reload and snapshots are handed out without copying.
type Store struct {
	log  *zap.Logger
	path string

	mu   sync.RWMutex
	snap Snapshot
}

func NewStore(log *zap.Logger, cfg config.Config) *Store {
	return &Store{
		log:  log.Named("reference"),
		path: cfg.ReferenceWorkbook,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// FindUserByPIN matches a login attempt against the loaded user list.
func (s *Store) FindUserByPIN(pin string) (User, bool) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return User{}, false
	}
	for _, u := range s.Snapshot().Users {
		if u.PIN == pin {
			return u, true
		}
	}
	return User{}, false
}

// Reload re-reads the workbook and swaps the snapshot atomically. A failed
// reload keeps the previous snapshot.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("reference workbook path is not configured")
	}
	wb, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer wb.Close()

	snap := Snapshot{}
	if snap.Users, err = loadUsers(wb); err != nil {
		return err
	}
	if snap.Machines, err = loadMachines(wb); err != nil {
		return err
	}
	if snap.Products, err = loadProducts(wb); err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.log.Info("reference workbook loaded",
		zap.Int("users", len(snap.Users)),
		zap.Int("machines", len(snap.Machines)),
		zap.Int("products", len(snap.Products)),
	)
	return nil
}

func loadUsers(wb *excelize.File) ([]User, error) {
	rows, sheet, err := sheetRows(wb, userSheets)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	header := newHeader(rows[0])
	name, err := header.require(sheet, "name")
	if err != nil {
		return nil, err
	}
	pin := header.find("pin")
	active := header.find("active")

	users := make([]User, 0, len(rows)-1)
	for _, row := range rows[1:] {
		n := strings.TrimSpace(cell(row, name))
		if n == "" || !isActive(cell(row, active)) {
			continue
		}
		u := User{Name: n, PIN: "0000"}
		if v := strings.TrimSpace(cell(row, pin)); v != "" {
			u.PIN = v
		}
		users = append(users, u)
	}
	return users, nil
}

func loadMachines(wb *excelize.File) ([]Machine, error) {
	rows, sheet, err := sheetRows(wb, machineSheets)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	header := newHeader(rows[0])
	name, err := header.require(sheet, "name")
	if err != nil {
		return nil, err
	}
	id := header.find("machine_id", "id")
	types := header.find("types", "type_allowed", "type")
	categories := header.find("categories", "category_allowed", "category")
	active := header.find("active")

	machines := make([]Machine, 0, len(rows)-1)
	for i, row := range rows[1:] {
		n := strings.TrimSpace(cell(row, name))
		if n == "" || !isActive(cell(row, active)) {
			continue
		}
		m := Machine{
			ID:              fmt.Sprintf("mach_%d", i),
			Name:            n,
			TypeAllowed:     strings.TrimSpace(cell(row, types)),
			CategoryAllowed: strings.TrimSpace(cell(row, categories)),
		}
		if v := strings.TrimSpace(cell(row, id)); v != "" {
			m.ID = v
		}
		machines = append(machines, m)
	}
	return machines, nil
}

func loadProducts(wb *excelize.File) ([]Product, error) {
	rows, sheet, err := sheetRows(wb, productSheets)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	header := newHeader(rows[0])
	brand, err := header.require(sheet, "brand")
	if err != nil {
		return nil, err
	}
	typ := header.find("type")
	category := header.find("category")
	recipe := header.find("recipe")
	qty := header.find("items_per_box", "items", "qty")
	aliases := header.find("aliases")

	products := make([]Product, 0, len(rows)-1)
	for _, row := range rows[1:] {
		b := strings.TrimSpace(cell(row, brand))
		if b == "" {
			continue
		}
		p := Product{
			Brand:    b,
			Type:     strings.TrimSpace(cell(row, typ)),
			Category: strings.TrimSpace(cell(row, category)),
			Recipe:   strings.TrimSpace(cell(row, recipe)),
			Aliases:  strings.TrimSpace(cell(row, aliases)),
		}
		if v, err := strconv.Atoi(strings.TrimSpace(cell(row, qty))); err == nil {
			p.ItemsPerBox = v
		}
		products = append(products, p)
	}
	return products, nil
}

// sheetRows returns the rows of the first candidate sheet that exists and
// is non-empty.
func sheetRows(wb *excelize.File, candidates []string) ([][]string, string, error) {
	byLower := make(map[string]string)
	for _, name := range wb.GetSheetList() {
		byLower[strings.ToLower(strings.TrimSpace(name))] = name
	}
	for _, candidate := range candidates {
		name, ok := byLower[candidate]
		if !ok {
			continue
		}
		rows, err := wb.GetRows(name)
		if err != nil {
			return nil, "", fmt.Errorf("read sheet %s: %w", name, err)
		}
		if len(rows) > 0 {
			return rows, name, nil
		}
	}
	return nil, "", nil
}

// header resolves column titles once per load, first by exact match, then
// by substring.
type header struct {
	cols []string
}

func newHeader(row []string) header {
	cols := make([]string, len(row))
	for i, c := range row {
		cols[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return header{cols: cols}
}

func (h header) find(candidates ...string) int {
	for _, cand := range candidates {
		for i, col := range h.cols {
			if col == cand {
				return i
			}
		}
	}
	for _, cand := range candidates {
		for i, col := range h.cols {
			if strings.Contains(col, cand) {
				return i
			}
		}
	}
	return -1
}

func (h header) require(sheet string, candidates ...string) (int, error) {
	idx := h.find(candidates...)
	if idx < 0 {
		return -1, fmt.Errorf("sheet %s: missing required column %q", sheet, candidates[0])
	}
	return idx, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// isActive treats a missing column and blank cells as active so small
// workbooks do not need the column at all.
func isActive(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return true
	}
	switch v {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}
