package reference

import (
	"path/filepath"
	"testing"

	"github.com/linecontrol/boxline/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	wb := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, wb.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := wb.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cellRef, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, wb.SetSheetRow(name, cellRef, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "reference.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

func newStore(t *testing.T, path string) *Store {
	t.Helper()
	return NewStore(zaptest.NewLogger(t), config.Config{ReferenceWorkbook: path})
}

func TestReloadParsesAllSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"users": {
			{"Name", "PIN", "Active"},
			{"maria", "1234", "true"},
			{"oleg", "", "yes"},
			{"gone", "9999", "false"},
			{"", "0000", "true"},
		},
		"machines": {
			{"Machine_ID", "Name", "Types", "Active"},
			{"line-2", "Filler 2", "Sauce", "1"},
			{"", "Filler 3", "", ""},
		},
		"products": {
			{"Brand", "Type", "Category", "Recipe", "items_per_box"},
			{"Olivia", "Sauce", "Classic", "Tomato", "12"},
			{"", "Sauce", "", "", "6"},
		},
	})

	store := newStore(t, path)
	require.NoError(t, store.Reload())
	snap := store.Snapshot()

	require.Len(t, snap.Users, 2)
	require.Equal(t, "maria", snap.Users[0].Name)
	require.Equal(t, "1234", snap.Users[0].PIN)
	require.Equal(t, "0000", snap.Users[1].PIN)

	require.Len(t, snap.Machines, 2)
	require.Equal(t, "line-2", snap.Machines[0].ID)
	require.Equal(t, "mach_1", snap.Machines[1].ID)

	require.Len(t, snap.Products, 1)
	require.Equal(t, "Olivia", snap.Products[0].Brand)
	require.Equal(t, 12, snap.Products[0].ItemsPerBox)
}

func TestReloadSubstringHeaderMatch(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"products": {
			{"Brand name", "Product Type", "qty per box"},
			{"Olivia", "Sauce", "6"},
		},
	})

	store := newStore(t, path)
	require.NoError(t, store.Reload())
	snap := store.Snapshot()

	require.Len(t, snap.Products, 1)
	require.Equal(t, "Sauce", snap.Products[0].Type)
	require.Equal(t, 6, snap.Products[0].ItemsPerBox)
}

func TestReloadMissingRequiredColumn(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"users": {
			{"PIN", "Active"},
			{"1234", "true"},
		},
	})

	store := newStore(t, path)
	require.Error(t, store.Reload())
	require.Empty(t, store.Snapshot().Users)
}

func TestReloadKeepsSnapshotOnFailure(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"users": {
			{"Name"},
			{"maria"},
		},
	})

	store := newStore(t, path)
	require.NoError(t, store.Reload())

	store.path = filepath.Join(t.TempDir(), "missing.xlsx")
	require.Error(t, store.Reload())
	require.Len(t, store.Snapshot().Users, 1)
}

func TestFindUserByPIN(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"users": {
			{"Name", "PIN"},
			{"maria", "1234"},
		},
	})

	store := newStore(t, path)
	require.NoError(t, store.Reload())

	user, ok := store.FindUserByPIN("1234")
	require.True(t, ok)
	require.Equal(t, "maria", user.Name)

	_, ok = store.FindUserByPIN("0000")
	require.False(t, ok)

	_, ok = store.FindUserByPIN("")
	require.False(t, ok)
}
