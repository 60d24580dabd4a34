package qif

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `!Type:Bank
D15/03/2024
T-45.80
PMigros Zürich
LGroceries
MWeekly shop
^
D14/03/2024
U-12.90
T-12.90
PCoop Basel
^
PNo date
T1.00
^
D13/03/2024
T2,500.00
PSalary
`

func TestParseReader(t *testing.T) {
	txns, err := ParseReader(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, Transaction{
		Date:     "15/03/2024",
		Amount:   "-45.80",
		Payee:    "Migros Zürich",
		Category: "Groceries",
		Memo:     "Weekly shop",
	}, txns[0])
	assert.Equal(t, "-12.90", txns[1].Amount)
	assert.Equal(t, "Coop Basel", txns[1].Payee)
	assert.Equal(t, "Salary", txns[2].Payee)
	assert.Equal(t, "2,500.00", txns[2].Amount)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.qif")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	txns, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, txns, 3)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.qif"))
	assert.Error(t, err)
}
