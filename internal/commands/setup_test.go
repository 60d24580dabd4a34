package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	logger, err := CommonConfig{LogLevel: "debug"}.SetupLogger()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())

	_, err = CommonConfig{LogLevel: "loud"}.SetupLogger()
	assert.Error(t, err)
}

func TestSetupSource(t *testing.T) {
	logger := log.New(io.Discard)
	common := CommonConfig{DataDir: t.TempDir(), Timezone: "UTC"}

	t.Run("demo", func(t *testing.T) {
		src, cleanup, err := SetupSource(common, SourceConfig{Source: "demo"}, logger)
		require.NoError(t, err)
		defer cleanup()
		assert.Equal(t, "demo", src.Name())
	})

	t.Run("qif", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "amex.qif")
		require.NoError(t, os.WriteFile(path, []byte("D03/15/2024\nT-12.00\nPCoffee\n^\n"), 0644))

		src, cleanup, err := SetupSource(common, SourceConfig{Source: "qif", QIFFile: path, Bank: "amex", Account: "AMEX"}, logger)
		require.NoError(t, err)
		defer cleanup()

		bookings, err := src.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, bookings, 1)
		assert.Equal(t, "AMEX", bookings[0].MoneyAccountID)
		assert.Equal(t, 15, bookings[0].TransactionDate.Day())
	})

	t.Run("qif_without_file", func(t *testing.T) {
		_, _, err := SetupSource(common, SourceConfig{Source: "qif", Bank: "amex"}, logger)
		assert.Error(t, err)
	})

	t.Run("unknown_bank", func(t *testing.T) {
		_, _, err := SetupSource(common, SourceConfig{Source: "qif", QIFFile: "x.qif", Bank: "monzo"}, logger)
		assert.Error(t, err)
	})

	t.Run("sqlite", func(t *testing.T) {
		src, cleanup, err := SetupSource(common, SourceConfig{Source: "sqlite"}, logger)
		require.NoError(t, err)
		defer cleanup()

		bookings, err := src.Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, bookings)
	})
}

func TestIndexConfig(t *testing.T) {
	assert.NoError(t, IndexConfig{FuzzyDistance: 2}.Validate())
	assert.Error(t, IndexConfig{FuzzyDistance: 3}.Validate())
	assert.Error(t, IndexConfig{FuzzyDistance: -1}.Validate())

	assert.Empty(t, IndexConfig{}.BuildOptions())
	assert.Len(t, IndexConfig{FailFast: true, Concurrency: 4}.BuildOptions(), 2)

	svc := IndexConfig{FuzzyDistance: 2}.SetupService(log.New(io.Discard), nil)
	assert.Equal(t, 2, svc.FuzzyDistance())
}
