package main

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/search"
	"github.com/lox/booking-search/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReloader struct {
	service  *search.Service
	bookings []types.Booking
}

func (s *stubReloader) Reload(ctx context.Context) (search.RebuildStats, error) {
	return s.service.Rebuild(ctx, s.bookings)
}

func newTestModel(t *testing.T) model {
	t.Helper()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	logger := log.New(io.Discard)
	svc := search.NewService(logger)
	r := &stubReloader{service: svc, bookings: []types.Booking{
		types.NewBooking(1, day, decimal.RequireFromString("-45.80"), "ACC-1", "Migros Zürich"),
		types.NewBooking(2, day, decimal.RequireFromString("-12.90"), "ACC-2", "Coop Basel"),
	}}
	return initialModel(svc, r, logger)
}

// run feeds msg through Update and then executes any command it returns,
// following the chain of messages until none is left
func run(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(model)
		if cmd == nil {
			break
		}
		msg = cmd()
	}
	return m
}

func TestModelLoadsIndexOnInit(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, m.View(), "Building booking index")

	m = run(t, m, m.Init()())
	require.True(t, m.ready)
	assert.Equal(t, 2, m.total)
	assert.Contains(t, m.View(), "Indexed 2 bookings")
	assert.Contains(t, m.View(), "Migros Zürich")
}

func TestModelSearch(t *testing.T) {
	m := newTestModel(t)
	m = run(t, m, m.Init()())

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	require.True(t, m.searchActive)
	m.searchInput.SetValue("migors")
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "migors", m.searchQuery)
	assert.Equal(t, 0, m.total)

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.Equal(t, query.ModeFuzzy, m.mode)
	assert.Equal(t, 1, m.total)
	assert.Contains(t, m.View(), "mode: fuzzy")

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "", m.searchQuery)
	assert.Equal(t, 2, m.total)
}

func TestModelSearchError(t *testing.T) {
	m := newTestModel(t)
	m = run(t, m, m.Init()())

	m.searchQuery = "*gros"
	m = run(t, m, m.searchCmd()())
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "An error occurred")
}

func TestModelCursor(t *testing.T) {
	m := newTestModel(t)
	m = run(t, m, m.Init()())

	m = run(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 0, m.cursor)
}

func TestNextMode(t *testing.T) {
	assert.Equal(t, query.ModeFuzzy, nextMode(query.ModeExact))
	assert.Equal(t, query.ModeWildcard, nextMode(query.ModeFuzzy))
	assert.Equal(t, query.ModeExact, nextMode(query.ModeWildcard))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Zürich", truncate("Zürich", 10))
	assert.Equal(t, "Löwen...", truncate("Löwenstrasse", 8))
}
