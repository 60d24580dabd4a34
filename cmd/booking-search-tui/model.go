package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/search"
	"github.com/lox/booking-search/internal/types"
)

const (
	itemsPerPage = 15
	resultLimit  = 500
)

// modes is the order the mode key cycles through
var modes = []query.Mode{query.ModeExact, query.ModeFuzzy, query.ModeWildcard}

type reloader interface {
	Reload(ctx context.Context) (search.RebuildStats, error)
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Search   key.Binding
	Mode     key.Binding
	Rebuild  key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn/ctrl+f", "page down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup/ctrl+b", "page up")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Mode:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "cycle mode")),
		Rebuild:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rebuild")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Search, k.Mode, k.Rebuild, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type model struct {
	results  []types.SearchResult
	total    int
	cursor   int
	width    int
	height   int
	quitting bool
	err      error
	ready    bool
	status   string
	help     help.Model
	keys     keyMap

	// Search state
	searchActive bool
	searchQuery  string
	searchInput  textinput.Model
	mode         query.Mode

	service  *search.Service
	reloader reloader
	logger   *log.Logger
}

type searchDataMsg struct {
	response types.SearchResponse
}

type rebuiltMsg struct {
	stats search.RebuildStats
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

func initialModel(service *search.Service, r reloader, logger *log.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "Search... (term* prefix, te?m wildcard, term~1 fuzzy)"
	ti.CharLimit = 156
	ti.Width = 40
	return model{
		help:        help.New(),
		keys:        newKeyMap(),
		width:       80,
		height:      24,
		searchInput: ti,
		mode:        query.ModeExact,
		service:     service,
		reloader:    r,
		logger:      logger,
	}
}

func (m model) Init() tea.Cmd {
	return m.rebuildCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.searchInput.Width = m.width - 2
	case tea.KeyMsg:
		if m.searchActive {
			switch msg.String() {
			case "enter":
				m.searchQuery = strings.TrimSpace(m.searchInput.Value())
				m.searchActive = false
				return m, m.searchCmd()
			case "esc":
				m.searchActive = false
				m.searchQuery = ""
				return m, m.searchCmd()
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Search):
			m.searchActive = true
			m.err = nil
			m.searchInput.SetValue(m.searchQuery)
			m.searchInput.Focus()
			return m, nil
		case key.Matches(msg, m.keys.Mode):
			m.mode = nextMode(m.mode)
			return m, m.searchCmd()
		case key.Matches(msg, m.keys.Rebuild):
			m.status = "Rebuilding index..."
			return m, m.rebuildCmd()
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.PageDown):
			if len(m.results) == 0 {
				break
			}
			m.cursor = min(m.cursor+itemsPerPage, len(m.results)-1)
		case key.Matches(msg, m.keys.PageUp):
			m.cursor = max(m.cursor-itemsPerPage, 0)
		}
	case rebuiltMsg:
		m.status = fmt.Sprintf("Indexed %d bookings (%d rejected) in %s", msg.stats.Indexed, msg.stats.Rejected, msg.stats.Duration.Round(time.Millisecond))
		return m, m.searchCmd()
	case searchDataMsg:
		m.ready = true
		m.err = nil
		m.results = msg.response.Results
		m.total = msg.response.Total
		m.cursor = 0
	case errorMsg:
		m.ready = true
		m.err = msg.err
	}
	return m, nil
}

func nextMode(mode query.Mode) query.Mode {
	for i, m := range modes {
		if m == mode {
			return modes[(i+1)%len(modes)]
		}
	}
	return query.ModeExact
}

func (m model) searchCmd() tea.Cmd {
	text, mode := m.searchQuery, m.mode
	return func() tea.Msg {
		req := search.NewQueryRequest(text, search.WithMode(mode), search.WithLimit(resultLimit))
		resp, err := m.service.Search(context.Background(), req)
		if err != nil {
			return errorMsg{fmt.Errorf("search failed: %w", err)}
		}
		return searchDataMsg{response: resp}
	}
}

func (m model) rebuildCmd() tea.Cmd {
	return func() tea.Msg {
		if m.reloader == nil {
			return errorMsg{errors.New("no booking source configured")}
		}
		stats, err := m.reloader.Reload(context.Background())
		if err != nil {
			return errorMsg{fmt.Errorf("failed to rebuild index: %w", err)}
		}
		return rebuiltMsg{stats: stats}
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return fmt.Sprintf("\nAn error occurred: %v\n\nPress / to search again or q to quit.", m.err)
	}
	if !m.ready {
		return "\nBuilding booking index...\n\nPress q to quit."
	}

	header := fmt.Sprintf("%d of %d bookings (mode: %s)", len(m.results), m.total, m.mode)
	if m.searchQuery != "" {
		header = fmt.Sprintf("Search: %q · %s", m.searchQuery, header)
	}

	// Determine the window of results to display
	start := max(m.cursor-itemsPerPage/2, 0)
	end := min(start+itemsPerPage, len(m.results))
	if end-start < itemsPerPage {
		start = max(end-itemsPerPage, 0)
	}

	var b strings.Builder
	if len(m.results) == 0 {
		b.WriteString("No bookings found.")
	} else {
		for i := start; i < end; i++ {
			cursor := "  "
			if i == m.cursor {
				cursor = "> "
			}
			r := m.results[i]
			text := truncate(r.BookingText, max(m.width-45, 10))
			b.WriteString(fmt.Sprintf("%s%s | %10s | %-6s | %s\n", cursor, r.TransactionDate, r.Amount.StringFixed(2), r.MoneyAccountID, text))
		}
	}

	lines := []string{header}
	if m.status != "" {
		lines = append(lines, m.status)
	}
	lines = append(lines, "", b.String())
	if m.searchActive {
		lines = append(lines, "/"+m.searchInput.View())
	}
	lines = append(lines, m.help.View(m.keys))
	output := strings.Join(lines, "\n")

	lineCount := strings.Count(output, "\n") + 1
	if lineCount < m.height {
		output += strings.Repeat("\n", m.height-lineCount)
	}

	return output
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
