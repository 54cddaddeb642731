package arcode

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

// model is the interactive code-store browser. It is the same shape as
// hejops-gone/cpu/debugger.go's model (cpu-stepping 6502 state), repurposed
// to single-step AR ticks and inspect the active list and self-log instead.
type model struct {
	store  *Store
	mem    MemoryAdapter
	codes  []*ARCode // all known codes, not just active ones
	cursor int
	error  error
}

// Init is the first function called. There is no initial command.
func (m model) Init() tea.Cmd { return nil }

// Update handles key messages: navigate the code list, toggle a code's
// Active flag, step one tick, or quit.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "j", "down":
			if m.cursor < len(m.codes)-1 {
				m.cursor++
			}

		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case " ", "enter":
			if len(m.codes) > 0 {
				code := m.codes[m.cursor]
				code.Active = !code.Active
				m.store.ApplyCodes(m.codes)
			}

		case "t":
			m.store.RunAllActive(m.mem)
		}
	}
	return m, nil
}

// renderList renders every known code, one per line, highlighting both the
// cursor position and active/inactive status.
func (m model) renderList() string {
	lines := make([]string, 0, len(m.codes))
	for i, c := range m.codes {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		status := "off"
		if c.Active {
			status = "on "
		}
		lines = append(lines, fmt.Sprintf("%s[%s] %s (%d ops)", marker, status, c.Name, len(c.Ops)))
	}
	if len(lines) == 0 {
		lines = append(lines, "(no codes loaded)")
	}
	return strings.Join(lines, "\n")
}

func (m model) detail() string {
	if len(m.codes) == 0 {
		return ""
	}
	return spew.Sdump(m.codes[m.cursor])
}

func (m model) logPanel() string {
	lines := m.store.SelfLog()
	if len(lines) == 0 {
		return "(self-log empty)"
	}
	return strings.Join(lines, "\n")
}

// View renders the browser as a string: code list and detail side by side,
// self-log beneath.
func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.renderList(),
			"  ",
			m.detail(),
		),
		"",
		m.logPanel(),
	)
}

// Debug launches an interactive TUI over store, letting the user browse
// codes, toggle which are active, and step ticks against mem.
func Debug(store *Store, mem MemoryAdapter, codes []*ARCode) error {
	m, err := tea.NewProgram(model{store: store, mem: mem, codes: codes}).Run()
	if err != nil {
		return err
	}
	x := m.(model)
	return x.error
}
