package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/runtime"
	"github.com/kryonlabs/kryon-sub009/state"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1)

	elemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	propStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7"))

	dirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type viewState int

const (
	viewTree viewState = iota
	viewDetail
	viewStateLeaves
	viewEdit
)

type treeRow struct {
	handle element.Handle
	depth  int
}

type inspectorModel struct {
	err      error
	rt       *runtime.Runtime
	filename string
	snapshot string
	rows     []treeRow
	selected int
	view     viewState
	input    textinput.Model
	status   string
}

type loadedMsg struct {
	err error
	rt  *runtime.Runtime
}

func newInspectorModel(filename, snapshot string) *inspectorModel {
	ti := textinput.New()
	ti.Placeholder = "path=value"
	ti.Prompt = "set "
	ti.Width = 40
	return &inspectorModel{
		filename: filename,
		snapshot: snapshot,
		view:     viewTree,
		input:    ti,
	}
}

func (m *inspectorModel) Init() tea.Cmd {
	return func() tea.Msg {
		cfg := runtime.DefaultConfig()
		cfg.SnapshotFile = m.snapshot
		rt, err := runtime.New(cfg)
		if err != nil {
			return loadedMsg{err: err}
		}
		if err := rt.LoadFile(m.filename); err != nil {
			rt.Close()
			return loadedMsg{err: err}
		}
		if err := rt.Start(); err != nil {
			rt.Close()
			return loadedMsg{err: err}
		}
		if _, err := rt.Update(0); err != nil {
			rt.Close()
			return loadedMsg{err: err}
		}
		return loadedMsg{rt: rt}
	}
}

func (m *inspectorModel) rebuildRows() {
	m.rows = m.rows[:0]
	tree := m.rt.Tree()
	var walk func(h element.Handle, depth int)
	walk = func(h element.Handle, depth int) {
		m.rows = append(m.rows, treeRow{handle: h, depth: depth})
		for _, c := range tree.Children(h) {
			walk(c, depth+1)
		}
	}
	for _, r := range tree.Roots() {
		walk(r, 0)
	}
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.rebuildRows()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewEdit {
			return m.updateEdit(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.rt != nil {
				m.rt.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.view == viewTree && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.view == viewTree && m.selected < len(m.rows)-1 {
				m.selected++
			}

		case "enter":
			if m.view == viewTree && len(m.rows) > 0 {
				m.view = viewDetail
			}

		case "s":
			if m.rt != nil {
				m.view = viewStateLeaves
			}

		case "e":
			if m.rt != nil {
				m.view = viewEdit
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			}

		case "f":
			m.stepFrame()

		case "esc":
			m.view = viewTree
			m.status = ""
		}
	}
	return m, nil
}

func (m *inspectorModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.applyEdit()
		m.view = viewTree
		m.input.Blur()
		return m, nil
	case "esc":
		m.view = viewTree
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *inspectorModel) applyEdit() {
	parts := strings.SplitN(m.input.Value(), "=", 2)
	if len(parts) != 2 {
		m.status = errorStyle.Render("want path=value")
		return
	}
	path := strings.TrimSpace(parts[0])
	if err := m.rt.State().EnsurePath(path); err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}
	if err := m.rt.State().Set(path, parseStateValue(strings.TrimSpace(parts[1]))); err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}
	m.stepFrame()
	m.status = "set " + path
}

func (m *inspectorModel) stepFrame() {
	if m.rt == nil {
		return
	}
	if _, err := m.rt.Update(16 * time.Millisecond); err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}
	m.rebuildRows()
}

func (m *inspectorModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.rt == nil {
		return "Loading bundle..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Kryon Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.view {
	case viewTree:
		m.viewTreeRows(&b)
	case viewDetail:
		m.viewElementDetail(&b)
	case viewStateLeaves:
		m.viewStateList(&b)
	case viewEdit:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}
	return b.String()
}

func (m *inspectorModel) viewTreeRows(b *strings.Builder) {
	tree := m.rt.Tree()
	for i, row := range m.rows {
		line := strings.Repeat("  ", row.depth) + m.formatRow(row.handle)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		if tree.NeedsRender(row.handle) {
			b.WriteString(" " + dirtyStyle.Render("*"))
		}
		b.WriteString("\n")
	}
	stats := m.rt.RuntimeStats()
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"frame %d • %d elements • %d bindings • %d pending events",
		stats.Frames, stats.Elements, stats.Bindings, stats.PendingEvents)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • enter detail • s state • e edit • f frame • q quit"))
}

func (m *inspectorModel) formatRow(h element.Handle) string {
	tree := m.rt.Tree()
	label := tree.Type(h).String()
	if name := tree.Name(h); name != "" {
		label += " " + name
	}
	return elemStyle.Render(label)
}

func (m *inspectorModel) viewElementDetail(b *strings.Builder) {
	h := m.rows[m.selected].handle
	tree := m.rt.Tree()

	b.WriteString(m.formatRow(h))
	b.WriteString("\n\n")

	box := tree.Box(h)
	fmt.Fprintf(b, "  state: %s\n", tree.State(h))
	fmt.Fprintf(b, "  box: (%g, %g) %g x %g\n", box.X, box.Y, box.W, box.H)
	fmt.Fprintf(b, "  visible: %t  enabled: %t\n\n", tree.Visible(h), tree.Enabled(h))

	for _, name := range []string{
		"id", "text", "value", "width", "height", "gap", "font_size",
		"background", "color", "src", "on_click", "on_change",
	} {
		if v, ok := tree.GetProperty(h, name); ok {
			fmt.Fprintf(b, "  %s = %s", propStyle.Render(name), v)
			if path, bound := tree.Binding(h, name); bound {
				fmt.Fprintf(b, " %s", dirtyStyle.Render("<- "+path))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("esc back • q quit"))
}

func (m *inspectorModel) viewStateList(b *strings.Builder) {
	b.WriteString("State leaves:\n\n")

	type leaf struct{ path, value string }
	var leaves []leaf
	m.rt.State().EachLeaf(func(path string, v state.Value) {
		leaves = append(leaves, leaf{path, v.String()})
	})
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].path < leaves[j].path })

	if len(leaves) == 0 {
		b.WriteString(helpStyle.Render("  (empty)\n"))
	}
	for _, l := range leaves {
		fmt.Fprintf(b, "  %s = %s\n", propStyle.Render(l.path), l.value)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("e edit • esc back • q quit"))
}

func runInteractive(filename, snapshot string) error {
	p := tea.NewProgram(newInspectorModel(filename, snapshot), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
