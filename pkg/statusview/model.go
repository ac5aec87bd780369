// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package statusview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/baserock/morph/internal/gitcmd"
)

// DefaultRefreshInterval is how often `--watch` re-collects branch/clone
// health when no other interval is configured.
const DefaultRefreshInterval = 2 * time.Second

// FilterType represents the type of filter applied to the clone list.
type FilterType string

const (
	FilterNone  FilterType = ""
	FilterDirty FilterType = "dirty" // only clones with uncommitted changes
	FilterClean FilterType = "clean" // only clones with no uncommitted changes
)

// row is one renderable line: either a branch header or one of its clones.
type row struct {
	isHeader bool
	branch   Branch
	clone    Clone
}

// Model is the bubbletea state for the interactive `--watch` view.
type Model struct {
	branches []Branch // unfiltered
	rows     []row    // filtered, flattened
	cursor   int       // index into rows, always pointing at a clone row
	filter   FilterType
	viewport viewport.Model
	ready    bool

	// live-refresh collaborators; zero-valued when the model was built
	// from a static snapshot via NewModel.
	exec         *gitcmd.Executor
	workspaceDir string
	interval     time.Duration
	refreshErr   error
}

// NewModel builds a Model over the given branches, most recently collected
// by Collect. The resulting model renders a single static snapshot; use
// NewWatchModel for a model that keeps re-collecting on a timer.
func NewModel(branches []Branch) Model {
	m := Model{branches: branches, filter: FilterNone}
	m.rows = flatten(branches, FilterNone)
	m.cursor = firstCloneRow(m.rows, 0, 1)
	return m
}

// NewWatchModel builds a Model that re-collects branch/clone health from
// workspaceDir every interval, driven by tea.Tick, instead of rendering a
// single static snapshot.
func NewWatchModel(exec *gitcmd.Executor, workspaceDir string, branches []Branch, interval time.Duration) Model {
	m := NewModel(branches)
	m.exec = exec
	m.workspaceDir = workspaceDir
	m.interval = interval
	return m
}

type tickMsg time.Time

type refreshMsg struct {
	branches []Branch
	err      error
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refreshCmd() tea.Cmd {
	exec, workspaceDir := m.exec, m.workspaceDir
	return func() tea.Msg {
		branches, err := Collect(context.Background(), exec, workspaceDir)
		return refreshMsg{branches: branches, err: err}
	}
}

// liveRefresh reports whether this model was built by NewWatchModel.
func (m Model) liveRefresh() bool {
	return m.exec != nil
}

func flatten(branches []Branch, filter FilterType) []row {
	var rows []row
	for _, b := range branches {
		rows = append(rows, row{isHeader: true, branch: b})
		for _, c := range b.Clones {
			if !matchesFilter(c, filter) {
				continue
			}
			rows = append(rows, row{branch: b, clone: c})
		}
	}
	return rows
}

func matchesFilter(c Clone, filter FilterType) bool {
	switch filter {
	case FilterDirty:
		return c.Dirty
	case FilterClean:
		return !c.Dirty
	default:
		return true
	}
}

// firstCloneRow finds the nearest clone row to start at, starting from idx
// and stepping by dir (+1 or -1), falling back to the first clone row in the
// whole list if that direction runs off the end without finding one.
func firstCloneRow(rows []row, idx, dir int) int {
	for i := idx; i >= 0 && i < len(rows); i += dir {
		if !rows[i].isHeader {
			return i
		}
	}
	for i, r := range rows {
		if !r.isHeader {
			return i
		}
	}
	return 0
}

// Init satisfies tea.Model. For a live-refresh model it schedules the first
// tick; a static snapshot model has nothing to do at startup.
func (m Model) Init() tea.Cmd {
	if m.liveRefresh() {
		return tickCmd(m.interval)
	}
	return nil
}

// Update handles all messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, m.refreshCmd()

	case refreshMsg:
		m.refreshErr = msg.err
		if msg.err == nil {
			m.branches = msg.branches
			m.rows = flatten(m.branches, m.filter)
			if m.cursor >= len(m.rows) {
				m.cursor = firstCloneRow(m.rows, len(m.rows)-1, -1)
			}
			m.syncViewport()
		}
		return m, tickCmd(m.interval)

	case tea.WindowSizeMsg:
		headerLines, footerLines := 2, 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerLines-footerLines)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerLines - footerLines
		}
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			m.cursor = firstCloneRow(m.rows, m.cursor-1, -1)
			m.syncViewport()
			return m, nil

		case "down", "j":
			m.cursor = firstCloneRow(m.rows, m.cursor+1, 1)
			m.syncViewport()
			return m, nil

		case "home", "g":
			m.cursor = firstCloneRow(m.rows, 0, 1)
			m.syncViewport()
			return m, nil

		case "end", "G":
			m.cursor = firstCloneRow(m.rows, len(m.rows)-1, -1)
			m.syncViewport()
			return m, nil

		case "1":
			m.setFilter(FilterDirty)
			return m, nil

		case "2":
			m.setFilter(FilterClean)
			return m, nil

		case "0":
			m.setFilter(FilterNone)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) setFilter(filter FilterType) {
	if m.filter == filter {
		filter = FilterNone
	}
	m.filter = filter
	m.rows = flatten(m.branches, filter)
	m.cursor = firstCloneRow(m.rows, 0, 1)
	m.syncViewport()
}

// syncViewport rewrites the viewport's content from m.rows and scrolls it so
// the cursor row stays visible.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}

	var b strings.Builder
	cursorLine := 0
	for i, r := range m.rows {
		if i == m.cursor {
			cursorLine = i
		}
		if r.isHeader {
			b.WriteString(renderBranchHeader(r.branch))
		} else {
			b.WriteString(renderCloneLine(r.clone, i == m.cursor))
		}
		if i < len(m.rows)-1 {
			b.WriteString("\n")
		}
	}
	if len(m.rows) == 0 {
		b.WriteString(SubtleStyle.Render("  no system branches found"))
	}
	m.viewport.SetContent(b.String())

	if cursorLine < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorLine)
	} else if cursorLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorLine - m.viewport.Height + 1)
	}
}

// View renders the current UI state.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	if m.refreshErr != nil {
		b.WriteString(DirtyStyle.Render(fmt.Sprintf("  refresh failed: %v", m.refreshErr)))
		b.WriteString("\n")
	}
	b.WriteString(renderFooter())
	return b.String()
}

func renderHeader(m Model) string {
	cloneCount := 0
	for _, r := range m.rows {
		if !r.isHeader {
			cloneCount++
		}
	}
	title := fmt.Sprintf(" morph workspace status (%d clones)", cloneCount)
	if m.filter != FilterNone {
		title += fmt.Sprintf(" [filter: %s]", m.filter)
	}
	title += " "
	return HeaderStyle.Render(title)
}

func renderBranchHeader(b Branch) string {
	return BranchStyle.Render(fmt.Sprintf("%s  (root: %s, uuid: %s)", b.Name, b.Root, shortUUID(b.UUID)))
}

func shortUUID(uuid string) string {
	if len(uuid) > 8 {
		return uuid[:8]
	}
	return uuid
}

func renderCloneLine(c Clone, isCursor bool) string {
	name := c.RepoName
	if len(name) > 30 {
		name = "..." + name[len(name)-27:]
	}
	ref := c.Ref
	if len(ref) > 20 {
		ref = ref[:17] + "..."
	}

	status := "clean"
	if c.Dirty {
		status = "dirty"
	}

	line := fmt.Sprintf("    %-30s %-20s %s", name, ref, status)

	switch {
	case isCursor:
		return CursorStyle.Render(line)
	case c.Dirty:
		return DirtyStyle.Render(line)
	default:
		return line
	}
}

func renderFooter() string {
	actions := []string{
		"↑↓/j/k: Navigate",
		"1: Dirty",
		"2: Clean",
		"0: All",
		"q: Quit",
	}
	return SubtleStyle.Render("  " + strings.Join(actions, "  │  "))
}
