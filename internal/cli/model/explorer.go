// Package model provides Bubble Tea models for the grove CLI.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/grove/internal/cli/styles"
	"github.com/bnema/grove/internal/logging"
	"github.com/bnema/grove/pkg/explorer"
)

// Controller is the part of explorer.Controller the model drives.
type Controller interface {
	Root() explorer.Node
	Selected() explorer.Node
	Expand(n explorer.Node) error
	Collapse(n explorer.Node) error
	Refresh(n explorer.Node, incremental bool) error
	LoadMore(n explorer.Node) error
	Activate(n explorer.Node) error
	Invoke(n explorer.Node, a explorer.Action) error
	Select(n explorer.Node) error
	SelectByPredicate(match func(explorer.Node) bool) error
}

// Bridge is the explorer.Widget the controller is bound to. It folds every
// notification into a single pending signal the model picks up.
type Bridge struct {
	changes chan struct{}
}

// NewBridge creates a bridge with no pending change.
func NewBridge() *Bridge {
	return &Bridge{changes: make(chan struct{}, 1)}
}

func (b *Bridge) ChildrenReplaced(explorer.Node)    { b.signal() }
func (b *Bridge) PresentationChanged(explorer.Node) { b.signal() }

func (b *Bridge) signal() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

var _ explorer.Widget = (*Bridge)(nil)

// TreeChangedMsg is delivered when the controller reported a change.
type TreeChangedMsg struct{}

func waitForChange(b *Bridge) tea.Cmd {
	return func() tea.Msg {
		<-b.changes
		return TreeChangedMsg{}
	}
}

type row struct {
	node  explorer.Node
	depth int
}

// ExplorerModel renders a controller's tree and maps keys onto controller
// operations.
type ExplorerModel struct {
	ctx     context.Context
	ctrl    Controller
	bridge  *Bridge
	theme   *styles.Theme
	keys    styles.ExplorerKeyMap
	help    help.Model
	spinner spinner.Model
	find    textinput.Model
	finding bool
	query   string

	rows   []row
	cursor int
	offset int
	status string
	// requested is the last selection sent to the controller, observed the
	// last selection read back from it.
	requested explorer.NodeID
	observed  explorer.NodeID

	width  int
	height int
}

// NewExplorerModel creates the model. bridge must be bound to ctrl.
func NewExplorerModel(ctx context.Context, theme *styles.Theme, ctrl Controller, bridge *Bridge) ExplorerModel {
	m := ExplorerModel{
		ctx:     ctx,
		ctrl:    ctrl,
		bridge:  bridge,
		theme:   theme,
		keys:    styles.DefaultExplorerKeyMap(),
		help:    styles.NewStyledHelp(theme),
		spinner: styles.NewDefaultSpinner(theme),
		find:    styles.NewFindInput(theme),
		width:   80,
		height:  24,
	}
	m.rebuild()
	return m
}

// Init implements tea.Model.
func (m ExplorerModel) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.bridge), m.spinner.Tick)
}

// Update implements tea.Model.
func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case TreeChangedMsg:
		m.rebuild()
		return m, waitForChange(m.bridge)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.finding {
			return m.handleFindKey(msg)
		}
		return m.handleKeyMsg(msg)
	}

	if m.finding {
		var cmd tea.Cmd
		m.find, cmd = m.find.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ExplorerModel) handleFindKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.finding = false
		m.find.Blur()
		return m, nil
	case tea.KeyEnter:
		m.finding = false
		m.find.Blur()
		m.query = m.find.Value()
		m.findFrom(0)
		return m, nil
	}

	var cmd tea.Cmd
	m.find, cmd = m.find.Update(msg)
	return m, cmd
}

// findFrom selects the first loaded node matching the query after the node
// with ID after, or from the top when after is zero.
func (m *ExplorerModel) findFrom(after explorer.NodeID) {
	if strings.TrimSpace(m.query) == "" {
		return
	}
	m.status = "find: " + m.query
	m.run("find", m.ctrl.SelectByPredicate(findMatcher(m.query, after)))
}

func (m ExplorerModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	cur := m.current()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Find):
		m.finding = true
		m.find.SetValue("")
		return m, m.find.Focus()
	case key.Matches(msg, m.keys.Up):
		m.moveTo(m.cursor - 1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveTo(m.cursor + 1)
		return m, nil
	}

	if cur == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Expand):
		if cur.Expanded() && cur.ChildCount() > 0 {
			m.moveTo(m.cursor + 1)
		} else if cur.Expandable() {
			m.run("expand", m.ctrl.Expand(cur))
		}
	case key.Matches(msg, m.keys.Collapse):
		if cur.Expanded() {
			m.run("collapse", m.ctrl.Collapse(cur))
		} else {
			m.moveToNode(cur.Parent())
		}
	case key.Matches(msg, m.keys.Activate):
		m.run("activate", m.ctrl.Activate(cur))
	case key.Matches(msg, m.keys.Action):
		actions := cur.Actions()
		if len(actions) == 0 {
			m.status = "no action"
			break
		}
		if m.run("action", m.ctrl.Invoke(cur, actions[0])) {
			m.status = actions[0].Label
		}
	case key.Matches(msg, m.keys.Refresh):
		m.run("refresh", m.ctrl.Refresh(cur, true))
	case key.Matches(msg, m.keys.Reload):
		m.run("reload", m.ctrl.Refresh(cur, false))
	case key.Matches(msg, m.keys.LoadMore):
		m.loadMore(cur)
	case key.Matches(msg, m.keys.FindNext):
		if m.query == "" {
			m.status = "nothing to find, press / first"
			break
		}
		m.findFrom(cur.ID())
	}
	return m, nil
}

// loadMore pages the current node, or its parent when the cursor sits on
// one of its children.
func (m *ExplorerModel) loadMore(cur explorer.Node) {
	switch {
	case cur.Kind() == explorer.KindLoadMore:
		m.run("load more", m.ctrl.Activate(cur))
	case cur.HasMore():
		m.run("load more", m.ctrl.LoadMore(cur))
	case cur.Parent() != nil && cur.Parent().HasMore():
		m.run("load more", m.ctrl.LoadMore(cur.Parent()))
	default:
		m.status = "nothing more to load"
	}
}

func (m *ExplorerModel) run(op string, err error) bool {
	if err == nil {
		return true
	}
	logging.FromContext(m.ctx).Debug().Err(err).Str("op", op).Msg("explorer operation rejected")
	m.status = fmt.Sprintf("%s: %v", op, err)
	return false
}

// Selected returns the node under the cursor, or nil.
func (m ExplorerModel) Selected() explorer.Node { return m.current() }

func (m ExplorerModel) current() explorer.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

func (m *ExplorerModel) moveTo(i int) {
	if len(m.rows) == 0 {
		return
	}
	i = max(0, min(i, len(m.rows)-1))
	m.cursor = i
	m.scroll()

	n := m.rows[i].node
	if n.ID() == m.requested {
		return
	}
	m.requested = n.ID()
	m.run("select", m.ctrl.Select(n))
}

func (m *ExplorerModel) moveToNode(n explorer.Node) {
	if n == nil {
		return
	}
	for i, r := range m.rows {
		if r.node.ID() == n.ID() {
			m.moveTo(i)
			return
		}
	}
}

// rebuild flattens the visible tree. The cursor stays on its node when the
// node is still visible and follows selections made through the controller.
func (m *ExplorerModel) rebuild() {
	var prev explorer.NodeID
	if cur := m.current(); cur != nil {
		prev = cur.ID()
	}

	rows := make([]row, 0, len(m.rows))
	if root := m.ctrl.Root(); root != nil {
		rows = flatten(rows, root, 0)
	}
	m.rows = rows

	target := prev
	if sel := m.ctrl.Selected(); sel != nil && sel.ID() != m.observed {
		m.observed = sel.ID()
		if sel.ID() != m.requested {
			m.requested = sel.ID()
			target = sel.ID()
		}
	}

	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
	for i, r := range m.rows {
		if r.node.ID() == target {
			m.cursor = i
			break
		}
	}
	m.scroll()
}

func flatten(rows []row, n explorer.Node, depth int) []row {
	if n.Disposed() {
		return rows
	}
	rows = append(rows, row{node: n, depth: depth})
	if !n.Expanded() {
		return rows
	}
	for _, c := range n.Children() {
		rows = flatten(rows, c, depth+1)
	}
	return rows
}

func (m ExplorerModel) listHeight() int {
	// header, status bar and help line
	return max(m.height-4, 1)
}

func (m *ExplorerModel) scroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, max(len(m.rows)-h, 0)))
}

// View implements tea.Model.
func (m ExplorerModel) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	end := min(m.offset+m.listHeight(), len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.rows[i], i == m.cursor))
		b.WriteString("\n")
	}

	if m.finding {
		b.WriteString(m.find.View())
	} else {
		b.WriteString(t.StatusBar.Width(m.width).Render(m.statusLine()))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m ExplorerModel) renderHeader() string {
	t := m.theme
	icon := lipgloss.NewStyle().Foreground(t.Accent).Render(styles.IconTree)
	label := ""
	if root := m.ctrl.Root(); root != nil {
		label = root.View().Label
	}
	return icon + t.Title.MarginLeft(1).Render(label) +
		t.Subtle.Render(fmt.Sprintf("  %d rows", len(m.rows)))
}

func (m ExplorerModel) renderRow(r row, selected bool) string {
	t := m.theme
	n := r.node
	indent := t.Guide.Render(strings.Repeat("│ ", max(r.depth-1, 0)))
	if r.depth > 0 {
		indent += t.Guide.Render("├ ")
	}

	var text string
	switch n.Kind() {
	case explorer.KindLoading:
		text = t.Placeholder.Render(m.spinner.View() + " loading…")
	case explorer.KindLoadMore:
		text = t.Placeholder.Render(styles.IconMore + " load more")
	case explorer.KindException:
		text = t.ErrorStyle.Render(styles.IconWarning + " " + n.View().Label)
	case explorer.KindAction:
		text = t.Highlight.Render(styles.Icon(n.View().Icon) + " " + n.View().Label)
	default:
		text = chevron(n) + " " + styles.Icon(iconName(n)) + " " + n.View().Label
	}

	line := indent + text
	switch {
	case selected:
		return t.RowSelected.Render(line)
	case !n.View().Enabled && !n.Placeholder():
		return t.RowDisabled.Render(line)
	default:
		return t.Row.Render(line)
	}
}

func chevron(n explorer.Node) string {
	switch {
	case !n.Expandable():
		return " "
	case n.Expanded():
		return styles.IconExpanded
	default:
		return styles.IconCursor
	}
}

func iconName(n explorer.Node) string {
	name := n.View().Icon
	if name == "dir" && n.Expanded() {
		return "dir-open"
	}
	return name
}

func (m ExplorerModel) statusLine() string {
	if m.status != "" {
		return m.status
	}
	if cur := m.current(); cur != nil {
		if tip := cur.View().Tooltip; tip != "" {
			return tip
		}
		return cur.View().Label
	}
	return ""
}
