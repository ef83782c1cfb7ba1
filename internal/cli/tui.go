package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/pkg/designer"
	"github.com/matzehuels/docdesigner/pkg/dragdrop"
	"github.com/matzehuels/docdesigner/pkg/form"
	"github.com/matzehuels/docdesigner/pkg/layout"
	"github.com/matzehuels/docdesigner/pkg/registry"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	paneStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	paneActiveStyle = paneStyle.BorderForeground(colorCyan)
	cellStyle       = lipgloss.NewStyle().Foreground(colorWhite).Background(colorDim)
	cellCursorStyle = lipgloss.NewStyle().Foreground(colorWhite).Background(colorCyan).Bold(true)
	zoneStyle       = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
)

// designCommand starts the interactive designer.
func (c *CLI) designCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "design",
		Short: "Edit the active template interactively",
		Long: `Edit the active template in the terminal.

The palette lists module kinds, the canvas shows the layout packed into rows
and the form edits the selected module. Pick a kind or a module with enter,
move the drop marker with the arrow keys and press enter again to drop it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				m := NewDesignModel(e.store)
				defer m.Close()
				_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
				return err
			})
		},
	}
}

// =============================================================================
// DesignModel - Interactive layout editor
// =============================================================================

type pane int

const (
	panePalette pane = iota
	paneCanvas
	paneForm
)

// storeEventMsg carries a settled store change into the update loop.
type storeEventMsg designer.Event

// DesignModel is the bubbletea model for the designer.
type DesignModel struct {
	store *designer.Store
	drag  *dragdrop.Session
	kinds []*registry.Kind

	events      chan designer.Event
	unsubscribe func()

	Focus     pane
	KindCur   int
	ModuleCur int
	FieldCur  int
	Zone      int
	Status    string
	Width     int
}

// NewDesignModel creates a designer bound to store.
func NewDesignModel(store *designer.Store) DesignModel {
	events := make(chan designer.Event, 64)
	unsubscribe := store.Subscribe(func(ev designer.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	return DesignModel{
		store:       store,
		drag:        dragdrop.New(store),
		kinds:       store.Registry().Kinds(),
		events:      events,
		unsubscribe: unsubscribe,
		Focus:       paneCanvas,
		Width:       96,
	}
}

// Close stops listening for store events.
func (m DesignModel) Close() { m.unsubscribe() }

func (m DesignModel) waitForEvent() tea.Cmd {
	return func() tea.Msg { return storeEventMsg(<-m.events) }
}

func (m DesignModel) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m DesignModel) modules() []template.Module {
	return m.store.ActiveTemplate().Layout
}

func (m DesignModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeEventMsg:
		if msg.Op != designer.OpSelectModule {
			m.Status = string(msg.Op)
			m.clamp()
		}
		return m, m.waitForEvent()
	case tea.WindowSizeMsg:
		m.Width = msg.Width
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.drag.Dragging() {
			m.updateDrag(key)
			return m, nil
		}
		switch key {
		case "q":
			return m, tea.Quit
		case "tab":
			m.Focus = (m.Focus + 1) % 3
			return m, nil
		case "shift+tab":
			m.Focus = (m.Focus + 2) % 3
			return m, nil
		}
		switch m.Focus {
		case panePalette:
			m.updatePalette(key)
		case paneCanvas:
			m.updateCanvas(key)
		case paneForm:
			m.updateForm(key)
		}
	}
	return m, nil
}

func (m *DesignModel) updatePalette(key string) {
	switch key {
	case "up", "k":
		m.KindCur = max(m.KindCur-1, 0)
	case "down", "j":
		m.KindCur = min(m.KindCur+1, len(m.kinds)-1)
	case "enter", " ":
		if err := m.drag.StartNew(m.kinds[m.KindCur].Name); err != nil {
			m.Status = err.Error()
			return
		}
		m.Zone = len(m.modules())
		m.drag.Hover(m.Zone)
		m.Focus = paneCanvas
	}
}

func (m *DesignModel) updateCanvas(key string) {
	mods := m.modules()
	switch key {
	case "up", "k":
		m.ModuleCur = max(m.ModuleCur-1, 0)
	case "down", "j":
		m.ModuleCur = min(m.ModuleCur+1, max(len(mods)-1, 0))
	case "enter", " ":
		if len(mods) == 0 {
			return
		}
		if err := m.drag.StartMove(m.ModuleCur); err != nil {
			m.Status = err.Error()
			return
		}
		m.Zone = m.ModuleCur
		m.drag.Hover(m.Zone)
		return
	}
	if len(mods) == 0 {
		return
	}
	cur := mods[m.ModuleCur]
	switch key {
	case "x", "delete":
		m.store.RemoveModule(cur.ID)
	case "d":
		m.store.DuplicateModule(cur.ID)
	case "w":
		m.store.UpdateModuleWidth(cur.ID, nextWidth(cur.Width))
	case "K", "shift+up":
		if m.store.MoveModule(cur.ID, designer.Up) {
			m.ModuleCur--
		}
	case "J", "shift+down":
		if m.store.MoveModule(cur.ID, designer.Down) {
			m.ModuleCur++
		}
	case "e":
		m.FieldCur = 0
		m.Focus = paneForm
	}
	m.clamp()
}

func (m *DesignModel) updateDrag(key string) {
	n := len(m.modules())
	switch key {
	case "up", "k", "left", "h":
		m.Zone = max(m.Zone-1, 0)
		m.drag.Hover(m.Zone)
	case "down", "j", "right", "l":
		m.Zone = min(m.Zone+1, n)
		m.drag.Hover(m.Zone)
	case "esc", "q":
		m.drag.Cancel()
		m.Status = "drop cancelled"
	case "enter", " ":
		res := m.drag.Drop(m.Zone)
		if !res.Applied {
			m.Status = "layout unchanged"
			return
		}
		m.ModuleCur = res.To
		m.clamp()
	}
}

func (m *DesignModel) updateForm(key string) {
	mod, ok := m.selected()
	if !ok {
		return
	}
	f, err := form.New(m.store.Registry(), mod, m.store)
	if err != nil {
		m.Status = err.Error()
		return
	}
	entries := f.Entries()
	if len(entries) == 0 {
		return
	}
	m.FieldCur = min(m.FieldCur, len(entries)-1)
	en := entries[m.FieldCur]

	switch key {
	case "up", "k":
		m.FieldCur = max(m.FieldCur-1, 0)
	case "down", "j":
		m.FieldCur = min(m.FieldCur+1, len(entries)-1)
	case "enter", " ":
		if en.Type == registry.FieldBoolean {
			err = f.Toggle(en.Key)
		}
	case "left", "h", "right", "l":
		step := 1
		if key == "left" || key == "h" {
			step = -1
		}
		err = stepEntry(f, en, step)
	case "esc":
		m.Focus = paneCanvas
	}
	if err != nil {
		m.Status = err.Error()
	}
}

// stepEntry nudges a number, cycles a select option or a color swatch.
func stepEntry(f *form.Form, en form.Entry, step int) error {
	switch en.Type {
	case registry.FieldNumber:
		return f.Set(en.Key, number(en.Value)+float64(step))
	case registry.FieldSelect:
		return f.Set(en.Key, cycle(en.Options, fmt.Sprint(en.Value), step))
	case registry.FieldColor:
		i := indexOf(en.Swatches, fmt.Sprint(en.Value))
		return f.PickSwatch(en.Key, wrap(i+step, len(en.Swatches)))
	case registry.FieldBoolean:
		return f.Toggle(en.Key)
	}
	return nil
}

func (m DesignModel) selected() (template.Module, bool) {
	mods := m.modules()
	if m.ModuleCur < 0 || m.ModuleCur >= len(mods) {
		return template.Module{}, false
	}
	return mods[m.ModuleCur], true
}

// clamp keeps the cursor on a module and mirrors it into the store's
// selection.
func (m *DesignModel) clamp() {
	n := len(m.modules())
	m.ModuleCur = min(max(m.ModuleCur, 0), max(n-1, 0))
	if mod, ok := m.selected(); ok {
		m.store.SelectModule(mod.ID)
	} else {
		m.store.SelectModule("")
	}
}

func (m DesignModel) View() string {
	var b strings.Builder

	t := m.store.ActiveTemplate()
	b.WriteString(StyleTitle.Render(t.Name))
	b.WriteString(" " + listDimStyle.Render(fmt.Sprintf("%d modules", len(t.Layout))))
	b.WriteString("\n\n")

	palette := m.viewPalette()
	canvas := m.viewCanvas()
	formView := m.viewForm()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.frame(panePalette, palette),
		m.frame(paneCanvas, canvas),
		m.frame(paneForm, formView),
	))
	b.WriteString("\n")

	if st := m.drag.Status(); st.State == dragdrop.Dragging {
		what := fmt.Sprintf("module %d", st.Source.From)
		if st.Source.IsNew() {
			what = kindName(m.store.Registry(), st.Source.Kind)
		}
		b.WriteString(zoneStyle.Render(fmt.Sprintf("dragging %s to zone %d", what, st.Zone)))
		b.WriteString("  " + listDimStyle.Render("↑/↓ move marker  ⏎ drop  esc cancel"))
	} else {
		b.WriteString(listDimStyle.Render("tab pane  ⏎ pick  w width  d dup  x delete  J/K move  e edit  q quit"))
	}
	if m.Status != "" {
		b.WriteString("\n" + StyleDim.Render(iconInfo+" "+m.Status))
	}
	return b.String()
}

func (m DesignModel) frame(p pane, body string) string {
	if m.Focus == p {
		return paneActiveStyle.Render(body)
	}
	return paneStyle.Render(body)
}

func (m DesignModel) viewPalette() string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render("Modules") + "\n")
	for i, k := range m.kinds {
		line := "  " + k.DisplayName
		if i == m.KindCur && m.Focus == panePalette {
			b.WriteString(listSelectedStyle.Render("▸ "+k.DisplayName) + "\n")
			continue
		}
		b.WriteString(listNormalStyle.Render(line) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m DesignModel) viewCanvas() string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render("Canvas") + "\n")

	mods := m.modules()
	st := m.drag.Status()
	dragging := st.State == dragdrop.Dragging
	span := max(m.Width/2, 36)
	marker := zoneStyle.Render(strings.Repeat("╌", span))

	rows := layout.Pack(mods)
	if len(rows) == 0 {
		if dragging {
			b.WriteString(marker + "\n")
		}
		b.WriteString(listDimStyle.Render("empty layout, pick a module from the palette"))
		return b.String()
	}
	for _, r := range rows {
		var line strings.Builder
		for _, c := range r.Cells {
			if dragging && st.Zone == c.Index && c.Index == r.Cells[0].Index {
				b.WriteString(marker + "\n")
			}
			w := max(span*layout.Units(c.Module.Width)/layout.Span-1, 4)
			style := cellStyle
			if c.Index == m.ModuleCur && !dragging {
				style = cellCursorStyle
			}
			label := kindName(m.store.Registry(), c.Module.Type)
			if dragging && st.Zone == c.Index && c.Index != r.Cells[0].Index {
				label = "▏" + label
			}
			line.WriteString(style.Width(w).MaxWidth(w).Render(label) + " ")
		}
		b.WriteString(line.String() + "\n")
	}
	if dragging && st.Zone == len(mods) {
		b.WriteString(marker + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m DesignModel) viewForm() string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render("Settings") + "\n")
	mod, ok := m.selected()
	if !ok {
		b.WriteString(listDimStyle.Render("no module selected"))
		return b.String()
	}
	entries, err := form.Fields(m.store.Registry(), mod)
	if err != nil {
		b.WriteString(StyleWarning.Render(err.Error()))
		return b.String()
	}
	for i, en := range entries {
		val := fmt.Sprint(en.Value)
		if len(val) > 18 {
			val = val[:17] + "…"
		}
		line := fmt.Sprintf("%-18s %s", en.Label, val)
		switch {
		case i == m.FieldCur && m.Focus == paneForm:
			b.WriteString(listSelectedStyle.Render("▸ "+line) + "\n")
		case en.Overridden():
			b.WriteString(StyleNumber.Render("  "+line) + "\n")
		default:
			b.WriteString(listNormalStyle.Render("  "+line) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// Helpers
// =============================================================================

func nextWidth(w template.Width) template.Width {
	i := indexOf(template.Widths, w)
	return template.Widths[wrap(i+1, len(template.Widths))]
}

// number reads a stored numeric value; configs loaded from JSON hold
// float64s.
func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func cycle(options []string, cur string, step int) string {
	if len(options) == 0 {
		return cur
	}
	return options[wrap(indexOf(options, cur)+step, len(options))]
}

func indexOf[T comparable](xs []T, v T) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}
