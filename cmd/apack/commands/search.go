package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/cache"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newSearchCmd()) })
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Interactively browse the manifest and cache",
		Long: `Open an interactive TUI to search the asset manifest and inspect what
the cache holds for each asset.

Keyboard shortcuts:
  ↑/↓ or j/k    Navigate list
  Enter         Print the asset's cached artifact path
  q or Esc      Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runSearch()
		},
	}
	return cmd
}

// assetItem represents one asset in the search list.
type assetItem struct {
	Name   string
	Kind   string // source file path, or the filter name
	Public bool
	Built  bool
	Path   string // cached artifact path, if built
}

// String returns the searchable string for fuzzy matching.
func (a assetItem) String() string {
	return a.Name + " " + a.Kind
}

// searchModel is the Bubble Tea model.
type searchModel struct {
	textInput textinput.Model
	items     []assetItem
	filtered  []assetItem
	cursor    int
	height    int
	selected  *assetItem
}

var (
	searchTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	searchSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236")).
				Foreground(lipgloss.Color("255"))

	searchNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	searchKindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	searchPublicStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82"))

	searchUnbuiltStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))

	searchHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

func initialSearchModel(manifest *assets.Manifest, cacheManifest *cache.Manifest) searchModel {
	ti := textinput.New()
	ti.Placeholder = "Search assets..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	m := searchModel{
		textInput: ti,
		items:     loadAssetItems(manifest, cacheManifest),
	}
	m.filtered = m.items
	return m
}

func loadAssetItems(manifest *assets.Manifest, cacheManifest *cache.Manifest) []assetItem {
	public := make(map[string]bool, len(manifest.PublicAssets))
	for _, name := range manifest.PublicAssets {
		public[name] = true
	}

	var items []assetItem
	for name, data := range manifest.Assets {
		item := assetItem{Name: name, Public: public[name]}
		if data.Source.IsFile() {
			item.Kind = data.Source.File
		} else {
			item.Kind = data.Source.Filtered.FilterName
		}
		if entry, ok := cacheManifest.GetEntry(name); ok {
			item.Built = true
			item.Path = entry.Path
		}
		items = append(items, item)
	}

	// Public assets first, then by name.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Public != items[j].Public {
			return items[i].Public
		}
		return items[i].Name < items[j].Name
	})

	return items
}

func (m searchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}

		case "enter":
			if len(m.filtered) > 0 {
				m.selected = &m.filtered[m.cursor]
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.textInput.Width = msg.Width - 4
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.filterItems()
	return m, cmd
}

func (m *searchModel) filterItems() {
	query := m.textInput.Value()
	if query == "" {
		m.filtered = m.items
		return
	}

	var strs []string
	for _, item := range m.items {
		strs = append(strs, item.String())
	}

	matches := fuzzy.Find(query, strs)
	m.filtered = make([]assetItem, len(matches))
	for i, match := range matches {
		m.filtered[i] = m.items[match.Index]
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = maxInt(0, len(m.filtered)-1)
	}
}

func (m searchModel) View() string {
	var b strings.Builder

	b.WriteString(searchTitleStyle.Render("apack search"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	listHeight := m.height - 8
	if listHeight < 5 {
		listHeight = 5
	}

	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := start + listHeight
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	if len(m.filtered) == 0 {
		b.WriteString(searchHelpStyle.Render("  No assets found\n"))
	}

	for i := start; i < end; i++ {
		b.WriteString(m.renderItem(m.filtered[i], i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(searchHelpStyle.Render(fmt.Sprintf("%d / %d assets", len(m.filtered), len(m.items))))
	b.WriteString("\n")
	b.WriteString(searchHelpStyle.Render("↑↓ navigate  enter show path  q quit"))

	return b.String()
}

func (m searchModel) renderItem(item assetItem, selected bool) string {
	indicator := "  "
	if selected {
		indicator = "> "
	}

	namePart := searchNameStyle.Render(item.Name)
	if len(item.Name) < 24 {
		namePart += strings.Repeat(" ", 24-len(item.Name))
	}

	parts := []string{indicator + namePart, searchKindStyle.Render(item.Kind)}
	if item.Public {
		parts = append(parts, searchPublicStyle.Render("public"))
	}
	if !item.Built {
		parts = append(parts, searchUnbuiltStyle.Render("unbuilt"))
	}

	line := strings.Join(parts, "  ")
	if selected {
		line = searchSelectedStyle.Render(line)
	}
	return line
}

func runSearch() error {
	_, pc, err := loadProject()
	if err != nil {
		return err
	}

	manifest, err := assets.LoadManifest(pc.ManifestPath)
	if err != nil {
		return err
	}
	cacheManifest, err := cache.Load(pc.CacheManifestPath)
	if err != nil {
		return err
	}

	p := tea.NewProgram(initialSearchModel(manifest, cacheManifest), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running search: %w", err)
	}

	m := finalModel.(searchModel)
	if m.selected != nil {
		if m.selected.Built {
			fmt.Println(filepath.Join(pc.Dirs.InternalDir, filepath.FromSlash(m.selected.Path)))
		} else {
			fmt.Fprintf(os.Stderr, "%s has not been built yet - run apack pack\n", m.selected.Name)
		}
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
